package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/beanhouse/commerce/internal/core/domain"
)

// CreateOrder inserts the order row and consumes stock in a single
// transaction. A false return means the conditional stock decrement matched
// nothing (product missing or stock short) and the insert was rolled back.
func (m *MySQLAdapter) CreateOrder(ctx context.Context, order domain.Order) (bool, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_email, product_id, quantity, order_date, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.CustomerEmail, order.ProductID, order.Quantity,
		order.OrderDate, order.State, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert order: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE product
		SET stock = stock - ?, updated_at = NOW()
		WHERE id = ? AND stock >= ?`,
		order.Quantity, order.ProductID, order.Quantity,
	)
	if err != nil {
		return false, fmt.Errorf("decrease stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return true, nil
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var o domain.Order
	err := m.db.QueryRowContext(ctx, `
		SELECT id, customer_email, product_id, quantity, order_date, state, created_at, updated_at
		FROM orders WHERE id = ?`, orderID,
	).Scan(&o.ID, &o.CustomerEmail, &o.ProductID, &o.Quantity, &o.OrderDate, &o.State, &o.CreatedAt, &o.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return &o, nil
}

func (m *MySQLAdapter) ListOrdersByCustomer(ctx context.Context, customerEmail string) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, customer_email, product_id, quantity, order_date, state, created_at, updated_at
		FROM orders WHERE customer_email = ? ORDER BY order_date`, customerEmail)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.CustomerEmail, &o.ProductID, &o.Quantity, &o.OrderDate, &o.State, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateOrder rewrites the order row and reconciles stock in the same
// transaction. The stored quantity is read under lock so the reconcile
// baseline cannot move under a concurrent writer; a growing order consumes
// stock conditionally and zero rows affected aborts the whole update.
func (m *MySQLAdapter) UpdateOrder(ctx context.Context, order domain.Order) (bool, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRowContext(ctx,
		`SELECT quantity FROM orders WHERE id = ? FOR UPDATE`, order.ID,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lock order: %w", err)
	}

	delta := order.Quantity - current
	if delta > 0 {
		result, err := tx.ExecContext(ctx, `
			UPDATE product
			SET stock = stock - ?, updated_at = NOW()
			WHERE id = ? AND stock >= ?`,
			delta, order.ProductID, delta,
		)
		if err != nil {
			return false, fmt.Errorf("decrease stock: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return false, nil
		}
	} else if delta < 0 {
		_, err := tx.ExecContext(ctx, `
			UPDATE product
			SET stock = stock + ?, updated_at = NOW()
			WHERE id = ?`,
			-delta, order.ProductID,
		)
		if err != nil {
			return false, fmt.Errorf("increase stock: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET quantity = ?, state = ?, order_date = ?, updated_at = NOW()
		WHERE id = ?`,
		order.Quantity, order.State, order.OrderDate, order.ID,
	)
	if err != nil {
		return false, fmt.Errorf("update order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return true, nil
}

// DeleteOrder removes the row and restores the stored quantity to stock in
// one transaction. The row is locked and re-read first, so a quantity change
// committed by a concurrent modify cannot corrupt the restore amount.
func (m *MySQLAdapter) DeleteOrder(ctx context.Context, orderID string) (bool, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var productID string
	var quantity int
	err = tx.QueryRowContext(ctx,
		`SELECT product_id, quantity FROM orders WHERE id = ? FOR UPDATE`, orderID,
	).Scan(&productID, &quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lock order: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, orderID); err != nil {
		return false, fmt.Errorf("delete order: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE product
		SET stock = stock + ?, updated_at = NOW()
		WHERE id = ?`,
		quantity, productID,
	)
	if err != nil {
		return false, fmt.Errorf("restore stock: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return true, nil
}

func (m *MySQLAdapter) DeleteOrdersByCustomer(ctx context.Context, customerEmail string) (int, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Lock the rows so a concurrent modify cannot change a quantity between
	// the read and the delete, which would corrupt the restore amounts.
	rows, err := tx.QueryContext(ctx, `
		SELECT product_id, quantity FROM orders
		WHERE customer_email = ? FOR UPDATE`, customerEmail)
	if err != nil {
		return 0, fmt.Errorf("query orders: %w", err)
	}

	type restore struct {
		productID string
		quantity  int
	}
	var restores []restore
	for rows.Next() {
		var r restore
		if err := rows.Scan(&r.productID, &r.quantity); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan order: %w", err)
		}
		restores = append(restores, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterate orders: %w", err)
	}
	rows.Close()

	if len(restores) == 0 {
		return 0, nil
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM orders WHERE customer_email = ?`, customerEmail)
	if err != nil {
		return 0, fmt.Errorf("delete orders: %w", err)
	}

	for _, r := range restores {
		_, err = tx.ExecContext(ctx, `
			UPDATE product
			SET stock = stock + ?, updated_at = NOW()
			WHERE id = ?`,
			r.quantity, r.productID,
		)
		if err != nil {
			return 0, fmt.Errorf("restore stock: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return len(restores), nil
}

// SettleOrders is a single conditional bulk update so it cannot race with a
// concurrent modify on a per-row basis; whichever write lands last wins.
func (m *MySQLAdapter) SettleOrders(ctx context.Context, start, end time.Time) (int64, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE orders
		SET state = ?, updated_at = NOW()
		WHERE state = ? AND order_date >= ? AND order_date < ?`,
		domain.OrderStateFulfilled, domain.OrderStatePending, start, end,
	)
	if err != nil {
		return 0, fmt.Errorf("settle orders: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return rows, nil
}

func (m *MySQLAdapter) CountPendingInRange(ctx context.Context, start, end time.Time) (int64, error) {
	var count int64
	err := m.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM orders
		WHERE state = ? AND order_date >= ? AND order_date < ?`,
		domain.OrderStatePending, start, end,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending orders: %w", err)
	}
	return count, nil
}

func (m *MySQLAdapter) CountOrdersByCustomer(ctx context.Context, customerEmail string) (int64, error) {
	var count int64
	err := m.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM orders WHERE customer_email = ?`, customerEmail,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}
