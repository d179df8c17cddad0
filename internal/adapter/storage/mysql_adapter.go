package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/beanhouse/commerce/internal/core/domain"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) CreateProduct(ctx context.Context, p domain.Product) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO product (id, name, price, stock, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Price, p.Stock, p.ImageURL, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var p domain.Product
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, price, stock, image_url, created_at, updated_at
		FROM product WHERE id = ?`, productID,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (m *MySQLAdapter) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, price, stock, image_url, created_at, updated_at
		FROM product ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (m *MySQLAdapter) UpdateProduct(ctx context.Context, p domain.Product) (bool, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE product
		SET name = ?, price = ?, stock = ?, image_url = ?, updated_at = NOW()
		WHERE id = ?`,
		p.Name, p.Price, p.Stock, p.ImageURL, p.ID,
	)
	if err != nil {
		return false, fmt.Errorf("update product: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (m *MySQLAdapter) DeleteProduct(ctx context.Context, productID string) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM product WHERE id = ?`, productID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// DecreaseStock is the serialization point for all stock consumption: the
// conditional UPDATE either lands atomically or touches nothing, and the
// affected-row count is the success signal.
func (m *MySQLAdapter) DecreaseStock(ctx context.Context, productID string, qty int) (bool, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE product
		SET stock = stock - ?, updated_at = NOW()
		WHERE id = ? AND stock >= ?`,
		qty, productID, qty,
	)
	if err != nil {
		return false, fmt.Errorf("decrease stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (m *MySQLAdapter) IncreaseStock(ctx context.Context, productID string, qty int) (bool, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE product
		SET stock = stock + ?, updated_at = NOW()
		WHERE id = ?`,
		qty, productID,
	)
	if err != nil {
		return false, fmt.Errorf("increase stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}
