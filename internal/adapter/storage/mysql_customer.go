package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/beanhouse/commerce/internal/core/domain"
)

func (m *MySQLAdapter) GetCustomer(ctx context.Context, email string) (*domain.Customer, error) {
	var c domain.Customer
	var deletedAt sql.NullTime
	err := m.db.QueryRowContext(ctx, `
		SELECT email, username, address, postal_code, deleted, deleted_at, created_at, updated_at
		FROM customer WHERE email = ?`, email,
	).Scan(&c.Email, &c.Username, &c.Address, &c.PostalCode, &c.Deleted, &deletedAt, &c.CreatedAt, &c.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query customer: %w", err)
	}
	if deletedAt.Valid {
		c.DeletedAt = &deletedAt.Time
	}
	return &c, nil
}

func (m *MySQLAdapter) MarkDeleted(ctx context.Context, email string, at time.Time) (bool, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE customer
		SET deleted = TRUE, deleted_at = ?, updated_at = NOW()
		WHERE email = ? AND deleted = FALSE`,
		at, email,
	)
	if err != nil {
		return false, fmt.Errorf("mark customer deleted: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (m *MySQLAdapter) FindPurgeTargets(ctx context.Context, threshold time.Time) ([]domain.Customer, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT email, username, address, postal_code, deleted, deleted_at, created_at, updated_at
		FROM customer
		WHERE deleted = TRUE AND deleted_at < ?`, threshold)
	if err != nil {
		return nil, fmt.Errorf("query purge targets: %w", err)
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		var c domain.Customer
		var deletedAt sql.NullTime
		if err := rows.Scan(&c.Email, &c.Username, &c.Address, &c.PostalCode, &c.Deleted, &deletedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		if deletedAt.Valid {
			c.DeletedAt = &deletedAt.Time
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (m *MySQLAdapter) DeleteCustomer(ctx context.Context, email string) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM customer WHERE email = ?`, email)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return nil
}
