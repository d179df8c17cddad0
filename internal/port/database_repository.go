package port

import (
	"context"
	"time"

	"github.com/beanhouse/commerce/internal/core/domain"
)

type ProductRepository interface {
	// CreateProduct persists a new catalog entry
	CreateProduct(ctx context.Context, product domain.Product) error

	// GetProduct retrieves a product by ID, nil when absent
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)

	// ListProducts returns the whole catalog
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// UpdateProduct overwrites name, price, stock and image of an existing product
	UpdateProduct(ctx context.Context, product domain.Product) (bool, error)

	// DeleteProduct removes a catalog entry
	DeleteProduct(ctx context.Context, productID string) error

	// DecreaseStock atomically subtracts qty, returns false if stock is short
	// or the product does not exist
	DecreaseStock(ctx context.Context, productID string, qty int) (bool, error)

	// IncreaseStock atomically adds qty, returns false if the product does not exist
	IncreaseStock(ctx context.Context, productID string, qty int) (bool, error)
}

type OrderRepository interface {
	// CreateOrder persists a new order and applies the stock decrement in one
	// transaction; returns false if stock is short or the product is missing
	CreateOrder(ctx context.Context, order domain.Order) (bool, error)

	// GetOrder retrieves an order by ID, nil when absent
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)

	// ListOrdersByCustomer returns every order referencing the customer email
	ListOrdersByCustomer(ctx context.Context, customerEmail string) ([]domain.Order, error)

	// UpdateOrder rewrites quantity, state and order date. The stored quantity
	// is re-read under lock inside the transaction and stock is reconciled by
	// its difference to the new quantity; returns false when the order is gone
	// or the stock decrement fails
	UpdateOrder(ctx context.Context, order domain.Order) (bool, error)

	// DeleteOrder removes the order and restores the quantity stored at delete
	// time to stock, in one transaction; returns false when the order does not
	// exist
	DeleteOrder(ctx context.Context, orderID string) (bool, error)

	// DeleteOrdersByCustomer removes every order for the customer, restoring each
	// quantity, all in one transaction; returns the number of orders removed
	DeleteOrdersByCustomer(ctx context.Context, customerEmail string) (int, error)

	// SettleOrders flips pending orders dated in [start, end) to fulfilled with a
	// single conditional bulk update and returns the rows changed
	SettleOrders(ctx context.Context, start, end time.Time) (int64, error)

	// CountPendingInRange counts pending orders dated in [start, end)
	CountPendingInRange(ctx context.Context, start, end time.Time) (int64, error)

	// CountOrdersByCustomer counts orders referencing the customer email, any state
	CountOrdersByCustomer(ctx context.Context, customerEmail string) (int64, error)
}

type CustomerRepository interface {
	// GetCustomer retrieves a customer by email, nil when absent
	GetCustomer(ctx context.Context, email string) (*domain.Customer, error)

	// MarkDeleted soft-deletes the customer, returns false when absent
	MarkDeleted(ctx context.Context, email string, at time.Time) (bool, error)

	// FindPurgeTargets returns customers soft-deleted before threshold
	FindPurgeTargets(ctx context.Context, threshold time.Time) ([]domain.Customer, error)

	// DeleteCustomer permanently removes the customer row
	DeleteCustomer(ctx context.Context, email string) error
}
