package port

import (
	"context"

	"github.com/beanhouse/commerce/internal/core/domain"
)

type CartRepository interface {
	// PushItem puts the item at the head of the customer's cart, replacing any
	// existing entry for the same product
	PushItem(ctx context.Context, item domain.CartItem) error

	// ListItems returns the cart contents, most recent first
	ListItems(ctx context.Context, customerEmail string) ([]domain.CartItem, error)

	// RemoveItem drops the entry for the product, if present
	RemoveItem(ctx context.Context, customerEmail, productID string) error

	// Clear empties the cart
	Clear(ctx context.Context, customerEmail string) error
}
