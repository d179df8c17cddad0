package service

import (
	"context"
	"fmt"

	"github.com/beanhouse/commerce/internal/core/domain"
	"github.com/beanhouse/commerce/internal/port"
)

// CartService keeps a per-customer cart in the cache, one entry per product,
// most recent first.
type CartService struct {
	cart     port.CartRepository
	products port.ProductRepository
}

func NewCartService(cart port.CartRepository, products port.ProductRepository) *CartService {
	return &CartService{cart: cart, products: products}
}

func (s *CartService) Add(ctx context.Context, customerEmail, productID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("lookup product: %w", err)
	}
	if p == nil {
		return ErrProductNotFound
	}

	return s.cart.PushItem(ctx, domain.CartItem{
		CustomerEmail: customerEmail,
		ProductID:     productID,
		Quantity:      qty,
	})
}

func (s *CartService) Get(ctx context.Context, customerEmail string) ([]domain.CartItem, error) {
	return s.cart.ListItems(ctx, customerEmail)
}

func (s *CartService) Remove(ctx context.Context, customerEmail, productID string) error {
	return s.cart.RemoveItem(ctx, customerEmail, productID)
}

func (s *CartService) Clear(ctx context.Context, customerEmail string) error {
	return s.cart.Clear(ctx, customerEmail)
}
