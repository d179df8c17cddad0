package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/beanhouse/commerce/internal/core/domain"
	"github.com/beanhouse/commerce/internal/port"
)

// InventoryService owns product stock. Every stock mutation goes through
// Decrease/Increase or an order operation's transaction; nothing else writes
// the stock column.
type InventoryService struct {
	products port.ProductRepository
}

func NewInventoryService(products port.ProductRepository) *InventoryService {
	return &InventoryService{products: products}
}

// Decrease atomically subtracts qty from the product's stock. It fails with
// ErrInsufficientStock when the remaining stock cannot cover qty, leaving the
// stock untouched.
func (s *InventoryService) Decrease(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	ok, err := s.products.DecreaseStock(ctx, productID, qty)
	if err != nil {
		return fmt.Errorf("decrease stock: %w", err)
	}
	if ok {
		return nil
	}

	// The conditional update matched nothing: either the product is gone or
	// the stock is short.
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("lookup product: %w", err)
	}
	if p == nil {
		return ErrProductNotFound
	}
	return ErrInsufficientStock
}

// Increase atomically adds qty to the product's stock. qty zero is allowed
// and is a no-op; there is no upper bound.
func (s *InventoryService) Increase(ctx context.Context, productID string, qty int) error {
	if qty < 0 {
		return ErrInvalidQuantity
	}
	if qty == 0 {
		return nil
	}

	ok, err := s.products.IncreaseStock(ctx, productID, qty)
	if err != nil {
		return fmt.Errorf("increase stock: %w", err)
	}
	if !ok {
		return ErrProductNotFound
	}
	return nil
}

func (s *InventoryService) Create(ctx context.Context, name string, price, stock int, imageURL string) (*domain.Product, error) {
	if stock < 0 {
		return nil, ErrInvalidQuantity
	}

	now := time.Now()
	p := domain.Product{
		ID:        uuid.New().String(),
		Name:      name,
		Price:     price,
		Stock:     stock,
		ImageURL:  imageURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.products.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &p, nil
}

func (s *InventoryService) Get(ctx context.Context, productID string) (*domain.Product, error) {
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *InventoryService) List(ctx context.Context) ([]domain.Product, error) {
	return s.products.ListProducts(ctx)
}

func (s *InventoryService) Modify(ctx context.Context, productID, name string, price, stock int, imageURL string) error {
	if stock < 0 {
		return ErrInvalidQuantity
	}

	ok, err := s.products.UpdateProduct(ctx, domain.Product{
		ID:       productID,
		Name:     name,
		Price:    price,
		Stock:    stock,
		ImageURL: imageURL,
	})
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if !ok {
		return ErrProductNotFound
	}
	return nil
}

func (s *InventoryService) Delete(ctx context.Context, productID string) error {
	return s.products.DeleteProduct(ctx, productID)
}
