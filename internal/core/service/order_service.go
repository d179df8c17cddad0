package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/beanhouse/commerce/internal/core/domain"
	"github.com/beanhouse/commerce/internal/pkg/metrics"
	"github.com/beanhouse/commerce/internal/port"
)

// OrderService drives the order lifecycle. Each operation commits its order
// write and its stock adjustment as one storage transaction, so a failure
// partway never leaves stock and order records inconsistent.
type OrderService struct {
	orders     port.OrderRepository
	products   port.ProductRepository
	customers  port.CustomerRepository
	metrics    *metrics.CoreMetrics
	cutoffHour int
}

func NewOrderService(orders port.OrderRepository, products port.ProductRepository, customers port.CustomerRepository, m *metrics.CoreMetrics, cutoffHour int) *OrderService {
	return &OrderService{
		orders:     orders,
		products:   products,
		customers:  customers,
		metrics:    m,
		cutoffHour: cutoffHour,
	}
}

// Create places a pending order and consumes stock. No order is persisted
// when the stock decrement fails.
func (s *OrderService) Create(ctx context.Context, customerEmail, productID string, qty int) (*domain.Order, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	c, err := s.customers.GetCustomer(ctx, customerEmail)
	if err != nil {
		return nil, fmt.Errorf("lookup customer: %w", err)
	}
	if c == nil {
		return nil, ErrCustomerNotFound
	}

	now := time.Now()
	order := domain.Order{
		ID:            uuid.New().String(),
		CustomerEmail: customerEmail,
		ProductID:     productID,
		Quantity:      qty,
		OrderDate:     now,
		State:         domain.OrderStatePending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	ok, err := s.orders.CreateOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if !ok {
		return nil, s.stockFailure(ctx, productID)
	}

	if s.metrics != nil {
		s.metrics.OrdersCreated.Inc()
	}
	log.Info().
		Str("order_id", order.ID).
		Str("customer", customerEmail).
		Str("product_id", productID).
		Int("quantity", qty).
		Msg("order created")
	return &order, nil
}

// Modify edits a stored order. A quantity change reconciles stock against
// the quantity the store holds at write time and resets the order date; a
// state change is written as given (administrative bypass of the settlement
// sweep).
func (s *OrderService) Modify(ctx context.Context, orderID string, newQty *int, newState *domain.OrderState) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("lookup order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	if newQty == nil && newState == nil {
		return order, nil
	}

	now := time.Now()
	if newQty != nil {
		if *newQty <= 0 {
			return nil, ErrInvalidQuantity
		}
		order.Quantity = *newQty
		order.OrderDate = now
	}
	if newState != nil {
		if !newState.Valid() {
			return nil, ErrInvalidState
		}
		order.State = *newState
		order.OrderDate = now
	}

	ok, err := s.orders.UpdateOrder(ctx, *order)
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	if !ok {
		// The write found no order row or could not cover a quantity
		// increase; tell the two apart before reporting.
		current, err := s.orders.GetOrder(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("lookup order: %w", err)
		}
		if current == nil {
			return nil, ErrOrderNotFound
		}
		return nil, s.stockFailure(ctx, order.ProductID)
	}

	if s.metrics != nil {
		s.metrics.OrdersModified.Inc()
	}
	log.Info().
		Str("order_id", order.ID).
		Int("quantity", order.Quantity).
		Str("state", string(order.State)).
		Msg("order modified")
	return order, nil
}

// Cancel removes the order and restores its stored quantity to stock. The
// store reads the quantity inside the delete transaction, so no snapshot is
// taken here that a concurrent modify could invalidate.
func (s *OrderService) Cancel(ctx context.Context, orderID string) error {
	ok, err := s.orders.DeleteOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	if !ok {
		return ErrOrderNotFound
	}

	if s.metrics != nil {
		s.metrics.OrdersCancelled.Inc()
	}
	log.Info().Str("order_id", orderID).Msg("order cancelled")
	return nil
}

// CancelAllForCustomer removes every order for the customer, restoring each
// quantity, and returns the number of orders removed.
func (s *OrderService) CancelAllForCustomer(ctx context.Context, customerEmail string) (int, error) {
	n, err := s.orders.DeleteOrdersByCustomer(ctx, customerEmail)
	if err != nil {
		return 0, fmt.Errorf("cancel orders: %w", err)
	}

	if s.metrics != nil {
		s.metrics.OrdersCancelled.Add(float64(n))
	}
	log.Info().Str("customer", customerEmail).Int("count", n).Msg("orders cancelled")
	return n, nil
}

func (s *OrderService) ListByCustomer(ctx context.Context, customerEmail string) ([]domain.Order, error) {
	return s.orders.ListOrdersByCustomer(ctx, customerEmail)
}

// DispatchMessage derives the advisory wording for an order placed or
// modified at t. Presentation only; persisted state never depends on it.
func (s *OrderService) DispatchMessage(t time.Time) string {
	if t.Hour() >= s.cutoffHour {
		return fmt.Sprintf("Orders placed at or after %d:00 are dispatched the next day.", s.cutoffHour)
	}
	return "Dispatch starts today."
}

// stockFailure turns a rejected conditional stock update into the right
// sentinel: the product may be gone entirely rather than short on stock.
func (s *OrderService) stockFailure(ctx context.Context, productID string) error {
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("lookup product: %w", err)
	}
	if p == nil {
		return ErrProductNotFound
	}
	return ErrInsufficientStock
}
