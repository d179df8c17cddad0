package service

import (
	"context"
	"sync"
	"time"

	"github.com/beanhouse/commerce/internal/core/domain"
)

// mockStore implements the product, order and customer repositories against
// in-memory maps, mirroring the adapter's transactional semantics: an order
// write and its stock adjustment apply together under one lock or not at all.
type mockStore struct {
	mu        sync.Mutex
	products  map[string]*domain.Product
	orders    map[string]*domain.Order
	customers map[string]*domain.Customer
}

func newMockStore() *mockStore {
	return &mockStore{
		products:  make(map[string]*domain.Product),
		orders:    make(map[string]*domain.Order),
		customers: make(map[string]*domain.Customer),
	}
}

func (m *mockStore) addProduct(id string, stock int) {
	m.products[id] = &domain.Product{ID: id, Name: id, Price: 1000, Stock: stock}
}

func (m *mockStore) addCustomer(email string) {
	m.customers[email] = &domain.Customer{Email: email}
}

func (m *mockStore) stock(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

// ProductRepository

func (m *mockStore) CreateProduct(ctx context.Context, p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockStore) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Product
	for _, p := range m.products {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockStore) UpdateProduct(ctx context.Context, p domain.Product) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.products[p.ID]
	if !ok {
		return false, nil
	}
	existing.Name = p.Name
	existing.Price = p.Price
	existing.Stock = p.Stock
	existing.ImageURL = p.ImageURL
	return true, nil
}

func (m *mockStore) DeleteProduct(ctx context.Context, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, productID)
	return nil
}

func (m *mockStore) DecreaseStock(ctx context.Context, productID string, qty int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	return true, nil
}

func (m *mockStore) IncreaseStock(ctx context.Context, productID string, qty int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return false, nil
	}
	p.Stock += qty
	return true, nil
}

// OrderRepository

func (m *mockStore) CreateOrder(ctx context.Context, order domain.Order) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[order.ProductID]
	if !ok || p.Stock < order.Quantity {
		return false, nil
	}
	p.Stock -= order.Quantity
	cp := order
	m.orders[order.ID] = &cp
	return true, nil
}

func (m *mockStore) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *mockStore) ListOrdersByCustomer(ctx context.Context, customerEmail string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.CustomerEmail == customerEmail {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateOrder(ctx context.Context, order domain.Order) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.orders[order.ID]
	if !ok {
		return false, nil
	}
	// Reconcile against the stored quantity, not anything the caller read.
	p, haveProduct := m.products[order.ProductID]
	delta := order.Quantity - existing.Quantity
	if delta > 0 {
		if !haveProduct || p.Stock < delta {
			return false, nil
		}
		p.Stock -= delta
	} else if delta < 0 && haveProduct {
		p.Stock += -delta
	}
	cp := order
	m.orders[order.ID] = &cp
	return true, nil
}

func (m *mockStore) DeleteOrder(ctx context.Context, orderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return false, nil
	}
	delete(m.orders, orderID)
	if p, ok := m.products[o.ProductID]; ok {
		p.Stock += o.Quantity
	}
	return true, nil
}

func (m *mockStore) DeleteOrdersByCustomer(ctx context.Context, customerEmail string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, o := range m.orders {
		if o.CustomerEmail != customerEmail {
			continue
		}
		delete(m.orders, id)
		if p, ok := m.products[o.ProductID]; ok {
			p.Stock += o.Quantity
		}
		n++
	}
	return n, nil
}

func (m *mockStore) SettleOrders(ctx context.Context, start, end time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, o := range m.orders {
		if o.State == domain.OrderStatePending && !o.OrderDate.Before(start) && o.OrderDate.Before(end) {
			o.State = domain.OrderStateFulfilled
			count++
		}
	}
	return count, nil
}

func (m *mockStore) CountPendingInRange(ctx context.Context, start, end time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, o := range m.orders {
		if o.State == domain.OrderStatePending && !o.OrderDate.Before(start) && o.OrderDate.Before(end) {
			count++
		}
	}
	return count, nil
}

func (m *mockStore) CountOrdersByCustomer(ctx context.Context, customerEmail string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, o := range m.orders {
		if o.CustomerEmail == customerEmail {
			count++
		}
	}
	return count, nil
}

// CustomerRepository

func (m *mockStore) GetCustomer(ctx context.Context, email string) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[email]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *mockStore) MarkDeleted(ctx context.Context, email string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[email]
	if !ok || c.Deleted {
		return false, nil
	}
	c.Deleted = true
	t := at
	c.DeletedAt = &t
	return true, nil
}

func (m *mockStore) FindPurgeTargets(ctx context.Context, threshold time.Time) ([]domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Customer
	for _, c := range m.customers {
		if c.Deleted && c.DeletedAt != nil && c.DeletedAt.Before(threshold) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockStore) DeleteCustomer(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.customers, email)
	return nil
}
