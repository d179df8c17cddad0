package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/beanhouse/commerce/internal/core/domain"
	"github.com/beanhouse/commerce/internal/pkg/metrics"
	"github.com/beanhouse/commerce/internal/port"
)

// CustomerService guards the retirement of soft-deleted customer rows. A row
// is physically removed only after the grace period has passed and no order,
// in any state, still references it.
type CustomerService struct {
	customers port.CustomerRepository
	orders    port.OrderRepository
	metrics   *metrics.CoreMetrics
	grace     time.Duration
}

func NewCustomerService(customers port.CustomerRepository, orders port.OrderRepository, m *metrics.CoreMetrics, grace time.Duration) *CustomerService {
	return &CustomerService{customers: customers, orders: orders, metrics: m, grace: grace}
}

func (s *CustomerService) Get(ctx context.Context, email string) (*domain.Customer, error) {
	c, err := s.customers.GetCustomer(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if c == nil {
		return nil, ErrCustomerNotFound
	}
	return c, nil
}

// MarkDeleted soft-deletes the customer. The row and its orders remain
// queryable until the purge retires them. Marking an already-deleted
// customer is a no-op.
func (s *CustomerService) MarkDeleted(ctx context.Context, email string) error {
	ok, err := s.customers.MarkDeleted(ctx, email, time.Now())
	if err != nil {
		return fmt.Errorf("mark deleted: %w", err)
	}
	if ok {
		log.Info().Str("customer", email).Msg("customer marked deleted")
		return nil
	}

	c, err := s.customers.GetCustomer(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup customer: %w", err)
	}
	if c == nil {
		return ErrCustomerNotFound
	}
	return nil
}

// PurgeDeletedCustomers removes customers soft-deleted longer ago than the
// grace period. A candidate with outstanding orders is skipped and recorded;
// the run continues with the remaining candidates. Returns the number of rows
// actually purged.
func (s *CustomerService) PurgeDeletedCustomers(ctx context.Context) (int, error) {
	threshold := time.Now().Add(-s.grace)

	targets, err := s.customers.FindPurgeTargets(ctx, threshold)
	if err != nil {
		return 0, fmt.Errorf("find purge targets: %w", err)
	}

	purged := 0
	for _, c := range targets {
		count, err := s.orders.CountOrdersByCustomer(ctx, c.Email)
		if err != nil {
			log.Error().Err(err).Str("customer", c.Email).Msg("purge: order count failed, skipping candidate")
			continue
		}
		if count > 0 {
			if s.metrics != nil {
				s.metrics.PurgeSkipped.Inc()
			}
			log.Warn().
				Str("customer", c.Email).
				Int64("outstanding_orders", count).
				Msg("purge: customer has outstanding orders, skipping")
			continue
		}

		if err := s.customers.DeleteCustomer(ctx, c.Email); err != nil {
			log.Error().Err(err).Str("customer", c.Email).Msg("purge: delete failed")
			continue
		}

		purged++
		if s.metrics != nil {
			s.metrics.PurgedCustomers.Inc()
		}
	}

	log.Info().Int("candidates", len(targets)).Int("purged", purged).Msg("customer purge done")
	return purged, nil
}
