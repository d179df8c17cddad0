package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/beanhouse/commerce/internal/pkg/metrics"
	"github.com/beanhouse/commerce/internal/port"
)

// BatchService advances pending orders through the daily settlement window.
// The sweep is a single conditional bulk update, so it is idempotent and
// all-or-nothing; a failed run is simply retried on the next tick.
type BatchService struct {
	orders     port.OrderRepository
	metrics    *metrics.CoreMetrics
	cutoffHour int
}

func NewBatchService(orders port.OrderRepository, m *metrics.CoreMetrics, cutoffHour int) *BatchService {
	return &BatchService{orders: orders, metrics: m, cutoffHour: cutoffHour}
}

// SettlementWindow returns the daily window ending at now's date at the
// cutoff hour and starting at the same wall-clock hour the previous day.
// Calendar-day arithmetic keeps both edges on the cutoff hour across DST
// shifts. Both the sweep and the pending-count diagnostic use this one
// function so they can never drift apart.
func (s *BatchService) SettlementWindow(now time.Time) (start, end time.Time) {
	y, m, d := now.Date()
	end = time.Date(y, m, d, s.cutoffHour, 0, 0, 0, now.Location())
	start = time.Date(y, m, d-1, s.cutoffHour, 0, 0, 0, now.Location())
	return start, end
}

// RunScheduled sweeps the window derived from now. Intended to be driven by
// the daily cutoff tick.
func (s *BatchService) RunScheduled(ctx context.Context, now time.Time) (int64, error) {
	start, end := s.SettlementWindow(now)
	return s.RunRange(ctx, start, end)
}

// RunRange sweeps an explicit [start, end) window. Operator reprocessing and
// tests use this directly.
func (s *BatchService) RunRange(ctx context.Context, start, end time.Time) (int64, error) {
	log.Info().Time("start", start).Time("end", end).Msg("settlement sweep starting")

	count, err := s.orders.SettleOrders(ctx, start, end)
	if err != nil {
		log.Error().Err(err).Msg("settlement sweep failed")
		return 0, fmt.Errorf("settlement sweep: %w", err)
	}

	if s.metrics != nil {
		s.metrics.SettlementRuns.Inc()
		s.metrics.OrdersSettled.Add(float64(count))
	}
	log.Info().Int64("settled", count).Msg("settlement sweep done")
	return count, nil
}

// PendingCount reports how many pending orders sit in the current window. An
// operational estimate for dashboards, not an authoritative pre-read of the
// next sweep.
func (s *BatchService) PendingCount(ctx context.Context, now time.Time) (int64, error) {
	start, end := s.SettlementWindow(now)
	count, err := s.orders.CountPendingInRange(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("count pending: %w", err)
	}
	return count, nil
}
