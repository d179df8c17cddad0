package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/beanhouse/commerce/internal/core/service"
)

// Scheduler drives the two batch entry points on independent timers. It holds
// no state of its own beyond the cadence configuration; all effects live in
// the services it calls.
type Scheduler struct {
	batch         *service.BatchService
	customers     *service.CustomerService
	cutoffHour    int
	purgeInterval time.Duration
}

func New(batch *service.BatchService, customers *service.CustomerService, cutoffHour int, purgeInterval time.Duration) *Scheduler {
	return &Scheduler{
		batch:         batch,
		customers:     customers,
		cutoffHour:    cutoffHour,
		purgeInterval: purgeInterval,
	}
}

// StartSettlementLoop fires once a day at the cutoff hour until ctx is done.
// A failed sweep is not retried within the day; the next tick is the
// recovery path.
func (s *Scheduler) StartSettlementLoop(ctx context.Context) {
	log.Info().Int("cutoff_hour", s.cutoffHour).Msg("settlement loop started")

	for {
		next := NextCutoff(time.Now(), s.cutoffHour)
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info().Msg("settlement loop stopped")
			return
		case now := <-timer.C:
			if _, err := s.batch.RunScheduled(ctx, now); err != nil {
				log.Error().Err(err).Msg("scheduled settlement failed, will retry next tick")
			}
		}
	}
}

// StartPurgeLoop runs the customer purge on a fixed cadence until ctx is done.
func (s *Scheduler) StartPurgeLoop(ctx context.Context) {
	log.Info().Dur("interval", s.purgeInterval).Msg("purge loop started")

	ticker := time.NewTicker(s.purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("purge loop stopped")
			return
		case <-ticker.C:
			if _, err := s.customers.PurgeDeletedCustomers(ctx); err != nil {
				log.Error().Err(err).Msg("scheduled purge failed, will retry next tick")
			}
		}
	}
}

// NextCutoff returns the first instant strictly after now that falls on the
// cutoff hour. Rolling the calendar day rather than adding 24 hours keeps
// the tick on the cutoff hour across DST shifts.
func NextCutoff(now time.Time, hour int) time.Time {
	y, m, d := now.Date()
	next := time.Date(y, m, d, hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(y, m, d+1, hour, 0, 0, 0, now.Location())
	}
	return next
}
