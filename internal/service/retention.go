package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"whereabouts/internal/domain"
)

// RetentionSweeper deletes location samples older than the configured
// TTL on a cron schedule.
type RetentionSweeper struct {
	locations domain.LocationRepository
	ttl       time.Duration
	cron      *cron.Cron
	logger    *slog.Logger
}

func NewRetentionSweeper(locations domain.LocationRepository, ttl time.Duration, logger *slog.Logger) *RetentionSweeper {
	return &RetentionSweeper{
		locations: locations,
		ttl:       ttl,
		cron:      cron.New(),
		logger:    logger,
	}
}

// Start registers the sweep on the given cron schedule and starts the
// scheduler.
func (s *RetentionSweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return domain.ErrValidation("invalid retention schedule %q: %v", schedule, err)
	}
	s.cron.Start()
	s.logger.Info("retention sweeper started", "schedule", schedule, "ttl", s.ttl)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *RetentionSweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("retention sweeper stopped")
}

func (s *RetentionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-s.ttl).UnixMilli()
	n, err := s.locations.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Warn("retention sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("retention sweep removed stale samples", "count", n)
	}
}

// Sweep runs one sweep immediately, outside the schedule. The CLI uses
// it for manual cleanup.
func (s *RetentionSweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.ttl).UnixMilli()
	return s.locations.DeleteOlderThan(ctx, cutoff)
}
