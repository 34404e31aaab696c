package reminder

import (
	"context"
	"log/slog"
	"time"
)

type Scheduler struct {
	sweeper  *Sweeper
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewScheduler(sweeper *Sweeper, interval time.Duration, now func() time.Time, logger *slog.Logger) *Scheduler {
	if now == nil {
		now = time.Now
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{sweeper: sweeper, interval: interval, now: now, logger: logger}
}

// Run sweeps once immediately and then every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.sweeper.Sweep(ctx, s.now()); err != nil && ctx.Err() == nil {
			s.logger.ErrorContext(ctx, "reminder sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
