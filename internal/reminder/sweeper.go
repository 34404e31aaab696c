package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"library/internal/borrow"
)

type Sweeper struct {
	due      DueSource
	log      DeliveryLog
	notifier Notifier
	logger   *slog.Logger
}

func NewSweeper(due DueSource, deliveries DeliveryLog, notifier Notifier, logger *slog.Logger) *Sweeper {
	return &Sweeper{due: due, log: deliveries, notifier: notifier, logger: logger}
}

// Sweep reminds every member with an open borrow due on day. A failed
// delivery is logged and counted and the sweep moves on; it is retried by
// the next sweep of the same day.
func (s *Sweeper) Sweep(ctx context.Context, day time.Time) (Report, error) {
	day = borrow.Date(day)
	report := Report{Day: day}

	due, err := s.due.ListDueOn(ctx, day)
	if err != nil {
		return report, fmt.Errorf("list due borrows: %w", err)
	}
	report.Due = len(due)

	for _, d := range due {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		done, err := s.log.Delivered(ctx, d.BorrowID, day)
		if err != nil {
			report.Failed++
			s.logger.ErrorContext(ctx, "reminder lookup failed", "borrow_id", d.BorrowID, "error", err)
			continue
		}
		if done {
			report.Skipped++
			continue
		}

		subject, body := compose(d)
		if err := s.notifier.Notify(ctx, d.Email, subject, body); err != nil {
			report.Failed++
			s.logger.WarnContext(ctx, "reminder not sent", "borrow_id", d.BorrowID, "user_id", d.UserID, "error", err)
			continue
		}

		if err := s.log.Record(ctx, d.BorrowID, day); err != nil {
			// The mail is out; a failed record only risks a duplicate on the next sweep.
			s.logger.ErrorContext(ctx, "reminder sent but not recorded", "borrow_id", d.BorrowID, "error", err)
		}
		report.Sent++
	}

	s.logger.InfoContext(ctx, "reminder sweep finished",
		"day", day.Format(time.DateOnly), "due", report.Due, "sent", report.Sent,
		"skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}
