// Package reminder e-mails members whose borrows fall due. It runs outside
// the lending transactions and only reads the borrow ledger.
package reminder

import (
	"context"
	"fmt"
	"time"

	"library/internal/borrow"
)

// Notifier delivers one message to one recipient.
type Notifier interface {
	Notify(ctx context.Context, to, subject, body string) error
}

type DueSource interface {
	ListDueOn(ctx context.Context, day time.Time) ([]borrow.Due, error)
}

// DeliveryLog remembers which reminders went out on which day, so a sweep
// that is re-run for the same day sends nothing twice.
type DeliveryLog interface {
	Delivered(ctx context.Context, borrowID string, day time.Time) (bool, error)
	Record(ctx context.Context, borrowID string, day time.Time) error
}

// Report summarises one sweep.
type Report struct {
	Day     time.Time `json:"day"`
	Due     int       `json:"due"`
	Sent    int       `json:"sent"`
	Skipped int       `json:"skipped"`
	Failed  int       `json:"failed"`
}

func compose(d borrow.Due) (subject, body string) {
	subject = fmt.Sprintf("Reminder: %q is due today", d.BookTitle)
	body = fmt.Sprintf(
		"Hello %s,\n\n"+
			"\"%s\" is due back today (%s). Returning it after today adds a penalty point to your account.\n\n"+
			"Thank you,\nThe Library\n",
		d.Username, d.BookTitle, d.DueDate.Format(time.DateOnly),
	)
	return subject, body
}
