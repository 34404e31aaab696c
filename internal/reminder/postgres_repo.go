package reminder

import (
	"context"
	"time"

	"library/internal/borrow"
	"library/internal/platform/postgres"
)

// PostgresDeliveryLog stores deliveries in reminder_deliveries.
type PostgresDeliveryLog struct {
	db      postgres.DBTX
	timeout time.Duration
}

func NewPostgresDeliveryLog(db postgres.DBTX, timeout time.Duration) *PostgresDeliveryLog {
	return &PostgresDeliveryLog{db: db, timeout: timeout}
}

func (r *PostgresDeliveryLog) Delivered(ctx context.Context, borrowID string, day time.Time) (bool, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var exists bool
	err := r.db.QueryRow(timeoutCtx,
		"SELECT EXISTS (SELECT 1 FROM reminder_deliveries WHERE borrow_id = $1 AND sent_on = $2)",
		borrowID, borrow.Date(day),
	).Scan(&exists)
	return exists, err
}

func (r *PostgresDeliveryLog) Record(ctx context.Context, borrowID string, day time.Time) error {
	const sql = `
		INSERT INTO reminder_deliveries (borrow_id, sent_on)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	_, err := r.db.Exec(timeoutCtx, sql, borrowID, borrow.Date(day))
	return err
}
