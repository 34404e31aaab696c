package lending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"library/internal/borrow"
	"library/internal/catalog"
	"library/internal/platform/postgres"
	"library/internal/user"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresTxRunner runs units of work as READ COMMITTED transactions.
// Correctness comes from the row locks the stores take, not from the
// isolation level.
type PostgresTxRunner struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresTxRunner(pool *pgxpool.Pool, timeout time.Duration) *PostgresTxRunner {
	return &PostgresTxRunner{pool: pool, timeout: timeout}
}

func (r *PostgresTxRunner) stores(db postgres.DBTX) Stores {
	return Stores{
		Books:   catalog.NewPostgresRepo(db, r.timeout),
		Borrows: borrow.NewPostgresRepo(db, r.timeout),
		Members: user.NewPostgresRepo(db, r.timeout),
	}
}

func (r *PostgresTxRunner) InTx(ctx context.Context, fn func(Stores) error) error {
	err := postgres.InTx(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(r.stores(tx))
	})
	if err != nil && errors.Is(err, postgres.ErrConflict) && !errors.Is(err, ErrConflict) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

func (r *PostgresTxRunner) Read() Stores {
	return r.stores(r.pool)
}
