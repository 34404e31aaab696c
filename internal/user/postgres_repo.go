package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"library/internal/platform/postgres"

	"github.com/jackc/pgx/v5"
)

type PostgresRepo struct {
	db      postgres.DBTX
	timeout time.Duration
}

func NewPostgresRepo(db postgres.DBTX, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

const userColumns = `id, email, username, password_hash, penalty_point, is_active, is_staff, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.PenaltyPoint,
		&u.IsActive, &u.IsStaff, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || postgres.IsInvalidText(err) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepo) Create(ctx context.Context, u *User) error {
	const query = `
	INSERT INTO users (email, username, password_hash, is_active, is_staff)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, penalty_point, created_at, updated_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, u.Email, u.Username, u.PasswordHash, u.IsActive, u.IsStaff).
		Scan(&u.ID, &u.PenaltyPoint, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if _, ok := postgres.IsUniqueViolation(err); ok {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanUser(r.db.QueryRow(timeoutCtx, "SELECT "+userColumns+" FROM users WHERE email = $1 LIMIT 1", email))
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (User, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanUser(r.db.QueryRow(timeoutCtx, "SELECT "+userColumns+" FROM users WHERE id = $1 LIMIT 1", id))
}

// GetForUpdate reads a member and holds its row lock for the rest of the
// transaction. Borrowing takes this lock first so one member's concurrent
// requests queue up behind each other.
func (r *PostgresRepo) GetForUpdate(ctx context.Context, id string) (User, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanUser(r.db.QueryRow(timeoutCtx, "SELECT "+userColumns+" FROM users WHERE id = $1 FOR UPDATE", id))
}

func (r *PostgresRepo) IncrementPenalty(ctx context.Context, id string) error {
	const query = `UPDATE users SET penalty_point = penalty_point + 1, updated_at = now() WHERE id = $1`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, query, id)
	if err != nil {
		return fmt.Errorf("increment penalty: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) ListActive(ctx context.Context) ([]User, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, "SELECT "+userColumns+" FROM users WHERE is_active ORDER BY username")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
