package borrow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"library/internal/platform/postgres"

	"github.com/jackc/pgx/v5"
)

// PostgresRepo is the borrow ledger. It never opens or commits a transaction;
// bound to a pgx.Tx every statement joins the caller's unit of work.
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

const borrowColumns = `br.id, br.user_id, br.book_id, b.title, br.borrow_date, br.due_date, br.return_date`

func scanBorrow(row pgx.Row) (Borrow, error) {
	var b Borrow
	err := row.Scan(&b.ID, &b.UserID, &b.BookID, &b.BookTitle, &b.BorrowDate, &b.DueDate, &b.ReturnDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || postgres.IsInvalidText(err) {
			return Borrow{}, ErrNotFound
		}
		return Borrow{}, err
	}
	return b, nil
}

func (r *PostgresRepo) OpenCount(ctx context.Context, userID string) (int, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var n int
	err := r.db.QueryRow(timeoutCtx,
		"SELECT COUNT(*) FROM borrows WHERE user_id = $1 AND return_date IS NULL", userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count open borrows: %w", err)
	}
	return n, nil
}

func (r *PostgresRepo) Create(ctx context.Context, userID, bookID string, borrowDate, dueDate time.Time) (Borrow, error) {
	const query = `
	INSERT INTO borrows (user_id, book_id, borrow_date, due_date)
	VALUES ($1, $2, $3, $4)
	RETURNING id
	`
	b := Borrow{UserID: userID, BookID: bookID, BorrowDate: Date(borrowDate), DueDate: Date(dueDate)}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, query, userID, bookID, b.BorrowDate, b.DueDate).Scan(&b.ID); err != nil {
		return Borrow{}, fmt.Errorf("insert borrow: %w", err)
	}
	return b, nil
}

func (r *PostgresRepo) Find(ctx context.Context, id string) (Borrow, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanBorrow(r.db.QueryRow(timeoutCtx,
		"SELECT "+borrowColumns+" FROM borrows br JOIN books b ON b.id = br.book_id WHERE br.id = $1", id))
}

func (r *PostgresRepo) FindForUpdate(ctx context.Context, id string) (Borrow, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanBorrow(r.db.QueryRow(timeoutCtx,
		"SELECT "+borrowColumns+" FROM borrows br JOIN books b ON b.id = br.book_id WHERE br.id = $1 FOR UPDATE OF br", id))
}

// Close marks an open borrow returned. Only the first close of a borrow
// affects a row; later attempts report ErrAlreadyReturned.
func (r *PostgresRepo) Close(ctx context.Context, id string, returnDate time.Time) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx,
		"UPDATE borrows SET return_date = $2 WHERE id = $1 AND return_date IS NULL", id, Date(returnDate))
	if err != nil {
		return fmt.Errorf("close borrow: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(timeoutCtx, "SELECT EXISTS (SELECT 1 FROM borrows WHERE id = $1)", id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrAlreadyReturned
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID string, openOnly bool) ([]Borrow, error) {
	query := "SELECT " + borrowColumns + " FROM borrows br JOIN books b ON b.id = br.book_id WHERE br.user_id = $1"
	if openOnly {
		query += " AND br.return_date IS NULL"
	}
	query += " ORDER BY br.borrow_date DESC, br.id"

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Borrow{}
	for rows.Next() {
		b, err := scanBorrow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListDueOn returns the open borrows of active members falling due on day.
func (r *PostgresRepo) ListDueOn(ctx context.Context, day time.Time) ([]Due, error) {
	const query = `
	SELECT br.id, u.id, u.email, u.username, b.title, br.due_date
	FROM borrows br
	JOIN users u ON u.id = br.user_id
	JOIN books b ON b.id = br.book_id
	WHERE br.due_date = $1 AND br.return_date IS NULL AND u.is_active
	ORDER BY br.id
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, Date(day))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Due{}
	for rows.Next() {
		var d Due
		if err := rows.Scan(&d.BorrowID, &d.UserID, &d.Email, &d.Username, &d.BookTitle, &d.DueDate); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
