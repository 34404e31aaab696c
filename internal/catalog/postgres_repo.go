package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"library/internal/platform/postgres"

	"github.com/jackc/pgx/v5"
)

// PostgresRepo stores the catalog in Postgres. Bound to a pgx.Tx it takes
// part in the caller's transaction.
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

const bookColumns = `
	b.id, b.title, b.description, b.author_id, a.name, b.category_id, c.name,
	b.total_copies, b.available_copies, b.created_at, b.updated_at`

const bookFrom = `
	FROM books b
	JOIN authors a ON a.id = b.author_id
	JOIN categories c ON c.id = b.category_id`

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Description, &b.AuthorID, &b.AuthorName, &b.CategoryID, &b.CategoryName,
		&b.TotalCopies, &b.AvailableCopies, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || postgres.IsInvalidText(err) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

func (r *PostgresRepo) GetBook(ctx context.Context, id string) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanBook(r.db.QueryRow(timeoutCtx, "SELECT"+bookColumns+bookFrom+" WHERE b.id = $1", id))
}

// GetBookForUpdate reads a book and locks its row until the surrounding
// transaction ends, serialising concurrent borrowers of the same title.
func (r *PostgresRepo) GetBookForUpdate(ctx context.Context, id string) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanBook(r.db.QueryRow(timeoutCtx, "SELECT"+bookColumns+bookFrom+" WHERE b.id = $1 FOR UPDATE OF b", id))
}

func (r *PostgresRepo) DecrementAvailable(ctx context.Context, bookID string) error {
	const query = `
		UPDATE books
		SET available_copies = available_copies - 1, updated_at = now()
		WHERE id = $1 AND available_copies > 0`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, query, bookID)
	if err != nil {
		return fmt.Errorf("decrement available copies: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOr(ctx, bookID, ErrNoCopiesLeft)
	}
	return nil
}

// IncrementAvailable puts one copy back on the shelf, never exceeding total_copies.
func (r *PostgresRepo) IncrementAvailable(ctx context.Context, bookID string) error {
	const query = `
		UPDATE books
		SET available_copies = LEAST(available_copies + 1, total_copies), updated_at = now()
		WHERE id = $1`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, query, bookID)
	if err != nil {
		return fmt.Errorf("increment available copies: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) missingOr(ctx context.Context, bookID string, otherwise error) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var exists bool
	if err := r.db.QueryRow(timeoutCtx, "SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)", bookID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return otherwise
}

func (r *PostgresRepo) ListBooks(ctx context.Context, q Query) ([]Book, int, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if q.AuthorID != "" {
		clauses = append(clauses, fmt.Sprintf("b.author_id = $%d", argn))
		args = append(args, q.AuthorID)
		argn++
	}

	if q.CategoryID != "" {
		clauses = append(clauses, fmt.Sprintf("b.category_id = $%d", argn))
		args = append(args, q.CategoryID)
		argn++
	}

	if q.Q != "" {
		clauses = append(clauses, fmt.Sprintf("(b.title ILIKE $%d OR a.name ILIKE $%d)", argn, argn))
		args = append(args, "%"+q.Q+"%")
		argn++
	}

	if q.OnlyInStock {
		clauses = append(clauses, "b.available_copies > 0")
	}

	where := " WHERE " + strings.Join(clauses, " AND ")

	var total int
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, "SELECT COUNT(*)"+bookFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := fmt.Sprintf("SELECT%s%s%s ORDER BY b.title ASC, b.id ASC LIMIT $%d OFFSET $%d",
		bookColumns, bookFrom, where, argn, argn+1)
	argsWithPage := append(append([]any{}, args...), q.Limit, q.Offset)

	rows, err := r.db.Query(timeoutCtx, dataSQL, argsWithPage...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) CreateBook(ctx context.Context, b *Book) error {
	const query = `
		INSERT INTO books (title, description, author_id, category_id, total_copies, available_copies)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, b.Title, b.Description, b.AuthorID, b.CategoryID, b.TotalCopies, b.AvailableCopies).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return ErrUnknownReference
		}
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (r *PostgresRepo) ListAuthors(ctx context.Context) ([]Author, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, "SELECT id, name, bio, created_at FROM authors ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Author{}
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.ID, &a.Name, &a.Bio, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CreateAuthor(ctx context.Context, a *Author) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.QueryRow(timeoutCtx,
		"INSERT INTO authors (name, bio) VALUES ($1, $2) RETURNING id, created_at",
		a.Name, a.Bio,
	).Scan(&a.ID, &a.CreatedAt)
}

func (r *PostgresRepo) ListCategories(ctx context.Context) ([]Category, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, "SELECT id, name, created_at FROM categories ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CreateCategory(ctx context.Context, c *Category) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx,
		"INSERT INTO categories (name) VALUES ($1) RETURNING id, created_at",
		c.Name,
	).Scan(&c.ID, &c.CreatedAt)
	if _, ok := postgres.IsUniqueViolation(err); ok {
		return ErrDuplicateName
	}
	return err
}
