package lending

import (
	"context"
	"time"

	"library/internal/borrow"
	"library/internal/catalog"
	"library/internal/user"
)

//go:generate mockgen -source=ports.go -destination=mock_ports_test.go -package=lending

type Books interface {
	GetBookForUpdate(ctx context.Context, id string) (catalog.Book, error)
	DecrementAvailable(ctx context.Context, bookID string) error
	IncrementAvailable(ctx context.Context, bookID string) error
}

type Borrows interface {
	OpenCount(ctx context.Context, userID string) (int, error)
	Create(ctx context.Context, userID, bookID string, borrowDate, dueDate time.Time) (borrow.Borrow, error)
	FindForUpdate(ctx context.Context, id string) (borrow.Borrow, error)
	Close(ctx context.Context, id string, returnDate time.Time) error
	ListByUser(ctx context.Context, userID string, openOnly bool) ([]borrow.Borrow, error)
}

type Members interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	GetForUpdate(ctx context.Context, id string) (user.User, error)
	IncrementPenalty(ctx context.Context, id string) error
}

// Stores groups the repositories one unit of work operates on.
type Stores struct {
	Books   Books
	Borrows Borrows
	Members Members
}

// TxRunner hands out Stores. InTx binds them to a single transaction that
// commits when fn returns nil and rolls back otherwise; concurrency failures
// surface as ErrConflict. Read returns Stores for plain reads outside any
// transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(Stores) error) error
	Read() Stores
}
