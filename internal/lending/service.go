package lending

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"library/internal/borrow"
	"library/internal/catalog"
	"library/internal/platform/postgres"
	"library/internal/user"
)

type Service struct {
	tx     TxRunner
	now    func() time.Time
	retry  RetryPolicy
	logger *slog.Logger
}

type Option func(*Service)

// WithClock replaces time.Now. Only the UTC calendar date of the result is used.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *Service) { s.retry = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(tx TxRunner, opts ...Option) *Service {
	s := &Service{
		tx:     tx,
		now:    time.Now,
		retry:  DefaultRetryPolicy(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() time.Time {
	return borrow.Date(s.now())
}

func (s *Service) logRetry(op string) func(int, error) {
	return func(attempt int, err error) {
		s.logger.Warn("retrying after conflict", "op", op, "attempt", attempt, "error", err)
	}
}

// BorrowBook lends one copy of bookID to the caller, due LoanDays from today.
//
// The member row is locked before the book row, so two requests from one
// member cannot both pass the limit check and two members cannot both take
// the last copy.
func (s *Service) BorrowBook(ctx context.Context, id Identity, bookID string) (borrow.Borrow, error) {
	today := s.today()
	var out borrow.Borrow

	err := s.retry.run(ctx, s.logRetry("borrow"), func(ctx context.Context) error {
		return s.tx.InTx(ctx, func(st Stores) error {
			if _, err := st.Members.GetForUpdate(ctx, id.UserID); err != nil {
				return translate(err)
			}

			book, err := st.Books.GetBookForUpdate(ctx, bookID)
			if err != nil {
				return translate(err)
			}

			open, err := st.Borrows.OpenCount(ctx, id.UserID)
			if err != nil {
				return err
			}
			if open >= MaxOpenBorrows {
				return ErrLimitReached
			}

			if !book.Available() {
				return ErrUnavailable
			}
			if err := st.Books.DecrementAvailable(ctx, book.ID); err != nil {
				return translate(err)
			}

			b, err := st.Borrows.Create(ctx, id.UserID, book.ID, today, borrow.DueFor(today))
			if err != nil {
				return err
			}
			b.BookTitle = book.Title
			out = b
			return nil
		})
	})
	if err != nil {
		return borrow.Borrow{}, err
	}

	s.logger.InfoContext(ctx, "book borrowed",
		"borrow_id", out.ID, "user_id", id.UserID, "book_id", bookID, "due_date", out.DueDate.Format(time.DateOnly))
	return out, nil
}

// ReturnBook closes an open borrow, puts the copy back and charges one
// penalty point when today is past the due date. Members may only return
// their own borrows; staff may return any.
func (s *Service) ReturnBook(ctx context.Context, id Identity, borrowID string) (ReturnResult, error) {
	today := s.today()
	var late bool

	err := s.retry.run(ctx, s.logRetry("return"), func(ctx context.Context) error {
		return s.tx.InTx(ctx, func(st Stores) error {
			b, err := st.Borrows.FindForUpdate(ctx, borrowID)
			if err != nil {
				return translate(err)
			}
			if !id.IsStaff && b.UserID != id.UserID {
				return ErrNotFound
			}
			if !b.Open() {
				return ErrAlreadyReturned
			}

			if err := st.Borrows.Close(ctx, b.ID, today); err != nil {
				return translate(err)
			}

			late = b.LateOn(today)
			if late {
				if err := st.Members.IncrementPenalty(ctx, b.UserID); err != nil {
					return translate(err)
				}
			}

			return translate(st.Books.IncrementAvailable(ctx, b.BookID))
		})
	})
	if err != nil {
		return ReturnResult{}, err
	}

	s.logger.InfoContext(ctx, "book returned", "borrow_id", borrowID, "user_id", id.UserID, "late", late)
	return ReturnResult{Returned: true, Late: late}, nil
}

// GetPenalties reports a member's penalty balance. Members see their own;
// staff see anyone's.
func (s *Service) GetPenalties(ctx context.Context, id Identity, userID string) (Penalties, error) {
	if !id.IsStaff && id.UserID != userID {
		return Penalties{}, ErrForbidden
	}

	u, err := s.tx.Read().Members.GetByID(ctx, userID)
	if err != nil {
		return Penalties{}, translate(err)
	}
	return Penalties{UserID: u.ID, Username: u.Username, PenaltyPoint: u.PenaltyPoint}, nil
}

// ListBorrows returns the caller's borrows, newest first.
func (s *Service) ListBorrows(ctx context.Context, id Identity, openOnly bool) ([]borrow.Borrow, error) {
	return s.tx.Read().Borrows.ListByUser(ctx, id.UserID, openOnly)
}

// translate maps store errors onto the lending taxonomy. Unknown errors are
// wrapped unchanged.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, borrow.ErrNotFound), errors.Is(err, user.ErrNotFound),
		postgres.IsInvalidText(err):
		return ErrNotFound
	case errors.Is(err, catalog.ErrNoCopiesLeft):
		return ErrUnavailable
	case errors.Is(err, borrow.ErrAlreadyReturned):
		return ErrAlreadyReturned
	}
	return fmt.Errorf("lending store: %w", err)
}
