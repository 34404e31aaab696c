// Package lending implements the borrow and return workflow. It owns the
// available copy counts, the open borrow limit and penalty accrual.
package lending

import (
	"errors"
)

// MaxOpenBorrows is how many unreturned books one member may hold at once.
const MaxOpenBorrows = 3

var (
	ErrNotFound        = errors.New("lending: not found")
	ErrLimitReached    = errors.New("lending: open borrow limit reached")
	ErrUnavailable     = errors.New("lending: no copies available")
	ErrAlreadyReturned = errors.New("lending: borrow already returned")
	ErrForbidden       = errors.New("lending: forbidden")
	// ErrConflict is a transient concurrency failure. The operation had no
	// effect and may be retried by the caller.
	ErrConflict = errors.New("lending: concurrent update conflict")
)

// Identity is the authenticated caller on whose behalf an operation runs.
type Identity struct {
	UserID  string
	IsStaff bool
}

type ReturnResult struct {
	Returned bool `json:"returned"`
	Late     bool `json:"late"`
}

type Penalties struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	PenaltyPoint uint   `json:"penalty_point"`
}
