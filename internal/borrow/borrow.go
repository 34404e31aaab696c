package borrow

import (
	"errors"
	"time"
)

// LoanDays is the loan period. A borrow is due LoanDays calendar days after it starts.
const LoanDays = 14

var (
	ErrNotFound        = errors.New("borrow: not found")
	ErrAlreadyReturned = errors.New("borrow: already returned")
)

// Borrow is one copy lent to one member. It starts open and becomes terminal
// once ReturnDate is set. All dates are UTC calendar dates.
type Borrow struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	BookID     string     `json:"book_id"`
	BookTitle  string     `json:"book_title,omitempty"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
}

func (b Borrow) Open() bool {
	return b.ReturnDate == nil
}

// LateOn reports whether returning on day incurs a penalty. Returning on the
// due date itself is on time.
func (b Borrow) LateOn(day time.Time) bool {
	return Date(day).After(Date(b.DueDate))
}

// DueFor returns the due date of a borrow started on borrowDate.
func DueFor(borrowDate time.Time) time.Time {
	return Date(borrowDate).AddDate(0, 0, LoanDays)
}

// Date truncates t to midnight UTC of its UTC calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Due is an open borrow joined with what a reminder needs to address the member.
type Due struct {
	BorrowID  string
	UserID    string
	Email     string
	Username  string
	BookTitle string
	DueDate   time.Time
}
