package catalog

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a book, author or category does not exist.
	ErrNotFound = errors.New("catalog: not found")
	// ErrNoCopiesLeft is returned by DecrementAvailable when available_copies is already zero.
	ErrNoCopiesLeft = errors.New("catalog: no available copies")
	// ErrUnknownReference is returned when a book points at a missing author or category.
	ErrUnknownReference = errors.New("catalog: unknown author or category")
	ErrInvalidBook      = errors.New("catalog: invalid book")
	ErrDuplicateName    = errors.New("catalog: name already taken")
)

type Author struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Book is a title held by the library. AvailableCopies is owned by the
// lending workflow and always satisfies 0 <= AvailableCopies <= TotalCopies.
type Book struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	AuthorID        string    `json:"author_id"`
	AuthorName      string    `json:"author_name,omitempty"`
	CategoryID      string    `json:"category_id"`
	CategoryName    string    `json:"category_name,omitempty"`
	TotalCopies     uint      `json:"total_copies"`
	AvailableCopies uint      `json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewBook builds a book whose every copy is on the shelf.
func NewBook(title, description, authorID, categoryID string, totalCopies uint) (Book, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Book{}, errors.Join(ErrInvalidBook, errors.New("title is required"))
	}
	if authorID == "" || categoryID == "" {
		return Book{}, errors.Join(ErrInvalidBook, errors.New("author and category are required"))
	}
	return Book{
		Title:           title,
		Description:     description,
		AuthorID:        authorID,
		CategoryID:      categoryID,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
	}, nil
}

// Available reports whether at least one copy can be lent.
func (b Book) Available() bool {
	return b.AvailableCopies > 0
}

// Query defines filters and pagination for listing books.
type Query struct {
	AuthorID    string
	CategoryID  string
	Q           string
	OnlyInStock bool
	Limit       int
	Offset      int
}
