package catalog

import (
	"context"
)

// Repository defines the contract for catalog storage.
type Repository interface {
	GetBook(ctx context.Context, id string) (Book, error)
	ListBooks(ctx context.Context, q Query) ([]Book, int, error)
	CreateBook(ctx context.Context, b *Book) error
	ListAuthors(ctx context.Context) ([]Author, error)
	CreateAuthor(ctx context.Context, a *Author) error
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, c *Category) error
}
