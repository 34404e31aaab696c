package catalog

import (
	"context"
	"strings"
)

// Service exposes read access and staff-only creation for the catalog.
// Copy counts are never edited here; the lending workflow owns them.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetBook(ctx context.Context, id string) (Book, error) {
	return s.repo.GetBook(ctx, id)
}

func (s *Service) ListBooks(ctx context.Context, q Query) ([]Book, int, error) {
	return s.repo.ListBooks(ctx, q)
}

// CreateBook adds a title with every copy available.
func (s *Service) CreateBook(ctx context.Context, title, description, authorID, categoryID string, totalCopies uint) (Book, error) {
	b, err := NewBook(title, description, authorID, categoryID, totalCopies)
	if err != nil {
		return Book{}, err
	}
	if err := s.repo.CreateBook(ctx, &b); err != nil {
		return Book{}, err
	}
	return b, nil
}

func (s *Service) ListAuthors(ctx context.Context) ([]Author, error) {
	return s.repo.ListAuthors(ctx)
}

func (s *Service) CreateAuthor(ctx context.Context, name, bio string) (Author, error) {
	a := Author{Name: strings.TrimSpace(name), Bio: strings.TrimSpace(bio)}
	if err := s.repo.CreateAuthor(ctx, &a); err != nil {
		return Author{}, err
	}
	return a, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, name string) (Category, error) {
	c := Category{Name: strings.TrimSpace(name)}
	if err := s.repo.CreateCategory(ctx, &c); err != nil {
		return Category{}, err
	}
	return c, nil
}
