package user

import (
	"context"
	"errors"
	"strings"

	"library/internal/platform/crypto"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates an active, non-staff member with a zero penalty balance.
func (s *Service) Register(ctx context.Context, email, username, password string) (User, error) {
	email = NormalizeEmail(email)

	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return User{}, ErrAlreadyExists
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return User{}, err
	}

	newUser := &User{
		Email:        email,
		Username:     strings.TrimSpace(username),
		PasswordHash: hash,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, newUser); err != nil {
		return User{}, err
	}

	return *newUser, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.GetByEmail(ctx, NormalizeEmail(email))
}

func (s *Service) ListActive(ctx context.Context) ([]User, error) {
	return s.repo.ListActive(ctx)
}
