package auth

import (
	"context"
	"errors"
	"time"

	"library/internal/platform/crypto"
	"library/internal/user"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInactive is returned for a correct password on a deactivated account.
	ErrInactive = errors.New("account is inactive")
)

type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type Service struct {
	secret string
	ttl    time.Duration
	users  UserFinder
}

func NewService(secret string, ttl time.Duration, users UserFinder) *Service {
	return &Service{secret: secret, ttl: ttl, users: users}
}

// Login checks the credentials and returns a signed access token with its
// lifetime in seconds.
func (s *Service) Login(ctx context.Context, email, password string) (string, int, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", 0, ErrUnauthorized
		}
		return "", 0, err
	}
	if !crypto.VerifyPassword(u.PasswordHash, password) {
		return "", 0, ErrUnauthorized
	}
	if !u.IsActive {
		return "", 0, ErrInactive
	}

	token, err := crypto.GenerateToken(s.secret, u.ID, u.IsStaff, s.ttl)
	if err != nil {
		return "", 0, err
	}
	return token, int(s.ttl.Seconds()), nil
}
