package user

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("user: not found")
	ErrAlreadyExists = errors.New("user: email or username already taken")
)

// User is a library member. PenaltyPoint only ever grows: one point per late return.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	PenaltyPoint uint      `json:"penalty_point"`
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeEmail trims the address and lower-cases its domain part.
// The local part is left alone since some mail servers treat it as case sensitive.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
