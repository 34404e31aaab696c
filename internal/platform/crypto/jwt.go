package crypto

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is stamped on every access token and required when parsing.
const Issuer = "library"

type Claims struct {
	Sub   string `json:"sub"`   // user id
	Staff bool   `json:"staff"` // staff members may read other users' penalties and edit the catalog
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 access token for userID valid for ttl.
func GenerateToken(secret, userID string, staff bool, ttl time.Duration) (string, error) {
	now := time.Now()
	c := Claims{
		Sub:   userID,
		Staff: staff,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

func ParseToken(secret, tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Sub == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
