package transport

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token failures are reported to the client verbatim.
var (
	ErrTokenInvalid = errors.New("invalid or expired token")
	ErrTokenClaims  = errors.New("token is missing identity claims")
)

// Claims is the bearer token payload. Subject carries the user id, Name the
// display name.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// ResolveToken validates a bearer token and returns the user id and display
// name it carries.
func (a *Authenticator) ResolveToken(token string) (userID, name string, err error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", "", ErrTokenInvalid
	}
	if claims.Subject == "" || claims.Name == "" {
		return "", "", ErrTokenClaims
	}
	return claims.Subject, claims.Name, nil
}

// MintToken issues a signed token for the given identity. Used by the login
// path and by tests.
func (a *Authenticator) MintToken(userID, name string, ttl time.Duration) (string, error) {
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
