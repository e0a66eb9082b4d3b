package model

import (
	"context"
	"errors"
)

var (
	ErrDecode           = errors.New("token decode error")
	ErrExpiredSignature = errors.New("token signature expired")
	ErrInvalidSignature = errors.New("token signature invalid")
)

// TokenValidator verifies a raw access token and returns its claims.
type TokenValidator interface {
	Validate(rawToken string) (Claims, error)
}

// RevocationChecker reports whether a token id has been blacklisted.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RevocationKey is the cache key a token id is stored under once revoked.
func RevocationKey(jti string) string {
	return "jti_" + jti
}
