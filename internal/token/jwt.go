package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/postkeeper-server/internal/model"
)

var _ model.TokenValidator = (*JWT)(nil)

// Claims represents the JWT payload: registered claims plus the token subject.
type Claims struct {
	jwt.RegisteredClaims
	User model.Subject `json:"subject"`
}

// JWT validates and issues access tokens signed with symmetric HMAC.
type JWT struct {
	secretKey string
	issuer    string
	now       func() time.Time
}

// NewJWT creates a new JWT token manager with the provided secret key.
func NewJWT(secretKey, issuer string) *JWT {
	return &JWT{secretKey: secretKey, issuer: issuer, now: time.Now}
}

// Issue signs a token for subject valid for ttl and returns it with its claims.
func (j *JWT) Issue(subject model.Subject, ttl time.Duration) (string, model.Claims, error) {
	now := j.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		User: subject,
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.secretKey))
	if err != nil {
		return "", model.Claims{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, toModel(claims), nil
}

// Validate verifies signature, shape and expiry of tokenString.
// Errors wrap model.ErrDecode, model.ErrExpiredSignature or model.ErrInvalidSignature.
func (j *JWT) Validate(tokenString string) (model.Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return model.Claims{}, fmt.Errorf("%w: %w", model.ErrExpiredSignature, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return model.Claims{}, fmt.Errorf("%w: %w", model.ErrInvalidSignature, err)
		default:
			return model.Claims{}, fmt.Errorf("%w: %w", model.ErrDecode, err)
		}
	}

	// The parser already rejects expired tokens; exp is checked again against our own clock.
	if !claims.ExpiresAt.Time.After(j.now()) {
		return model.Claims{}, fmt.Errorf("%w: token expired at %s", model.ErrExpiredSignature, claims.ExpiresAt.Time)
	}
	if claims.IssuedAt == nil {
		return model.Claims{}, fmt.Errorf("%w: missing iat", model.ErrDecode)
	}
	if claims.ID == "" {
		return model.Claims{}, fmt.Errorf("%w: missing jti", model.ErrDecode)
	}
	if claims.User.ID == "" {
		return model.Claims{}, fmt.Errorf("%w: missing subject id", model.ErrDecode)
	}

	return toModel(*claims), nil
}

func toModel(c Claims) model.Claims {
	return model.Claims{
		ExpiresAt: c.ExpiresAt.Time.UTC(),
		IssuedAt:  c.IssuedAt.Time.UTC(),
		Issuer:    c.Issuer,
		TokenID:   c.ID,
		Subject:   c.User,
	}
}
