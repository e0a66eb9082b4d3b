package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/postkeeper-server/internal/apperror"
	"github.com/dtroode/postkeeper-server/internal/mocks"
	"github.com/dtroode/postkeeper-server/internal/model"
	"github.com/dtroode/postkeeper-server/internal/testutil"
)

func validClaims() model.Claims {
	now := time.Now().UTC()
	return model.Claims{
		ExpiresAt: now.Add(time.Hour),
		IssuedAt:  now,
		TokenID:   "jti-1",
		Subject:   model.Subject{ID: "user-1", Roles: []string{model.RolePostCreate}},
	}
}

func TestAuthenticator_Authenticate(t *testing.T) {
	t.Parallel()

	bearer := http.Header{"Authorization": {"Bearer tok"}}

	tests := []struct {
		name       string
		header     http.Header
		query      url.Values
		mode       Mode
		validate   bool
		validErr   error
		check      bool
		revoked    bool
		revokedErr error
		wantKind   apperror.Kind
		wantNil    bool
	}{
		{name: "strict no credential", mode: Strict, wantKind: apperror.KindNotAuthenticated},
		{name: "soft no credential", mode: Soft, wantNil: true},
		{name: "strict empty header", header: http.Header{"Authorization": {""}}, mode: Strict, wantKind: apperror.KindNotAuthenticated},
		{name: "soft empty header", header: http.Header{"Authorization": {""}}, mode: Soft, wantNil: true},
		{name: "strict malformed", header: http.Header{"Authorization": {"Token x"}}, mode: Strict, wantKind: apperror.KindNotAuthenticated},
		{name: "strict expired", header: bearer, mode: Strict, validate: true, validErr: model.ErrExpiredSignature, wantKind: apperror.KindInvalidToken},
		{name: "soft expired", header: bearer, mode: Soft, validate: true, validErr: model.ErrExpiredSignature, wantNil: true},
		{name: "strict bad signature", header: bearer, mode: Strict, validate: true, validErr: model.ErrInvalidSignature, wantKind: apperror.KindInvalidToken},
		{name: "strict revoked", header: bearer, mode: Strict, validate: true, check: true, revoked: true, wantKind: apperror.KindInvalidToken},
		{name: "soft revoked", header: bearer, mode: Soft, validate: true, check: true, revoked: true, wantNil: true},
		{name: "strict revocation unavailable", header: bearer, mode: Strict, validate: true, check: true, revokedErr: errors.New("connection refused"), wantKind: apperror.KindInvalidToken},
		{name: "soft revocation unavailable fails closed", header: bearer, mode: Soft, validate: true, check: true, revokedErr: errors.New("connection refused"), wantKind: apperror.KindInvalidToken},
		{name: "strict valid", header: bearer, mode: Strict, validate: true, check: true},
		{name: "soft valid via query", query: url.Values{"token": {"tok"}}, mode: Soft, validate: true, check: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lg := testutil.MakeNoopLogger()
			validator := mocks.NewTokenValidator(t)
			revocation := mocks.NewRevocationChecker(t)

			claims := validClaims()
			if tt.validate {
				if tt.validErr != nil {
					validator.On("Validate", "tok").Return(model.Claims{}, tt.validErr)
				} else {
					validator.On("Validate", "tok").Return(claims, nil)
				}
			}
			if tt.check {
				revocation.On("IsRevoked", mock.Anything, "jti-1").Return(tt.revoked, tt.revokedErr)
			}

			a := NewAuthenticator(NewCredentialExtractor(lg), validator, revocation, lg)
			principal, err := a.Authenticate(context.Background(), tt.header, tt.query, tt.mode)

			switch {
			case tt.wantKind != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperror.KindOf(err))
				assert.Nil(t, principal)
			case tt.wantNil:
				assert.NoError(t, err)
				assert.Nil(t, principal)
			default:
				require.NoError(t, err)
				require.NotNil(t, principal)
				assert.Equal(t, "user-1", principal.ID())
				assert.Equal(t, claims, principal.Claims)
			}
		})
	}
}
