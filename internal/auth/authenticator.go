package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/dtroode/postkeeper-server/internal/apperror"
	"github.com/dtroode/postkeeper-server/internal/logger"
	"github.com/dtroode/postkeeper-server/internal/model"
)

// Mode selects how the Authenticator reacts to a missing or rejected credential.
type Mode int

const (
	// Strict fails the request with a typed error.
	Strict Mode = iota
	// Soft lets the request proceed without a principal.
	Soft
)

func (m Mode) String() string {
	if m == Soft {
		return "soft"
	}
	return "strict"
}

// Authenticator turns request credentials into a principal.
type Authenticator struct {
	extractor  *CredentialExtractor
	validator  model.TokenValidator
	revocation model.RevocationChecker
	logger     *logger.Logger
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(
	extractor *CredentialExtractor,
	validator model.TokenValidator,
	revocation model.RevocationChecker,
	logger *logger.Logger,
) *Authenticator {
	return &Authenticator{
		extractor:  extractor,
		validator:  validator,
		revocation: revocation,
		logger:     logger,
	}
}

// Authenticate resolves the request principal.
//
// In Soft mode a missing, malformed, invalid or revoked credential yields a nil
// principal and a nil error. A failed revocation lookup is always an InvalidToken
// error, whatever the mode.
func (a *Authenticator) Authenticate(ctx context.Context, header http.Header, query url.Values, mode Mode) (*model.Principal, error) {
	cred, err := a.extractor.Extract(header, query)
	if err != nil {
		if mode == Soft {
			return nil, nil
		}
		reason := "missing authorization"
		if errors.Is(err, model.ErrCredentialMalformed) {
			reason = err.Error()
		}
		return nil, apperror.NewErrMissingCredentials(reason)
	}

	claims, err := a.validator.Validate(cred.Value)
	if err != nil {
		a.logger.Debug("Authenticator: token rejected", "error", err, "mode", mode.String())
		if mode == Soft {
			return nil, nil
		}
		return nil, apperror.NewErrInvalidToken()
	}

	revoked, err := a.revocation.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		a.logger.Error("Authenticator: revocation check failed",
			"jti", claims.TokenID,
			"subject", claims.Subject.ID,
			"error", err)
		return nil, apperror.NewErrInvalidToken()
	}
	if revoked {
		a.logger.Info("Authenticator: revoked token presented", "jti", claims.TokenID, "subject", claims.Subject.ID)
		if mode == Soft {
			return nil, nil
		}
		return nil, apperror.NewErrInvalidToken()
	}

	return &model.Principal{Claims: claims}, nil
}
