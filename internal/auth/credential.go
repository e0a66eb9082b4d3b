package auth

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/dtroode/postkeeper-server/internal/logger"
	"github.com/dtroode/postkeeper-server/internal/model"
)

const (
	bearerScheme   = "Bearer"
	tokenQueryName = "token"
)

// CredentialExtractor pulls a bearer credential out of request headers or, failing that, the query string.
type CredentialExtractor struct {
	logger *logger.Logger
}

// NewCredentialExtractor creates a new CredentialExtractor.
func NewCredentialExtractor(logger *logger.Logger) *CredentialExtractor {
	return &CredentialExtractor{logger: logger}
}

// Extract returns the request credential. It fails with model.ErrCredentialAbsent
// when neither source carries one and with model.ErrCredentialMalformed when the
// Authorization header cannot be parsed as a bearer credential.
func (e *CredentialExtractor) Extract(header http.Header, query url.Values) (model.Credential, error) {
	if raw, ok := header[http.CanonicalHeaderKey("Authorization")]; ok && len(raw) > 0 {
		return parseAuthorization(raw[0])
	}

	token := query.Get(tokenQueryName)
	if token == "" {
		return model.Credential{}, model.ErrCredentialAbsent
	}

	e.logger.Debug("CredentialExtractor: using token query parameter")

	return model.Credential{Scheme: bearerScheme, Value: token}, nil
}

func parseAuthorization(value string) (model.Credential, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return model.Credential{}, fmt.Errorf("%w: missing authorization", model.ErrCredentialMalformed)
	}

	i := strings.IndexFunc(value, unicode.IsSpace)
	if i < 0 {
		return model.Credential{}, fmt.Errorf("%w: missing scheme or credentials", model.ErrCredentialMalformed)
	}
	scheme, rest := value[:i], strings.TrimSpace(value[i:])
	if rest == "" {
		return model.Credential{}, fmt.Errorf("%w: missing credentials", model.ErrCredentialMalformed)
	}
	if !strings.EqualFold(scheme, bearerScheme) {
		return model.Credential{}, fmt.Errorf("%w: invalid scheme %q", model.ErrCredentialMalformed, scheme)
	}

	return model.Credential{Scheme: scheme, Value: rest}, nil
}
