package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dtroode/postkeeper-server/internal/api/http/handler"
	"github.com/dtroode/postkeeper-server/internal/auth"
	"github.com/dtroode/postkeeper-server/internal/logger"
	"github.com/dtroode/postkeeper-server/internal/model"
)

// Authenticator resolves the principal of a request.
type Authenticator interface {
	Authenticate(ctx context.Context, header http.Header, query url.Values, mode auth.Mode) (*model.Principal, error)
}

// Authenticate validates bearer tokens and injects the principal into the request context.
type Authenticate struct {
	authenticator  Authenticator
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(authenticator Authenticator, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{authenticator: authenticator, contextManager: contextManager, logger: logger}
}

// Strict rejects requests without a valid, unrevoked token.
func (m *Authenticate) Strict(next http.Handler) http.Handler {
	return m.handle(next, auth.Strict)
}

// Soft lets anonymous requests through without a principal.
func (m *Authenticate) Soft(next http.Handler) http.Handler {
	return m.handle(next, auth.Soft)
}

func (m *Authenticate) handle(next http.Handler, mode auth.Mode) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.authenticator.Authenticate(r.Context(), r.Header, r.URL.Query(), mode)
		if err != nil {
			handler.WriteError(w, r, m.logger, err)
			return
		}
		if principal != nil {
			r = r.WithContext(m.contextManager.SetPrincipalToContext(r.Context(), principal))
		}
		next.ServeHTTP(w, r)
	})
}
