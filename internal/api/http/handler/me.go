package handler

import (
	"net/http"
	"time"

	"github.com/dtroode/postkeeper-server/internal/logger"
	"github.com/dtroode/postkeeper-server/internal/model"
)

// Me reports who the caller is authenticated as.
type Me struct {
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewMe(contextManager model.ContextManager, logger *logger.Logger) *Me {
	return &Me{contextManager: contextManager, logger: logger}
}

type principalResponse struct {
	Subject   model.Subject `json:"subject"`
	Issuer    string        `json:"issuer,omitempty"`
	TokenID   string        `json:"token_id"`
	IssuedAt  time.Time     `json:"issued_at"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// Get writes the principal, or null for anonymous callers.
func (h *Me) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.contextManager.GetPrincipalFromContext(r.Context())
	if !ok {
		WriteJSON(w, http.StatusOK, nil)
		return
	}
	WriteJSON(w, http.StatusOK, principalResponse{
		Subject:   principal.Subject,
		Issuer:    principal.Issuer,
		TokenID:   principal.TokenID,
		IssuedAt:  principal.IssuedAt,
		ExpiresAt: principal.ExpiresAt,
	})
}
