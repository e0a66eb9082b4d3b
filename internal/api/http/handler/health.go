package handler

import (
	"context"
	"net/http"

	"github.com/dtroode/postkeeper-server/internal/logger"
)

// Pinger is implemented by backends the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Health struct {
	pinger Pinger
	logger *logger.Logger
}

// NewHealth creates a health handler. A nil pinger always reports ok.
func NewHealth(pinger Pinger, logger *logger.Logger) *Health {
	return &Health{pinger: pinger, logger: logger}
}

func (h *Health) Get(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			h.logger.Error("Health: backend ping failed", "error", err)
			WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
