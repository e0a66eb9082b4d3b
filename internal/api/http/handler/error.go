package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dtroode/postkeeper-server/internal/apperror"
	"github.com/dtroode/postkeeper-server/internal/logger"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    apperror.Kind `json:"kind"`
	Message string        `json:"message"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotAuthenticated, apperror.KindInvalidToken:
		return http.StatusForbidden
	case apperror.KindNotAuthorized:
		return http.StatusUnauthorized
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindAlreadyExists, apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err as a JSON error body. Unclassified errors are logged and hidden from the client.
func WriteError(w http.ResponseWriter, r *http.Request, logger *logger.Logger, err error) {
	kind := apperror.KindOf(err)
	body := errorBody{Error: errorDetail{Kind: kind}}

	if kind == apperror.KindInfrastructure {
		logger.Error("HTTP: request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
		body.Error.Message = "internal server error"
	} else {
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			body.Error.Message = appErr.Message
		}
	}

	WriteJSON(w, StatusFor(kind), body)
}

// WriteJSON writes v with the given status. Rendered post HTML is written unescaped.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
