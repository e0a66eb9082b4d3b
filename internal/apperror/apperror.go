// Package apperror defines the user-visible failure kinds returned by services.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is a stable machine-readable failure category.
type Kind string

const (
	KindNotAuthenticated Kind = "not_authenticated"
	KindInvalidToken     Kind = "invalid_token"
	KindNotAuthorized    Kind = "not_authorized"
	KindNotFound         Kind = "not_found"
	KindAlreadyExists    Kind = "already_exists"
	KindConflict         Kind = "conflict"
	KindInvalidInput     Kind = "invalid_input"
	KindInfrastructure   Kind = "infrastructure"
)

// Error is a terminal outcome carrying a kind and a human message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf returns the kind of err, or KindInfrastructure for anything unclassified.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInfrastructure
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

func NewErrMissingCredentials(reason string) *Error {
	return New(KindNotAuthenticated, reason)
}

func NewErrInvalidToken() *Error {
	return New(KindInvalidToken, "invalid or expired token")
}

func NewErrNotAuthorized(required []string) *Error {
	return New(KindNotAuthorized, fmt.Sprintf("missing required roles: %s", strings.Join(required, ", ")))
}

func NewErrPostNotFound(id string) *Error {
	return New(KindNotFound, fmt.Sprintf("post %s not found", id))
}

func NewErrAttachmentNotFound(id string) *Error {
	return New(KindNotFound, fmt.Sprintf("attachment %s not found", id))
}

func NewErrPostAlreadyExists(title string) *Error {
	return New(KindAlreadyExists, fmt.Sprintf("post %q already exists for today", title))
}

func NewErrPostConflict(id string) *Error {
	return New(KindConflict, fmt.Sprintf("post %s was modified concurrently", id))
}

func NewErrInvalidInput(message string) *Error {
	return New(KindInvalidInput, message)
}
