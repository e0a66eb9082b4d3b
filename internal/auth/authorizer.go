package auth

import (
	"github.com/dtroode/postkeeper-server/internal/apperror"
	"github.com/dtroode/postkeeper-server/internal/logger"
	"github.com/dtroode/postkeeper-server/internal/model"
)

// Authorizer checks a principal against a required role set.
type Authorizer struct {
	logger *logger.Logger
}

// NewAuthorizer creates a new Authorizer.
func NewAuthorizer(logger *logger.Logger) *Authorizer {
	return &Authorizer{logger: logger}
}

// Authorize allows the call iff principal holds every role in required. Extra roles are fine.
func (a *Authorizer) Authorize(principal *model.Principal, required ...string) error {
	if principal == nil {
		a.logger.Warn("Authorizer: no principal", "required_roles", required)
		return apperror.NewErrNotAuthorized(required)
	}

	var missing []string
	for _, role := range required {
		if !principal.HasRole(role) {
			missing = append(missing, role)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	a.logger.Warn("Authorizer: access denied",
		"principal", principal.ID(),
		"required_roles", required,
		"missing_roles", missing)

	return apperror.NewErrNotAuthorized(required)
}
