package model

import "errors"

var (
	ErrCredentialAbsent    = errors.New("missing authorization")
	ErrCredentialMalformed = errors.New("malformed authorization")
)

// Credential is a bearer credential pulled from a request.
type Credential struct {
	Scheme string
	Value  string
}
