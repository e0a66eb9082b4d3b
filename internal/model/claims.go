package model

import (
	"encoding/json"
	"slices"
	"time"
)

// Role names required by post operations.
const (
	RolePostCreate = "post:create"
	RolePostUpdate = "post:update"
	RolePostDelete = "post:delete"
)

// Claims is the validated claim set carried by an access token.
type Claims struct {
	ExpiresAt time.Time
	IssuedAt  time.Time
	Issuer    string
	TokenID   string
	Subject   Subject
}

// Subject identifies the token holder. Keys other than id and roles are kept in Extra.
type Subject struct {
	ID    string
	Roles []string
	Extra map[string]any
}

// HasRole reports whether role is one of the subject's roles.
func (s Subject) HasRole(role string) bool {
	return slices.Contains(s.Roles, role)
}

// MarshalJSON encodes the subject as a flat object.
func (s Subject) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+2)
	for k, v := range s.Extra {
		out[k] = v
	}
	out["id"] = s.ID
	roles := s.Roles
	if roles == nil {
		roles = []string{}
	}
	out["roles"] = roles
	return json.Marshal(out)
}

// UnmarshalJSON decodes id and roles and collects every other key into Extra.
func (s *Subject) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var decoded Subject
	if v, ok := raw["id"]; ok {
		if err := json.Unmarshal(v, &decoded.ID); err != nil {
			return err
		}
		delete(raw, "id")
	}
	if v, ok := raw["roles"]; ok {
		if err := json.Unmarshal(v, &decoded.Roles); err != nil {
			return err
		}
		delete(raw, "roles")
	}
	if len(raw) > 0 {
		decoded.Extra = make(map[string]any, len(raw))
		for k, v := range raw {
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return err
			}
			decoded.Extra[k] = val
		}
	}

	*s = decoded
	return nil
}

// Principal is the authenticated caller of a single request.
type Principal struct {
	Claims
}

// ID returns the subject id.
func (p *Principal) ID() string {
	return p.Subject.ID
}

// HasRole reports whether the principal holds role.
func (p *Principal) HasRole(role string) bool {
	return p.Subject.HasRole(role)
}
