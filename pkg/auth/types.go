package auth

import "errors"

var (
	// ErrInvalidToken is returned when a presented token fails format
	// validation or does not resolve to any identity.
	ErrInvalidToken = errors.New("invalid token")

	// ErrMissingToken is returned when no bearer token is present.
	ErrMissingToken = errors.New("missing token")
)

// Identity is the resolved caller of an API request. Org-scoped tokens
// carry the organization they act for; admin tokens act across all
// organizations.
type Identity struct {
	// OrgID is the organization the token is bound to. Empty for
	// system admin tokens.
	OrgID string `json:"org_id,omitempty"`

	// SystemAdmin grants access to the admin API surface.
	SystemAdmin bool `json:"system_admin"`

	// TokenPrefix identifies the token for logging without exposing it.
	TokenPrefix string `json:"token_prefix,omitempty"`
}

// CanActFor reports whether the identity may operate on the given
// organization's resources.
func (id *Identity) CanActFor(orgID string) bool {
	if id.SystemAdmin {
		return true
	}
	return id.OrgID != "" && id.OrgID == orgID
}
