package models

import (
	"time"

	"gorm.io/datatypes"
)

// Authorization request lifecycle states.
const (
	RequestStatusPending   = "pending"
	RequestStatusConsented = "consented"
	RequestStatusExpired   = "expired"
)

// Grant management actions declared on a pushed authorization request and
// evaluated at consent time.
const (
	ActionCreate  = "create"
	ActionMerge   = "merge"
	ActionUpdate  = "update"
	ActionReplace = "replace"
)

// DefaultRequestTTL is the pushed authorization request lifetime in seconds.
const DefaultRequestTTL = 90

// AuthorizationRequest is a short-lived pushed authorization request (PAR).
// Its id doubles as the one-time authorization code once consented.
type AuthorizationRequest struct {
	BaseModel

	GrantID        string         `gorm:"type:uuid;not null;index" json:"grant_id"`
	ClientID       string         `gorm:"type:varchar(128);not null;index" json:"client_id"`
	RedirectURI    string         `gorm:"not null" json:"redirect_uri"`
	Scope          string         `json:"scope"`
	Action         string         `gorm:"type:varchar(16);not null;default:create" json:"grant_management_action"`
	RequestedActor string         `gorm:"type:varchar(128)" json:"requested_actor,omitempty"`
	Subject        string         `gorm:"type:varchar(128)" json:"subject,omitempty"`
	Status         string         `gorm:"type:varchar(16);not null;default:pending;index" json:"status"`
	ExpiresIn      int            `gorm:"not null;default:90" json:"expires_in"`
	Details        datatypes.JSON `json:"authorization_details,omitempty"`

	// CodeUsedAt marks the authorization code as consumed. Codes are
	// single-use; a second exchange must fail.
	CodeUsedAt *time.Time `json:"-"`
}

// ExpiresAt computes the absolute expiry of the request.
func (r *AuthorizationRequest) ExpiresAt() time.Time {
	ttl := r.ExpiresIn
	if ttl <= 0 {
		ttl = DefaultRequestTTL
	}
	return r.CreatedAt.Add(time.Duration(ttl) * time.Second)
}

// Expired reports whether the request TTL has elapsed at the given time.
func (r *AuthorizationRequest) Expired(now time.Time) bool {
	if r.Status == RequestStatusExpired {
		return true
	}
	return now.After(r.ExpiresAt())
}
