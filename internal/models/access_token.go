package models

import "time"

// AccessToken is an opaque, grant-scoped bearer token issued by the token
// endpoint. Tokens are identifiers only; no claims are encoded in them.
type AccessToken struct {
	BaseModel

	Token     string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"-"`
	GrantID   string    `gorm:"type:uuid;not null;index" json:"grant_id"`
	ClientID  string    `gorm:"type:varchar(128);not null;index" json:"client_id"`
	Subject   string    `gorm:"type:varchar(128)" json:"subject,omitempty"`
	Scope     string    `json:"scope"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false" json:"revoked"`
}

// Valid reports whether the token can authenticate a caller at the given time.
func (t *AccessToken) Valid(now time.Time) bool {
	return t != nil && !t.Revoked && now.Before(t.ExpiresAt)
}
