package models

import "gorm.io/datatypes"

// Client is a registered OAuth client allowed to push authorization
// requests. SecretHash is a bcrypt hash; clients without a secret are
// treated as public.
type Client struct {
	BaseModel

	ClientID     string         `gorm:"type:varchar(128);uniqueIndex;not null" json:"client_id"`
	Name         string         `json:"name"`
	SecretHash   string         `json:"-"`
	RedirectURIs datatypes.JSON `json:"redirect_uris,omitempty"`
}
