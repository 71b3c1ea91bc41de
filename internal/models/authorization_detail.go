package models

import "gorm.io/datatypes"

// AuthorizationDetail persists one typed authorization detail as approved by
// a consent. TypeCode selects the variant; Payload carries the typed body.
// GrantID is denormalized from the owning consent so the evaluation engine
// can filter details without a join.
type AuthorizationDetail struct {
	BaseModel

	ConsentID string         `gorm:"type:uuid;not null;index" json:"-"`
	GrantID   string         `gorm:"type:uuid;not null;index" json:"-"`
	TypeCode  string         `gorm:"type:varchar(32);not null;index" json:"type"`
	Payload   datatypes.JSON `json:"payload"`

	// Superseded marks details displaced by a later replace consent. The
	// consent chain itself stays immutable; only the detail's visibility to
	// the aggregate and the evaluation engine changes.
	Superseded bool `gorm:"not null;default:false;index" json:"-"`
}

// TableName overrides the default table name for GORM.
func (AuthorizationDetail) TableName() string {
	return "authorization_details"
}
