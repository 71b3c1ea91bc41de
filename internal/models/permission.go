package models

// Permission is a denormalized projection of one authorization-detail field,
// array element, or map entry. Rows sharing a ResourceIdentifier rebuild one
// typed detail losslessly.
type Permission struct {
	BaseModel

	ResourceIdentifier string `gorm:"type:varchar(256);not null;index" json:"resource_identifier"`
	GrantID            string `gorm:"type:uuid;not null;index" json:"grant_id"`
	Attribute          string `gorm:"type:varchar(128);not null" json:"attribute"`
	Value              string `json:"value"`
}
