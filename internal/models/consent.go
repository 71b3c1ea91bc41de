package models

// Consent records one subject approval event. Consents are immutable once
// created and form an append-only chain per grant via PreviousConsentID.
type Consent struct {
	BaseModel

	GrantID   string `gorm:"type:uuid;not null;index" json:"grant_id"`
	RequestID string `gorm:"type:uuid;not null;index" json:"request_id"`
	Subject   string `gorm:"type:varchar(128);not null;index" json:"subject"`
	Scope     string `json:"scope"`

	// Action is the grant management action copied from the originating
	// request at approval time, so the chain can be replayed without
	// resolving requests.
	Action string `gorm:"type:varchar(16);not null;default:create" json:"grant_management_action"`

	PreviousConsentID *string `gorm:"type:uuid" json:"previous_consent_id,omitempty"`

	Details []AuthorizationDetail `gorm:"foreignKey:ConsentID" json:"authorization_details,omitempty"`
}
