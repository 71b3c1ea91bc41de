package models

// Grant status values. Grants are never physically deleted; revocation is a
// status transition.
const (
	GrantStatusActive  = "active"
	GrantStatusRevoked = "revoked"
)

// Grant is the durable, cumulative authorization record for a (client,
// subject) pair. Scope is the write-time aggregate over the grant's consent
// chain; authorization details are reached through the grant's consents.
type Grant struct {
	BaseModel

	ClientID string  `gorm:"type:varchar(128);index" json:"client_id"`
	Subject  string  `gorm:"type:varchar(128);index" json:"subject,omitempty"`
	Actor    *string `gorm:"type:varchar(128)" json:"actor,omitempty"`
	Status   string  `gorm:"type:varchar(16);not null;default:active;index" json:"status"`
	Scope    string  `json:"scope"`

	Consents []Consent             `gorm:"foreignKey:GrantID" json:"-"`
	Details  []AuthorizationDetail `gorm:"foreignKey:GrantID" json:"authorization_details,omitempty"`
}

// Active reports whether the grant may still authorize access.
func (g *Grant) Active() bool {
	return g != nil && g.Status == GrantStatusActive
}
