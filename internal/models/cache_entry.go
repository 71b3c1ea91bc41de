package models

import "time"

// CacheEntry backs the database cache store used when Redis is not
// configured.
type CacheEntry struct {
	BaseModel

	Key       string    `gorm:"type:varchar(256);uniqueIndex;not null" json:"key"`
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}
