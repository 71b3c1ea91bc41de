package database

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/agent-zon/grantd/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Client{},
		&models.Grant{},
		&models.AuthorizationRequest{},
		&models.Consent{},
		&models.AuthorizationDetail{},
		&models.Permission{},
		&models.AccessToken{},
		&models.CacheEntry{},
	)
}

// SeedData registers a development client so the flows are exercisable out
// of the box. Existing clients are left untouched.
func SeedData(db *gorm.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("dev-secret"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	client := models.Client{
		ClientID:   "dev-client",
		Name:       "Development Client",
		SecretHash: string(hash),
	}

	var existing models.Client
	err = db.Where("client_id = ?", client.ClientID).First(&existing).Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return db.Create(&client).Error
	default:
		return err
	}
}
