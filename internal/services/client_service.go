package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/agent-zon/grantd/internal/models"
	apperrors "github.com/agent-zon/grantd/pkg/errors"
)

// ClientService verifies registered clients. Registration is optional:
// unknown client ids pass through so unregistered agents can still run the
// flows, but a registered client with a secret must present it.
type ClientService struct {
	db *gorm.DB
}

// NewClientService constructs a ClientService using the provided database handle.
func NewClientService(db *gorm.DB) (*ClientService, error) {
	if db == nil {
		return nil, errors.New("client service: db is required")
	}
	return &ClientService{db: db}, nil
}

// Verify checks the client secret when the client is registered with one.
func (s *ClientService) Verify(ctx context.Context, clientID, secret string) error {
	ctx = ensureContext(ctx)

	var client models.Client
	err := s.db.WithContext(ctx).First(&client, "client_id = ?", clientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("client service: load client: %w", err)
	}

	if client.SecretHash == "" {
		return nil
	}

	if bcrypt.CompareHashAndPassword([]byte(client.SecretHash), []byte(secret)) != nil {
		return apperrors.ErrInvalidClient
	}
	return nil
}

// Register creates or updates a client registration, hashing the secret.
func (s *ClientService) Register(ctx context.Context, clientID, name, secret string) (*models.Client, error) {
	ctx = ensureContext(ctx)

	if clientID == "" {
		return nil, apperrors.NewBadRequest("client_id is required")
	}

	client := models.Client{ClientID: clientID, Name: name}
	if secret != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("client service: hash secret: %w", err)
		}
		client.SecretHash = string(hash)
	}

	err := s.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Assign(map[string]any{"name": client.Name, "secret_hash": client.SecretHash}).
		FirstOrCreate(&client).Error
	if err != nil {
		return nil, fmt.Errorf("client service: register client: %w", err)
	}
	return &client, nil
}
