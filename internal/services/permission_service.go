package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/agent-zon/grantd/internal/details"
	"github.com/agent-zon/grantd/internal/models"
)

// PermissionService is the generic storage adapter that projects typed
// authorization details into attribute/value rows and rebuilds them.
type PermissionService struct {
	db *gorm.DB
}

// NewPermissionService constructs a PermissionService using the provided database handle.
func NewPermissionService(db *gorm.DB) (*PermissionService, error) {
	if db == nil {
		return nil, errors.New("permission service: db is required")
	}
	return &PermissionService{db: db}, nil
}

// WithTx returns a copy of the service bound to the transaction handle, so
// consent writes flatten and prune atomically with the consent itself.
func (s *PermissionService) WithTx(tx *gorm.DB) *PermissionService {
	if tx == nil {
		return s
	}
	return &PermissionService{db: tx}
}

// Record flattens one detail into permission rows tied to the grant.
func (s *PermissionService) Record(ctx context.Context, grantID, detailID string, d details.Detail) error {
	ctx = ensureContext(ctx)

	rows := details.Flatten(d, grantID, detailID)
	if len(rows) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("permission service: record rows: %w", err)
	}
	return nil
}

// DeleteForGrant removes every flattened row belonging to a grant. Called
// when a replace consent displaces the grant's prior details.
func (s *PermissionService) DeleteForGrant(ctx context.Context, grantID string) error {
	ctx = ensureContext(ctx)

	if err := s.db.WithContext(ctx).
		Where("grant_id = ?", grantID).
		Delete(&models.Permission{}).Error; err != nil {
		return fmt.Errorf("permission service: delete rows: %w", err)
	}
	return nil
}

// ReconstructGrant rebuilds the typed details of a grant from its flattened
// rows.
func (s *PermissionService) ReconstructGrant(ctx context.Context, grantID string) ([]details.Detail, error) {
	ctx = ensureContext(ctx)

	var rows []models.Permission
	if err := s.db.WithContext(ctx).
		Where("grant_id = ?", grantID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("permission service: load rows: %w", err)
	}

	rebuilt, err := details.Reconstruct(rows)
	if err != nil {
		return nil, fmt.Errorf("permission service: %w", err)
	}
	return rebuilt, nil
}
