package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agent-zon/grantd/internal/details"
	"github.com/agent-zon/grantd/internal/models"
)

// GrantService is the durable store for grants and the aggregator over
// their consent chains.
type GrantService struct {
	db *gorm.DB
}

// NewGrantService constructs a GrantService using the provided database handle.
func NewGrantService(db *gorm.DB) (*GrantService, error) {
	if db == nil {
		return nil, errors.New("grant service: db is required")
	}
	return &GrantService{db: db}, nil
}

// Ensure returns the grant with the given id, creating it when absent. An
// empty id creates a grant with a generated id. Creation is idempotent:
// two concurrent calls with the same caller-chosen id resolve to a single
// record, first writer wins.
func (s *GrantService) Ensure(ctx context.Context, id, clientID string) (*models.Grant, error) {
	ctx = ensureContext(ctx)

	grant := models.Grant{
		BaseModel: models.BaseModel{ID: id},
		ClientID:  clientID,
		Status:    models.GrantStatusActive,
	}

	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&grant).Error; err != nil && !isUniqueConstraintError(err) {
		return nil, fmt.Errorf("grant service: create grant: %w", err)
	}

	// Reload so the loser of a concurrent create observes the winner's row.
	var out models.Grant
	if err := s.db.WithContext(ctx).First(&out, "id = ?", grant.ID).Error; err != nil {
		return nil, fmt.Errorf("grant service: load grant: %w", err)
	}
	return &out, nil
}

// Get returns a grant by id.
func (s *GrantService) Get(ctx context.Context, id string) (*models.Grant, error) {
	ctx = ensureContext(ctx)

	var grant models.Grant
	if err := s.db.WithContext(ctx).First(&grant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGrantNotFound
		}
		return nil, fmt.Errorf("grant service: load grant: %w", err)
	}
	return &grant, nil
}

// Revoke transitions a grant to revoked status. Grants are never deleted.
func (s *GrantService) Revoke(ctx context.Context, id string) (*models.Grant, error) {
	ctx = ensureContext(ctx)

	grant, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if grant.Status == models.GrantStatusRevoked {
		return grant, nil
	}

	if err := s.db.WithContext(ctx).Model(grant).
		Update("status", models.GrantStatusRevoked).Error; err != nil {
		return nil, fmt.Errorf("grant service: revoke grant: %w", err)
	}
	grant.Status = models.GrantStatusRevoked
	return grant, nil
}

// Aggregate computes the grant's current scope and authorization details by
// replaying its consent chain. A replace (or the initial create) consent
// starts a fresh segment; everything after it is unioned. Details displaced
// by a replace are marked superseded at write time, so the detail query
// filters on that flag rather than re-deriving membership.
func (s *GrantService) Aggregate(ctx context.Context, grantID string) (string, []details.Detail, error) {
	scope, err := s.AggregateScope(ctx, grantID)
	if err != nil {
		return "", nil, err
	}

	active, err := s.ActiveDetails(ctx, grantID)
	if err != nil {
		return "", nil, err
	}

	return scope, active, nil
}

// AggregateScope replays the consent chain for the grant's effective scope.
func (s *GrantService) AggregateScope(ctx context.Context, grantID string) (string, error) {
	ctx = ensureContext(ctx)

	var consents []models.Consent
	if err := s.db.WithContext(ctx).
		Where("grant_id = ?", grantID).
		Order("created_at ASC").
		Find(&consents).Error; err != nil {
		return "", fmt.Errorf("grant service: load consents: %w", err)
	}

	start := 0
	for i, consent := range consents {
		if consent.Action == models.ActionCreate || consent.Action == models.ActionReplace {
			start = i
		}
	}

	scopes := make([]string, 0, len(consents))
	for _, consent := range consents[start:] {
		scopes = append(scopes, consent.Scope)
	}
	return details.MergeScopes(scopes...), nil
}

// ActiveDetails returns the decoded, non-superseded authorization details of
// a grant in insertion order.
func (s *GrantService) ActiveDetails(ctx context.Context, grantID string) ([]details.Detail, error) {
	ctx = ensureContext(ctx)

	var rows []models.AuthorizationDetail
	if err := s.db.WithContext(ctx).
		Where("grant_id = ? AND superseded = ?", grantID, false).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("grant service: load details: %w", err)
	}

	out := make([]details.Detail, 0, len(rows))
	for _, row := range rows {
		decoded, err := details.Parse(row.Payload)
		if err != nil {
			return nil, fmt.Errorf("grant service: decode detail %s: %w", row.ID, err)
		}
		out = append(out, decoded)
	}
	return out, nil
}
