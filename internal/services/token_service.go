package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agent-zon/grantd/internal/details"
	"github.com/agent-zon/grantd/internal/models"
	apperrors "github.com/agent-zon/grantd/pkg/errors"
	"github.com/agent-zon/grantd/pkg/metrics"
)

// GrantTypeAuthorizationCode is the only grant type the token endpoint supports.
const GrantTypeAuthorizationCode = "authorization_code"

// DefaultTokenTTL is the access token lifetime.
const DefaultTokenTTL = time.Hour

// TokenService exchanges one-time authorization codes for opaque,
// grant-scoped access tokens.
type TokenService struct {
	db     *gorm.DB
	grants *GrantService
	ttl    time.Duration
}

// NewTokenService constructs a TokenService.
func NewTokenService(db *gorm.DB, grants *GrantService, ttl time.Duration) (*TokenService, error) {
	if db == nil {
		return nil, errors.New("token service: db is required")
	}
	if grants == nil {
		return nil, errors.New("token service: grant service is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{db: db, grants: grants, ttl: ttl}, nil
}

// ExchangeInput carries the token endpoint request fields.
type ExchangeInput struct {
	GrantType   string
	Code        string
	RedirectURI string
	ClientID    string
}

// TokenResponse is the token endpoint success payload.
type TokenResponse struct {
	AccessToken          string           `json:"access_token"`
	TokenType            string           `json:"token_type"`
	ExpiresIn            int              `json:"expires_in"`
	Scope                string           `json:"scope,omitempty"`
	GrantID              string           `json:"grant_id"`
	AuthorizationDetails []details.Detail `json:"authorization_details,omitempty"`
	Actor                string           `json:"actor,omitempty"`
}

// Exchange validates the authorization code, consumes it, and mints an
// opaque access token carrying the grant's current aggregate.
func (s *TokenService) Exchange(ctx context.Context, input ExchangeInput) (*TokenResponse, error) {
	ctx = ensureContext(ctx)

	if input.GrantType != GrantTypeAuthorizationCode {
		return nil, apperrors.ErrUnsupportedGrantType
	}
	if strings.TrimSpace(input.Code) == "" {
		return nil, apperrors.ErrInvalidGrant
	}

	var request models.AuthorizationRequest
	err := s.db.WithContext(ctx).First(&request, "id = ?", input.Code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrInvalidGrant
	}
	if err != nil {
		return nil, fmt.Errorf("token service: load request: %w", err)
	}

	now := time.Now()
	if request.Expired(now) {
		return nil, apperrors.ErrInvalidGrant
	}
	// Only a consented request carries a usable code; a pushed request id is
	// not an authorization code yet.
	if request.Status != models.RequestStatusConsented {
		return nil, apperrors.ErrInvalidGrant
	}
	if input.RedirectURI != "" && input.RedirectURI != request.RedirectURI {
		return nil, apperrors.ErrInvalidGrant
	}
	if input.ClientID != "" && input.ClientID != request.ClientID {
		return nil, apperrors.ErrInvalidGrant
	}

	// Codes are single-use. The guarded update is the atomic check-and-set;
	// a concurrent second exchange sees zero rows affected.
	consume := s.db.WithContext(ctx).Model(&models.AuthorizationRequest{}).
		Where("id = ? AND code_used_at IS NULL", request.ID).
		Update("code_used_at", now)
	if consume.Error != nil {
		return nil, fmt.Errorf("token service: consume code: %w", consume.Error)
	}
	if consume.RowsAffected == 0 {
		return nil, apperrors.ErrInvalidGrant
	}

	grant, err := s.grants.Get(ctx, request.GrantID)
	if err != nil {
		if errors.Is(err, ErrGrantNotFound) {
			return nil, apperrors.ErrInvalidGrant
		}
		return nil, err
	}
	if !grant.Active() {
		return nil, apperrors.ErrInvalidGrant
	}

	scope, grantDetails, err := s.grants.Aggregate(ctx, grant.ID)
	if err != nil {
		return nil, err
	}

	token := models.AccessToken{
		Token:     uuid.NewString(),
		GrantID:   grant.ID,
		ClientID:  request.ClientID,
		Subject:   grant.Subject,
		Scope:     scope,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.db.WithContext(ctx).Create(&token).Error; err != nil {
		return nil, fmt.Errorf("token service: create token: %w", err)
	}

	metrics.TokensIssued.Inc()

	actor := ""
	if grant.Actor != nil {
		actor = *grant.Actor
	}

	return &TokenResponse{
		AccessToken:          token.Token,
		TokenType:            "Bearer",
		ExpiresIn:            int(s.ttl.Seconds()),
		Scope:                scope,
		GrantID:              grant.ID,
		AuthorizationDetails: grantDetails,
		Actor:                actor,
	}, nil
}

// Authenticate resolves an opaque bearer token to its issuing grant context.
// Used by the evaluation endpoints to establish the caller's client_id.
func (s *TokenService) Authenticate(ctx context.Context, token string) (*models.AccessToken, error) {
	ctx = ensureContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.ErrUnauthorized
	}

	var record models.AccessToken
	err := s.db.WithContext(ctx).First(&record, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("token service: load token: %w", err)
	}

	if !record.Valid(time.Now()) {
		return nil, apperrors.ErrUnauthorized
	}
	return &record, nil
}
