package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/agent-zon/grantd/internal/details"
	"github.com/agent-zon/grantd/internal/models"
	apperrors "github.com/agent-zon/grantd/pkg/errors"
)

// RequestURIPrefix is the opaque reference scheme returned by the PAR endpoint.
const RequestURIPrefix = "urn:ietf:params:oauth:request_uri:"

// RequestService manages pushed authorization requests and their association
// with grants.
type RequestService struct {
	db     *gorm.DB
	grants *GrantService
	ttl    int
}

// NewRequestService constructs a RequestService. A non-positive ttl falls
// back to the protocol default of 90 seconds.
func NewRequestService(db *gorm.DB, grants *GrantService, ttl int) (*RequestService, error) {
	if db == nil {
		return nil, errors.New("request service: db is required")
	}
	if grants == nil {
		return nil, errors.New("request service: grant service is required")
	}
	if ttl <= 0 {
		ttl = models.DefaultRequestTTL
	}
	return &RequestService{db: db, grants: grants, ttl: ttl}, nil
}

// CreatePARInput carries the pushed authorization request fields.
type CreatePARInput struct {
	ClientID             string
	RedirectURI          string
	Scope                string
	Action               string
	GrantID              string
	AuthorizationDetails string
	RequestedActor       string
	Subject              string
}

// CreatePAR validates and persists a pushed authorization request, creating
// or resolving its grant.
func (s *RequestService) CreatePAR(ctx context.Context, input CreatePARInput) (*models.AuthorizationRequest, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(input.ClientID) == "" {
		return nil, apperrors.NewBadRequest("client_id is required")
	}
	if strings.TrimSpace(input.RedirectURI) == "" {
		return nil, apperrors.NewBadRequest("redirect_uri is required")
	}

	action := strings.TrimSpace(input.Action)
	if action == "" {
		action = models.ActionCreate
	}
	switch action {
	case models.ActionCreate, models.ActionMerge, models.ActionUpdate, models.ActionReplace:
	default:
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown grant_management_action %q", action))
	}

	parsed, err := details.ParseList([]byte(input.AuthorizationDetails))
	if err != nil {
		return nil, apperrors.NewBadRequest(err.Error())
	}

	grant, err := s.grants.Ensure(ctx, strings.TrimSpace(input.GrantID), input.ClientID)
	if err != nil {
		return nil, err
	}

	// Re-marshal the parsed details so storage holds the normalized form.
	normalized, err := details.MarshalList(parsed)
	if err != nil {
		return nil, fmt.Errorf("request service: encode details: %w", err)
	}

	request := models.AuthorizationRequest{
		GrantID:        grant.ID,
		ClientID:       input.ClientID,
		RedirectURI:    input.RedirectURI,
		Scope:          input.Scope,
		Action:         action,
		RequestedActor: strings.TrimSpace(input.RequestedActor),
		Subject:        strings.TrimSpace(input.Subject),
		Status:         models.RequestStatusPending,
		ExpiresIn:      s.ttl,
		Details:        normalized,
	}

	if err := s.db.WithContext(ctx).Create(&request).Error; err != nil {
		return nil, fmt.Errorf("request service: create request: %w", err)
	}

	return &request, nil
}

// Get returns an authorization request by id, enforcing its TTL: a stale
// pending request is marked expired before being rejected.
func (s *RequestService) Get(ctx context.Context, id string) (*models.AuthorizationRequest, error) {
	ctx = ensureContext(ctx)

	var request models.AuthorizationRequest
	if err := s.db.WithContext(ctx).First(&request, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("request service: load request: %w", err)
	}

	if request.Status == models.RequestStatusPending && request.Expired(time.Now()) {
		if err := s.db.WithContext(ctx).Model(&request).
			Update("status", models.RequestStatusExpired).Error; err != nil {
			return nil, fmt.Errorf("request service: expire request: %w", err)
		}
		request.Status = models.RequestStatusExpired
	}

	return &request, nil
}

// RequestURI renders the opaque reference for a stored request.
func RequestURI(requestID string) string {
	return RequestURIPrefix + requestID
}

// RequestIDFromURI extracts the request id from a request_uri reference.
func RequestIDFromURI(uri string) (string, bool) {
	return strings.CutPrefix(uri, RequestURIPrefix)
}

// ExpireStale marks pending requests whose TTL elapsed as expired and
// returns the number of rows affected. Used by the maintenance cleaner.
func (s *RequestService) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	ctx = ensureContext(ctx)

	var pending []models.AuthorizationRequest
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.RequestStatusPending).
		Find(&pending).Error; err != nil {
		return 0, fmt.Errorf("request service: load pending requests: %w", err)
	}

	var stale []string
	for _, request := range pending {
		if request.Expired(now) {
			stale = append(stale, request.ID)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	result := s.db.WithContext(ctx).Model(&models.AuthorizationRequest{}).
		Where("id IN ? AND status = ?", stale, models.RequestStatusPending).
		Update("status", models.RequestStatusExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("request service: expire requests: %w", result.Error)
	}
	return result.RowsAffected, nil
}
