package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agent-zon/grantd/internal/details"
	"github.com/agent-zon/grantd/internal/models"
	apperrors "github.com/agent-zon/grantd/pkg/errors"
	"github.com/agent-zon/grantd/pkg/metrics"
)

// ConsentService records approval decisions as an append-only chain per
// grant and applies the request's grant management action to the grant's
// aggregate.
type ConsentService struct {
	db          *gorm.DB
	grants      *GrantService
	requests    *RequestService
	permissions *PermissionService
}

// NewConsentService constructs a ConsentService.
func NewConsentService(db *gorm.DB, grants *GrantService, requests *RequestService, permissions *PermissionService) (*ConsentService, error) {
	if db == nil {
		return nil, errors.New("consent service: db is required")
	}
	if grants == nil || requests == nil || permissions == nil {
		return nil, errors.New("consent service: grant, request and permission services are required")
	}
	return &ConsentService{db: db, grants: grants, requests: requests, permissions: permissions}, nil
}

// ConsentView is the data contract consumed by the consent prompt.
type ConsentView struct {
	Request *models.AuthorizationRequest `json:"request"`
	Grant   *models.Grant                `json:"grant"`
}

// RenderConsent loads the authorization request and its grant for display.
func (s *ConsentService) RenderConsent(ctx context.Context, requestID string) (*ConsentView, error) {
	ctx = ensureContext(ctx)

	request, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status == models.RequestStatusExpired {
		return nil, ErrRequestExpired
	}

	grant, err := s.grants.Get(ctx, request.GrantID)
	if err != nil {
		return nil, err
	}

	return &ConsentView{Request: request, Grant: grant}, nil
}

// SubmitConsentInput carries the subject's approval decision. Details may
// narrow what the request asked for but must keep every essential entry.
type SubmitConsentInput struct {
	RequestID string
	GrantID   string
	Subject   string
	Scope     string
	Details   []details.Detail
}

// SubmitConsent persists the consent, links it to the previous consent of
// the grant, applies the grant management action, and returns the redirect
// target carrying the one-time authorization code.
func (s *ConsentService) SubmitConsent(ctx context.Context, input SubmitConsentInput) (string, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(input.Subject) == "" {
		return "", apperrors.NewBadRequest("subject is required")
	}

	request, err := s.requests.Get(ctx, input.RequestID)
	if err != nil {
		return "", err
	}
	switch request.Status {
	case models.RequestStatusExpired:
		return "", ErrRequestExpired
	case models.RequestStatusConsented:
		return "", ErrRequestConsented
	}

	grantID := strings.TrimSpace(input.GrantID)
	if grantID == "" {
		grantID = request.GrantID
	}

	requested, err := details.ParseList(request.Details)
	if err != nil {
		return "", fmt.Errorf("consent service: decode requested details: %w", err)
	}
	if err := details.CheckEssential(requested, input.Details); err != nil {
		return "", ErrEssentialNotApproved.WithInternal(err)
	}

	action := request.Action
	if action == "" {
		action = models.ActionCreate
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the grant row to serialize concurrent consents on the same
		// grant; the chain append reads the latest consent and must not race.
		var grant models.Grant
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&grant, "id = ?", grantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGrantNotFound
			}
			return fmt.Errorf("consent service: load grant: %w", err)
		}

		var previousID *string
		var previous models.Consent
		err := tx.Where("grant_id = ?", grantID).
			Order("created_at DESC").
			First(&previous).Error
		switch {
		case err == nil:
			previousID = &previous.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return fmt.Errorf("consent service: load previous consent: %w", err)
		}

		consent := models.Consent{
			GrantID:           grantID,
			RequestID:         request.ID,
			Subject:           input.Subject,
			Scope:             input.Scope,
			Action:            action,
			PreviousConsentID: previousID,
		}
		if err := tx.Create(&consent).Error; err != nil {
			return fmt.Errorf("consent service: create consent: %w", err)
		}

		permissions := s.permissions.WithTx(tx)

		if action == models.ActionReplace {
			if err := tx.Model(&models.AuthorizationDetail{}).
				Where("grant_id = ? AND superseded = ?", grantID, false).
				Update("superseded", true).Error; err != nil {
				return fmt.Errorf("consent service: supersede details: %w", err)
			}
			if err := permissions.DeleteForGrant(ctx, grantID); err != nil {
				return fmt.Errorf("consent service: prune permissions: %w", err)
			}
		}

		for _, d := range input.Details {
			payload, err := details.Marshal(d)
			if err != nil {
				return fmt.Errorf("consent service: encode detail: %w", err)
			}
			row := models.AuthorizationDetail{
				ConsentID: consent.ID,
				GrantID:   grantID,
				TypeCode:  d.TypeCode(),
				Payload:   payload,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("consent service: create detail: %w", err)
			}

			if err := permissions.Record(ctx, grantID, row.ID, d); err != nil {
				return fmt.Errorf("consent service: flatten detail: %w", err)
			}
		}

		updates := map[string]any{
			"scope": s.nextScope(action, grant.Scope, input.Scope),
		}
		if grant.Subject == "" {
			updates["subject"] = input.Subject
		}
		if request.RequestedActor != "" {
			updates["actor"] = request.RequestedActor
		}
		if err := tx.Model(&grant).Updates(updates).Error; err != nil {
			return fmt.Errorf("consent service: update grant: %w", err)
		}

		if err := tx.Model(&models.AuthorizationRequest{}).
			Where("id = ?", request.ID).
			Updates(map[string]any{"status": models.RequestStatusConsented, "updated_at": time.Now()}).Error; err != nil {
			return fmt.Errorf("consent service: mark request consented: %w", err)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	metrics.ConsentsRecorded.WithLabelValues(action).Inc()

	return redirectWithCode(request.RedirectURI, request.ID), nil
}

// Latest returns the most recent consent for a grant, or nil when the grant
// has no consents yet.
func (s *ConsentService) Latest(ctx context.Context, grantID string) (*models.Consent, error) {
	ctx = ensureContext(ctx)

	var consent models.Consent
	err := s.db.WithContext(ctx).
		Where("grant_id = ?", grantID).
		Order("created_at DESC").
		First(&consent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consent service: load latest consent: %w", err)
	}
	return &consent, nil
}

// nextScope applies the grant management action's scope semantics.
func (s *ConsentService) nextScope(action, existing, approved string) string {
	switch action {
	case models.ActionMerge, models.ActionUpdate:
		return details.MergeScopes(existing, approved)
	default: // create, replace
		return details.MergeScopes(approved)
	}
}

// redirectWithCode appends the authorization code to the redirect URI,
// preserving any query parameters the client registered.
func redirectWithCode(redirectURI, code string) string {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return redirectURI + "?code=" + url.QueryEscape(code)
	}
	q := u.Query()
	q.Set("code", code)
	u.RawQuery = q.Encode()
	return u.String()
}
