package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/agent-zon/grantd/internal/database/testutil"
	"github.com/agent-zon/grantd/internal/details"
	"github.com/agent-zon/grantd/internal/models"
)

type serviceStack struct {
	db          *gorm.DB
	grants      *GrantService
	requests    *RequestService
	consents    *ConsentService
	permissions *PermissionService
	tokens      *TokenService
	evaluations *EvaluationService
}

func newServiceStack(t *testing.T) *serviceStack {
	t.Helper()

	db := testutil.MustOpenTestDB(t)

	grants, err := NewGrantService(db)
	require.NoError(t, err)
	requests, err := NewRequestService(db, grants, 0)
	require.NoError(t, err)
	permissions, err := NewPermissionService(db)
	require.NoError(t, err)
	consents, err := NewConsentService(db, grants, requests, permissions)
	require.NoError(t, err)
	tokens, err := NewTokenService(db, grants, time.Hour)
	require.NoError(t, err)
	evaluations, err := NewEvaluationService(db)
	require.NoError(t, err)

	return &serviceStack{
		db:          db,
		grants:      grants,
		requests:    requests,
		consents:    consents,
		permissions: permissions,
		tokens:      tokens,
		evaluations: evaluations,
	}
}

// pushAndConsent runs one full authorization round: PAR, then consent with
// the approved details, returning the stored request.
func (s *serviceStack) pushAndConsent(t *testing.T, ctx context.Context, par CreatePARInput, subject, approvedScope string, approved []details.Detail) *models.AuthorizationRequest {
	t.Helper()

	request, err := s.requests.CreatePAR(ctx, par)
	require.NoError(t, err)

	_, err = s.consents.SubmitConsent(ctx, SubmitConsentInput{
		RequestID: request.ID,
		GrantID:   request.GrantID,
		Subject:   subject,
		Scope:     approvedScope,
		Details:   approved,
	})
	require.NoError(t, err)

	return request
}

func mcpToolsDetail(server string, tools ...string) *details.McpDetail {
	m := make(map[string]details.Requirement, len(tools))
	for _, tool := range tools {
		m[tool] = details.RequirementGranted
	}
	return &details.McpDetail{Server: server, Transport: "http", Tools: m}
}
