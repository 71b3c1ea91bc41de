package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agent-zon/grantd/internal/details"
	"github.com/agent-zon/grantd/internal/models"
)

func TestSubmitConsentRedirectCarriesCode(t *testing.T) {
	stack := newServiceStack(t)
	ctx := context.Background()

	request, err := stack.requests.CreatePAR(ctx, CreatePARInput{
		ClientID:    "client-1",
		RedirectURI: "https://app.example.com/cb?state=xyz",
		Scope:       "read",
	})
	require.NoError(t, err)

	redirect, err := stack.consents.SubmitConsent(ctx, SubmitConsentInput{
		RequestID: request.ID,
		Subject:   "alice",
		Scope:     "read",
	})
	require.NoError(t, err)
	require.Contains(t, redirect, "code="+request.ID)
	require.Contains(t, redirect, "state=xyz", "existing query parameters survive")
}

func TestSubmitConsentChainLinkage(t *testing.T) {
	stack := newServiceStack(t)
	ctx := context.Background()

	stack.pushAndConsent(t, ctx, CreatePARInput{
		ClientID:    "client-1",
		RedirectURI: "https://app.example.com/cb",
		Scope:       "read",
		GrantID:     "grant-1",
	}, "alice", "read", nil)

	first, err := stack.consents.Latest(ctx, "grant-1")
	require.NoError(t, err)
	require.NotNil(t, first)
	require.Nil(t, first.PreviousConsentID)

	stack.pushAndConsent(t, ctx, CreatePARInput{
		ClientID:    "client-1",
		RedirectURI: "https://app.example.com/cb",
		Scope:       "write",
		Action:      models.ActionMerge,
		GrantID:     "grant-1",
	}, "alice", "write", nil)

	second, err := stack.consents.Latest(ctx, "grant-1")
	require.NoError(t, err)
	require.NotNil(t, second.PreviousConsentID)
	require.Equal(t, first.ID, *second.PreviousConsentID)
}

func TestSubmitConsentEnforcesEssential(t *testing.T) {
	stack := newServiceStack(t)
	ctx := context.Background()

	request, err := stack.requests.CreatePAR(ctx, CreatePARInput{
		ClientID:             "client-1",
		RedirectURI:          "https://app.example.com/cb",
		AuthorizationDetails: `[{"type":"mcp","server":"https://mcp.example.com","tools":{"search":"essential","fetch":"granted"}}]`,
	})
	require.NoError(t, err)

	// Dropping the essential tool is rejected.
	_, err = stack.consents.SubmitConsent(ctx, SubmitConsentInput{
		RequestID: request.ID,
		Subject:   "alice",
		Details:   []details.Detail{mcpToolsDetail("https://mcp.example.com", "fetch")},
	})
	require.ErrorIs(t, err, ErrEssentialNotApproved)

	// Dropping only the negotiable tool is fine.
	_, err = stack.consents.SubmitConsent(ctx, SubmitConsentInput{
		RequestID: request.ID,
		Subject:   "alice",
		Details:   []details.Detail{mcpToolsDetail("https://mcp.example.com", "search")},
	})
	require.NoError(t, err)
}

func TestSubmitConsentRequestGuards(t *testing.T) {
	stack := newServiceStack(t)
	ctx := context.Background()

	request, err := stack.requests.CreatePAR(ctx, CreatePARInput{
		ClientID:    "client-1",
		RedirectURI: "https://app.example.com/cb",
	})
	require.NoError(t, err)

	_, err = stack.consents.SubmitConsent(ctx, SubmitConsentInput{
		RequestID: request.ID,
		Subject:   "alice",
	})
	require.NoError(t, err)

	// A consented request cannot be consented again.
	_, err = stack.consents.SubmitConsent(ctx, SubmitConsentInput{
		RequestID: request.ID,
		Subject:   "alice",
	})
	require.ErrorIs(t, err, ErrRequestConsented)

	// An expired request is rejected outright.
	stale, err := stack.requests.CreatePAR(ctx, CreatePARInput{
		ClientID:    "client-1",
		RedirectURI: "https://app.example.com/cb",
	})
	require.NoError(t, err)
	backdateRequest(t, stack, stale.ID, 10*time.Minute)

	_, err = stack.consents.SubmitConsent(ctx, SubmitConsentInput{
		RequestID: stale.ID,
		Subject:   "alice",
	})
	require.ErrorIs(t, err, ErrRequestExpired)

	_, err = stack.consents.SubmitConsent(ctx, SubmitConsentInput{
		RequestID: "missing",
		Subject:   "alice",
	})
	require.ErrorIs(t, err, ErrRequestNotFound)
}

func TestSubmitConsentSetsSubjectAndActor(t *testing.T) {
	stack := newServiceStack(t)
	ctx := context.Background()

	request := stack.pushAndConsent(t, ctx, CreatePARInput{
		ClientID:       "client-1",
		RedirectURI:    "https://app.example.com/cb",
		RequestedActor: "agent-7",
		GrantID:        "grant-1",
	}, "alice", "read", nil)
	require.Equal(t, "agent-7", request.RequestedActor)

	grant, err := stack.grants.Get(ctx, "grant-1")
	require.NoError(t, err)
	require.Equal(t, "alice", grant.Subject)
	require.NotNil(t, grant.Actor)
	require.Equal(t, "agent-7", *grant.Actor)
	require.Equal(t, "read", grant.Scope)
}

func TestSubmitConsentRecordsPermissionRows(t *testing.T) {
	stack := newServiceStack(t)
	ctx := context.Background()

	stack.pushAndConsent(t, ctx, CreatePARInput{
		ClientID:    "client-1",
		RedirectURI: "https://app.example.com/cb",
		GrantID:     "grant-1",
	}, "alice", "read", []details.Detail{
		mcpToolsDetail("https://mcp.example.com", "search", "fetch"),
	})

	// The consent write lands in the flattened rows, so the permission
	// service rebuilds exactly what was approved.
	rebuilt, err := stack.permissions.ReconstructGrant(ctx, "grant-1")
	require.NoError(t, err)
	require.Len(t, rebuilt, 1)

	mcp, ok := rebuilt[0].(*details.McpDetail)
	require.True(t, ok)
	require.Contains(t, mcp.Tools, "search")
	require.Contains(t, mcp.Tools, "fetch")
}

func TestSubmitConsentReplacePrunesPermissions(t *testing.T) {
	stack := newServiceStack(t)
	ctx := context.Background()

	stack.pushAndConsent(t, ctx, CreatePARInput{
		ClientID:    "client-1",
		RedirectURI: "https://app.example.com/cb",
		GrantID:     "grant-1",
	}, "alice", "read", []details.Detail{
		mcpToolsDetail("https://mcp.example.com", "search", "fetch"),
	})

	var before int64
	require.NoError(t, stack.db.Model(&models.Permission{}).
		Where("grant_id = ?", "grant-1").Count(&before).Error)
	require.Greater(t, before, int64(0))

	stack.pushAndConsent(t, ctx, CreatePARInput{
		ClientID:    "client-1",
		RedirectURI: "https://app.example.com/cb",
		Action:      models.ActionReplace,
		GrantID:     "grant-1",
	}, "alice", "audit", []details.Detail{
		mcpToolsDetail("https://mcp.example.com", "report"),
	})

	rebuilt, err := stack.permissions.ReconstructGrant(ctx, "grant-1")
	require.NoError(t, err)
	require.Len(t, rebuilt, 1)

	mcp, ok := rebuilt[0].(*details.McpDetail)
	require.True(t, ok)
	require.Contains(t, mcp.Tools, "report")
	require.NotContains(t, mcp.Tools, "search")
}

func TestRenderConsent(t *testing.T) {
	stack := newServiceStack(t)
	ctx := context.Background()

	request, err := stack.requests.CreatePAR(ctx, CreatePARInput{
		ClientID:    "client-1",
		RedirectURI: "https://app.example.com/cb",
		Scope:       "read",
	})
	require.NoError(t, err)

	view, err := stack.consents.RenderConsent(ctx, request.ID)
	require.NoError(t, err)
	require.Equal(t, request.ID, view.Request.ID)
	require.Equal(t, request.GrantID, view.Grant.ID)

	_, err = stack.consents.RenderConsent(ctx, "missing")
	require.ErrorIs(t, err, ErrRequestNotFound)
}
