package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agent-zon/grantd/internal/details"
	"github.com/agent-zon/grantd/internal/models"
)

func TestGrantEnsureIdempotent(t *testing.T) {
	stack := newServiceStack(t)
	ctx := context.Background()

	first, err := stack.grants.Ensure(ctx, "grant-1", "client-1")
	require.NoError(t, err)
	require.Equal(t, "grant-1", first.ID)
	require.Equal(t, models.GrantStatusActive, first.Status)

	second, err := stack.grants.Ensure(ctx, "grant-1", "client-2")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "client-1", second.ClientID, "first writer wins")

	var count int64
	require.NoError(t, stack.db.Model(&models.Grant{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestGrantEnsureGeneratesID(t *testing.T) {
	stack := newServiceStack(t)

	grant, err := stack.grants.Ensure(context.Background(), "", "client-1")
	require.NoError(t, err)
	require.NotEmpty(t, grant.ID)
}

func TestGrantRevoke(t *testing.T) {
	stack := newServiceStack(t)
	ctx := context.Background()

	grant, err := stack.grants.Ensure(ctx, "grant-1", "client-1")
	require.NoError(t, err)
	require.True(t, grant.Active())

	revoked, err := stack.grants.Revoke(ctx, grant.ID)
	require.NoError(t, err)
	require.Equal(t, models.GrantStatusRevoked, revoked.Status)

	// Revoking again is a no-op, not an error.
	again, err := stack.grants.Revoke(ctx, grant.ID)
	require.NoError(t, err)
	require.Equal(t, models.GrantStatusRevoked, again.Status)

	_, err = stack.grants.Revoke(ctx, "missing")
	require.ErrorIs(t, err, ErrGrantNotFound)
}

func TestGrantAggregateMergeIsAdditive(t *testing.T) {
	stack := newServiceStack(t)
	ctx := context.Background()

	stack.pushAndConsent(t, ctx, CreatePARInput{
		ClientID:    "client-1",
		RedirectURI: "https://app.example.com/cb",
		Scope:       "read write",
		GrantID:     "grant-1",
	}, "alice", "read write", []details.Detail{
		mcpToolsDetail("https://mcp.example.com", "search"),
	})

	stack.pushAndConsent(t, ctx, CreatePARInput{
		ClientID:    "client-1",
		RedirectURI: "https://app.example.com/cb",
		Scope:       "write admin",
		Action:      models.ActionMerge,
		GrantID:     "grant-1",
	}, "alice", "write admin", []details.Detail{
		&details.FsDetail{Roots: []string{"/data"}, Actions: []string{"read"}},
	})

	scope, grantDetails, err := stack.grants.Aggregate(ctx, "grant-1")
	require.NoError(t, err)
	require.Equal(t, "read write admin", scope)
	require.Len(t, grantDetails, 2)
	require.Equal(t, details.TypeMCP, grantDetails[0].TypeCode())
	require.Equal(t, details.TypeFS, grantDetails[1].TypeCode())
}

func TestGrantAggregateReplaceIsExclusive(t *testing.T) {
	stack := newServiceStack(t)
	ctx := context.Background()

	stack.pushAndConsent(t, ctx, CreatePARInput{
		ClientID:    "client-1",
		RedirectURI: "https://app.example.com/cb",
		Scope:       "read write",
		GrantID:     "grant-1",
	}, "alice", "read write", []details.Detail{
		mcpToolsDetail("https://mcp.example.com", "search", "fetch"),
	})

	stack.pushAndConsent(t, ctx, CreatePARInput{
		ClientID:    "client-1",
		RedirectURI: "https://app.example.com/cb",
		Scope:       "audit",
		Action:      models.ActionReplace,
		GrantID:     "grant-1",
	}, "alice", "audit", []details.Detail{
		mcpToolsDetail("https://mcp.example.com", "report"),
	})

	scope, grantDetails, err := stack.grants.Aggregate(ctx, "grant-1")
	require.NoError(t, err)
	require.Equal(t, "audit", scope, "replace discards prior scope")
	require.Len(t, grantDetails, 1)

	mcp, ok := grantDetails[0].(*details.McpDetail)
	require.True(t, ok)
	require.Contains(t, mcp.Tools, "report")
	require.NotContains(t, mcp.Tools, "search")

	// The displaced rows stay on disk, flagged rather than deleted.
	var superseded int64
	require.NoError(t, stack.db.Model(&models.AuthorizationDetail{}).
		Where("grant_id = ? AND superseded = ?", "grant-1", true).
		Count(&superseded).Error)
	require.EqualValues(t, 1, superseded)
}
