package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agent-zon/grantd/internal/database/testutil"
	apperrors "github.com/agent-zon/grantd/pkg/errors"
)

func TestClientVerify(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	clients, err := NewClientService(db)
	require.NoError(t, err)
	ctx := context.Background()

	// Unregistered clients pass: registration is optional.
	require.NoError(t, clients.Verify(ctx, "unknown", ""))

	_, err = clients.Register(ctx, "client-1", "Test Client", "s3cret")
	require.NoError(t, err)

	require.NoError(t, clients.Verify(ctx, "client-1", "s3cret"))
	require.ErrorIs(t, clients.Verify(ctx, "client-1", "wrong"), apperrors.ErrInvalidClient)
	require.ErrorIs(t, clients.Verify(ctx, "client-1", ""), apperrors.ErrInvalidClient)

	// A registration without a secret is public.
	_, err = clients.Register(ctx, "client-2", "Public Client", "")
	require.NoError(t, err)
	require.NoError(t, clients.Verify(ctx, "client-2", ""))
}

func TestClientRegisterUpserts(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	clients, err := NewClientService(db)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = clients.Register(ctx, "", "No ID", "")
	require.Error(t, err)

	first, err := clients.Register(ctx, "client-1", "First", "one")
	require.NoError(t, err)

	second, err := clients.Register(ctx, "client-1", "Renamed", "two")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	require.NoError(t, clients.Verify(ctx, "client-1", "two"))
	require.ErrorIs(t, clients.Verify(ctx, "client-1", "one"), apperrors.ErrInvalidClient)
}
