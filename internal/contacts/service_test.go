package contacts

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatpilot/chatpilot/internal/state"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := state.Open(log, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewService(log, store)
}

func TestAddAndList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "a@c.us"))
	roster, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "a@c.us", roster[0].JID)
	assert.True(t, roster[0].Enabled)
}

func TestAddIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "a@c.us"))
	require.NoError(t, svc.Add(ctx, "a@c.us"))
	roster, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, roster, 1)
}

func TestIsEnabledUnknownContact(t *testing.T) {
	svc := newTestService(t)

	enabled, err := svc.IsEnabled(context.Background(), "nobody@c.us")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestToggle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "a@c.us"))

	enabled, err := svc.Toggle(ctx, "a@c.us")
	require.NoError(t, err)
	assert.False(t, enabled)

	got, err := svc.IsEnabled(ctx, "a@c.us")
	require.NoError(t, err)
	assert.False(t, got)

	enabled, err = svc.Toggle(ctx, "a@c.us")
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestToggleUnknownContact(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Toggle(context.Background(), "nobody@c.us")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveDropsOwnState(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "a@c.us"))
	_, err := svc.UpdateInfo(ctx, "a@c.us", func(info *Info) error {
		info.Objectives = append(info.Objectives, Objective{ID: "x", Status: StatusInProgress})
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, "a@c.us"))

	roster, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, roster)

	// Re-adding starts from a clean slate.
	require.NoError(t, svc.Add(ctx, "a@c.us"))
	info, err := svc.Info(ctx, "a@c.us")
	require.NoError(t, err)
	assert.Empty(t, info.Objectives)
}

func TestEnsureStructsOnlyForRosterContacts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureStructs(ctx, "stranger@c.us"))
	_, err := svc.Get(ctx, "stranger@c.us")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateInfoPersists(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "a@c.us"))
	_, err := svc.UpdateInfo(ctx, "a@c.us", func(info *Info) error {
		info.MessagesSinceProfileUpdate = 7
		return nil
	})
	require.NoError(t, err)

	info, err := svc.Info(ctx, "a@c.us")
	require.NoError(t, err)
	assert.Equal(t, 7, info.MessagesSinceProfileUpdate)
}
