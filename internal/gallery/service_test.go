package gallery

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatpilot/chatpilot/internal/state"
)

func newTestService(t *testing.T, images ...string) *Service {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := state.Open(log, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	dir := t.TempDir()
	for _, name := range images {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("img"), 0o644))
	}
	svc := NewService(log, store, dir)
	_, err = svc.Refresh(context.Background())
	require.NoError(t, err)
	return svc
}

func TestRefreshSortsLexicographically(t *testing.T) {
	svc := newTestService(t, "c.jpg", "a.jpg", "b.jpg")

	pool, err := svc.Pool(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, pool)
}

func TestRefreshMissingDirYieldsEmptyPool(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := state.Open(log, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := NewService(log, store, filepath.Join(t.TempDir(), "does-not-exist"))
	pool, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pool)
}

func TestNextBatchCapsAtTwoInPoolOrder(t *testing.T) {
	svc := newTestService(t, "a.jpg", "b.jpg", "c.jpg")

	batch, err := svc.NextBatch(context.Background(), "a@c.us")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, batch)
}

func TestNextBatchSkipsSent(t *testing.T) {
	svc := newTestService(t, "a.jpg", "b.jpg", "c.jpg")
	ctx := context.Background()

	require.NoError(t, svc.MarkSent(ctx, "a@c.us", []string{"a.jpg", "b.jpg"}))

	batch, err := svc.NextBatch(ctx, "a@c.us")
	require.NoError(t, err)
	assert.Equal(t, []string{"c.jpg"}, batch)
}

func TestNextBatchDoesNotCommit(t *testing.T) {
	svc := newTestService(t, "a.jpg", "b.jpg")
	ctx := context.Background()

	first, err := svc.NextBatch(ctx, "a@c.us")
	require.NoError(t, err)
	second, err := svc.NextBatch(ctx, "a@c.us")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExhaustedPool(t *testing.T) {
	svc := newTestService(t, "a.jpg", "b.jpg")
	ctx := context.Background()

	require.NoError(t, svc.MarkSent(ctx, "a@c.us", []string{"a.jpg", "b.jpg"}))
	batch, err := svc.NextBatch(ctx, "a@c.us")
	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestResetSentReplaysPool(t *testing.T) {
	svc := newTestService(t, "a.jpg", "b.jpg")
	ctx := context.Background()

	require.NoError(t, svc.MarkSent(ctx, "a@c.us", []string{"a.jpg", "b.jpg"}))
	require.NoError(t, svc.ResetSent(ctx, "a@c.us"))

	batch, err := svc.NextBatch(ctx, "a@c.us")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, batch)
}

func TestSentLogsAreIndependentPerContact(t *testing.T) {
	svc := newTestService(t, "a.jpg", "b.jpg", "c.jpg")
	ctx := context.Background()

	require.NoError(t, svc.MarkSent(ctx, "a@c.us", []string{"a.jpg", "b.jpg"}))

	batch, err := svc.NextBatch(ctx, "b@c.us")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, batch)

	received, err := svc.HasReceived(ctx, "b@c.us")
	require.NoError(t, err)
	assert.False(t, received)
}
