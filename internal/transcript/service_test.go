package transcript

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatpilot/chatpilot/internal/contacts"
	"github.com/chatpilot/chatpilot/internal/history"
	"github.com/chatpilot/chatpilot/internal/settings"
	"github.com/chatpilot/chatpilot/internal/state"
)

func newTestService(t *testing.T) (*Service, *contacts.Service, *history.Service) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := state.Open(log, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	contactSvc := contacts.NewService(log, store)
	historySvc := history.NewService(log, store)
	settingsSvc := settings.NewService(log, store)
	return NewService(log, contactSvc, historySvc, settingsSvc), contactSvc, historySvc
}

func TestImportUnknownContactDropped(t *testing.T) {
	svc, _, historySvc := newTestService(t)
	ctx := context.Background()

	res, err := svc.Import(ctx, "ghost@c.us", "01/02/24, 10:00 - Alice: hi", "Bob", false)
	require.NoError(t, err)
	assert.Zero(t, res.Parsed)
	assert.Zero(t, res.Added)

	msgs, err := historySvc.Tail(ctx, "ghost@c.us", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestImportMergesAndDeduplicates(t *testing.T) {
	svc, contactSvc, historySvc := newTestService(t)
	ctx := context.Background()
	require.NoError(t, contactSvc.Add(ctx, "a@c.us"))

	text := "01/02/24, 10:00 - Alice: hi\n01/02/24, 10:01 - Bob: hey"

	res, err := svc.Import(ctx, "a@c.us", text, "Bob", false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Parsed)
	assert.Equal(t, 2, res.Added)

	res, err = svc.Import(ctx, "a@c.us", text, "Bob", false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Parsed)
	assert.Equal(t, 0, res.Added)

	msgs, err := historySvc.Tail(ctx, "a@c.us", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, history.RoleUser, msgs[0].Role)
	assert.Equal(t, history.RoleAssistant, msgs[1].Role)
}
