package reply

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatpilot/chatpilot/internal/approval"
	"github.com/chatpilot/chatpilot/internal/contacts"
	"github.com/chatpilot/chatpilot/internal/gallery"
	"github.com/chatpilot/chatpilot/internal/history"
	"github.com/chatpilot/chatpilot/internal/humanize"
	"github.com/chatpilot/chatpilot/internal/llm"
	"github.com/chatpilot/chatpilot/internal/notify"
	"github.com/chatpilot/chatpilot/internal/objectives"
	"github.com/chatpilot/chatpilot/internal/persona"
	"github.com/chatpilot/chatpilot/internal/rules"
	"github.com/chatpilot/chatpilot/internal/settings"
	"github.com/chatpilot/chatpilot/internal/state"
)

// scriptedCompleter returns queued responses in order and keeps returning
// the last one once the script runs out.
type scriptedCompleter struct {
	script []string
	calls  int
	seen   []llm.Request
}

func (s *scriptedCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.calls++
	s.seen = append(s.seen, req)
	idx := s.calls - 1
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	return s.script[idx], nil
}

type engineFixture struct {
	engine   *Engine
	contacts *contacts.Service
	history  *history.Service
	settings *settings.Service
	persona  *persona.Service
	gallery  *gallery.Service
	approval *approval.Service
	backend  *scriptedCompleter
}

func newTestEngine(t *testing.T, backend *scriptedCompleter, images ...string) engineFixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := state.Open(log, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	contactSvc := contacts.NewService(log, store)
	historySvc := history.NewService(log, store)
	settingsSvc := settings.NewService(log, store)
	personaSvc := persona.NewService(log, store)
	notifySvc := notify.NewService(log, store)
	approvalSvc := approval.NewService(log, store, historySvc)
	objectiveSvc := objectives.NewService(log, contactSvc, backend, notifySvc)

	tz := "UTC"
	_, err = settingsSvc.Upsert(context.Background(), settings.UpsertRequest{Timezone: &tz})
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range images {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("img"), 0o644))
	}
	gallerySvc := gallery.NewService(log, store, dir)

	nowFn := func() time.Time { return time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC) }
	cascade := rules.NewCascade(log,
		rules.ClockRule{Settings: settingsSvc, Now: nowFn},
		rules.ActivityRule{Settings: settingsSvc, Now: nowFn},
		rules.ResetGalleryRule{Gallery: gallerySvc},
		rules.GratitudeGuardRule{},
		rules.PhotoRequestRule{
			Gallery: gallerySvc,
			History: historySvc,
			Rand:    rand.New(rand.NewSource(1)),
		},
	)

	engine := NewEngine(log, "Maria", "", Deps{
		Contacts:   contactSvc,
		History:    historySvc,
		Settings:   settingsSvc,
		Persona:    personaSvc,
		Gallery:    gallerySvc,
		Approval:   approvalSvc,
		Objectives: objectiveSvc,
		Notify:     notifySvc,
		Cascade:    cascade,
		Backend:    backend,
		Rewriter:   humanize.NewRewriterWithSource(rand.NewSource(1)),
	})
	return engineFixture{
		engine:   engine,
		contacts: contactSvc,
		history:  historySvc,
		settings: settingsSvc,
		persona:  personaSvc,
		gallery:  gallerySvc,
		approval: approvalSvc,
		backend:  backend,
	}
}

func TestReplyEmptyMessage(t *testing.T) {
	f := newTestEngine(t, &scriptedCompleter{script: []string{"hi"}})
	ctx := context.Background()
	require.NoError(t, f.contacts.Add(ctx, "a@c.us"))

	resp, err := f.engine.Reply(ctx, "a@c.us", "   ")
	require.NoError(t, err)
	assert.Empty(t, resp.Reply)

	msgs, err := f.history.Tail(ctx, "a@c.us", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestReplyUnknownContactIgnored(t *testing.T) {
	f := newTestEngine(t, &scriptedCompleter{script: []string{"hi"}})
	ctx := context.Background()

	resp, err := f.engine.Reply(ctx, "ghost@c.us", "hello there friend")
	require.NoError(t, err)
	assert.Empty(t, resp.Reply)
	assert.Zero(t, f.backend.calls)

	msgs, err := f.history.Tail(ctx, "ghost@c.us", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestReplyDisabledContactIgnored(t *testing.T) {
	f := newTestEngine(t, &scriptedCompleter{script: []string{"hi"}})
	ctx := context.Background()
	require.NoError(t, f.contacts.Add(ctx, "a@c.us"))
	enabled, err := f.contacts.Toggle(ctx, "a@c.us")
	require.NoError(t, err)
	require.False(t, enabled)

	resp, err := f.engine.Reply(ctx, "a@c.us", "hello there friend")
	require.NoError(t, err)
	assert.Empty(t, resp.Reply)
	assert.Zero(t, f.backend.calls)
}

func TestReplyRuleShortCircuitsGeneration(t *testing.T) {
	f := newTestEngine(t, &scriptedCompleter{script: []string{"unused"}})
	ctx := context.Background()
	require.NoError(t, f.contacts.Add(ctx, "a@c.us"))

	resp, err := f.engine.Reply(ctx, "a@c.us", "wyd")
	require.NoError(t, err)
	assert.Equal(t, "I’m here working with my clients and doing related tasks.", resp.Reply)
	assert.Zero(t, f.backend.calls)

	msgs, err := f.history.Tail(ctx, "a@c.us", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, history.RoleUser, msgs[0].Role)
	assert.Equal(t, history.RoleAssistant, msgs[1].Role)
	assert.Equal(t, resp.Reply, msgs[1].Content)
}

func TestReplyGenerationFallback(t *testing.T) {
	f := newTestEngine(t, &scriptedCompleter{script: []string{"Nice to hear that!"}})
	ctx := context.Background()
	require.NoError(t, f.contacts.Add(ctx, "a@c.us"))

	resp, err := f.engine.Reply(ctx, "a@c.us", "tell me about your day")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Reply)
	assert.Equal(t, 1, f.backend.calls)
	assert.Contains(t, f.backend.seen[0].Messages[1].Content, "(Reply in English only)")

	msgs, err := f.history.Tail(ctx, "a@c.us", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, resp.Reply, msgs[1].Content)
}

func TestReplyRecordsKnowledgeGap(t *testing.T) {
	f := newTestEngine(t, &scriptedCompleter{script: []string{"[NEED_INFO: favorite food]"}})
	ctx := context.Background()
	require.NoError(t, f.contacts.Add(ctx, "a@c.us"))

	resp, err := f.engine.Reply(ctx, "a@c.us", "what is your favorite food")
	require.NoError(t, err)
	assert.Equal(t, "(⚠️ Missing info: favorite food)", resp.Reply)

	gaps, err := f.persona.Gaps(ctx)
	require.NoError(t, err)
	assert.Contains(t, gaps, "favorite food")
}

func TestReplyApprovalGateQueuesInsteadOfSending(t *testing.T) {
	f := newTestEngine(t, &scriptedCompleter{script: []string{"unused"}})
	ctx := context.Background()
	require.NoError(t, f.contacts.Add(ctx, "a@c.us"))
	on, err := f.settings.ToggleApproval(ctx)
	require.NoError(t, err)
	require.True(t, on)

	resp, err := f.engine.Reply(ctx, "a@c.us", "wyd")
	require.NoError(t, err)
	assert.Empty(t, resp.Reply)

	pending, err := f.approval.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a@c.us", pending[0].JID)
	assert.Equal(t, "wyd", pending[0].UserMsg)
	assert.Equal(t, "I’m here working with my clients and doing related tasks.", pending[0].Reply)

	// Only the user turn is logged until the reply is approved.
	msgs, err := f.history.Tail(ctx, "a@c.us", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, history.RoleUser, msgs[0].Role)
}

func TestReplyCommitsImagesOnDelivery(t *testing.T) {
	f := newTestEngine(t, &scriptedCompleter{script: []string{"unused"}}, "a.jpg", "b.jpg", "c.jpg")
	ctx := context.Background()
	require.NoError(t, f.contacts.Add(ctx, "a@c.us"))

	resp, err := f.engine.Reply(ctx, "a@c.us", "send me photos")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, resp.Images)

	sent, err := f.gallery.Sent(ctx, "a@c.us")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, sent)
}

func TestReplyQueuedImagesNotCommitted(t *testing.T) {
	f := newTestEngine(t, &scriptedCompleter{script: []string{"unused"}}, "a.jpg", "b.jpg")
	ctx := context.Background()
	require.NoError(t, f.contacts.Add(ctx, "a@c.us"))
	_, err := f.settings.ToggleApproval(ctx)
	require.NoError(t, err)

	resp, err := f.engine.Reply(ctx, "a@c.us", "send me photos")
	require.NoError(t, err)
	assert.Empty(t, resp.Reply)

	pending, err := f.approval.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, pending[0].Images)

	sent, err := f.gallery.Sent(ctx, "a@c.us")
	require.NoError(t, err)
	assert.Empty(t, sent)
}

func TestReplyTranslatesNonEnglish(t *testing.T) {
	f := newTestEngine(t, &scriptedCompleter{script: []string{
		"I miss you too, a lot.",
		"Yo también te extraño mucho.",
	}})
	ctx := context.Background()
	require.NoError(t, f.contacts.Add(ctx, "a@c.us"))

	resp, err := f.engine.Reply(ctx, "a@c.us", "Hola querida, ¿cómo estás? Te extraño mucho y pienso en ti todos los días.")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Reply)
	require.Equal(t, 2, f.backend.calls)
	assert.Contains(t, f.backend.seen[1].Messages[1].Content, "Translate to natural ES:")
}
