package reply

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatpilot/chatpilot/internal/approval"
	"github.com/chatpilot/chatpilot/internal/history"
)

func TestRegeneratePending(t *testing.T) {
	f := newTestEngine(t, &scriptedCompleter{script: []string{"A warmer reply."}})
	ctx := context.Background()
	require.NoError(t, f.contacts.Add(ctx, "a@c.us"))
	require.NoError(t, f.approval.Enqueue(ctx, approval.Item{
		JID: "a@c.us", UserMsg: "hi", Reply: "hello", Images: []string{"a.jpg"},
	}))

	require.NoError(t, f.engine.RegeneratePending(ctx, 0, "be warmer"))

	pending, err := f.approval.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "A warmer reply.", pending[0].Reply)
	assert.Equal(t, []string{"a.jpg"}, pending[0].Images)

	require.Equal(t, 1, f.backend.calls)
	req := f.backend.seen[0]
	require.Len(t, req.Messages, 3)
	assert.Equal(t, "hi", req.Messages[1].Content)
	assert.Equal(t, "Regenerate the reply with this guidance: be warmer", req.Messages[2].Content)
}

func TestRegeneratePendingOutOfRange(t *testing.T) {
	f := newTestEngine(t, &scriptedCompleter{script: []string{"x"}})

	assert.Error(t, f.engine.RegeneratePending(context.Background(), 0, "anything"))
}

func TestFillGapStoresFactAndResolves(t *testing.T) {
	f := newTestEngine(t, &scriptedCompleter{script: []string{"x"}})
	ctx := context.Background()
	require.NoError(t, f.persona.RecordGap(ctx, "favorite food"))

	require.NoError(t, f.engine.FillGap(ctx, "favorite food", "tamales", ""))

	facts, err := f.persona.Facts(ctx)
	require.NoError(t, err)
	assert.Contains(t, facts, "favorite food: tamales")

	gaps, err := f.persona.Gaps(ctx)
	require.NoError(t, err)
	assert.NotContains(t, gaps, "favorite food")
}

func TestFillGapPersonalityTarget(t *testing.T) {
	f := newTestEngine(t, &scriptedCompleter{script: []string{"x"}})
	ctx := context.Background()

	require.NoError(t, f.engine.FillGap(ctx, "humor", "playful and teasing", "personality"))

	traits, err := f.persona.Traits(ctx)
	require.NoError(t, err)
	assert.Contains(t, traits, "humor: playful and teasing")

	facts, err := f.persona.Facts(ctx)
	require.NoError(t, err)
	assert.NotContains(t, facts, "humor: playful and teasing")
}

func TestFillGapRequiresKeyAndValue(t *testing.T) {
	f := newTestEngine(t, &scriptedCompleter{script: []string{"x"}})

	assert.Error(t, f.engine.FillGap(context.Background(), "", "value", ""))
	assert.Error(t, f.engine.FillGap(context.Background(), "key", "  ", ""))
}

func TestFillGapRegeneratesBlockedPending(t *testing.T) {
	f := newTestEngine(t, &scriptedCompleter{script: []string{"I love tamales, honestly."}})
	ctx := context.Background()
	require.NoError(t, f.contacts.Add(ctx, "a@c.us"))
	require.NoError(t, f.approval.Enqueue(ctx, approval.Item{
		JID: "a@c.us", UserMsg: "what is your favorite food", Reply: "(⚠️ Missing info: favorite food)",
	}))
	require.NoError(t, f.approval.Enqueue(ctx, approval.Item{
		JID: "a@c.us", UserMsg: "hey", Reply: "hey you",
	}))

	require.NoError(t, f.engine.FillGap(ctx, "favorite food", "tamales", ""))

	pending, err := f.approval.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.NotContains(t, pending[0].Reply, "Missing info")
	assert.Equal(t, "hey you", pending[1].Reply)
	assert.Equal(t, 1, f.backend.calls)
}

func TestRefreshContactProfileAppliesJSON(t *testing.T) {
	f := newTestEngine(t, &scriptedCompleter{script: []string{
		`{"updated_info": "Works as a nurse.", "updated_style": "Short messages, lots of emoji."}`,
	}})
	ctx := context.Background()
	require.NoError(t, f.contacts.Add(ctx, "a@c.us"))
	require.NoError(t, f.history.Append(ctx, "a@c.us", history.RoleUser, "i work night shifts at the hospital"))

	require.NoError(t, f.engine.RefreshContactProfile(ctx, "a@c.us"))

	profile, err := f.persona.Profile(ctx, "a@c.us")
	require.NoError(t, err)
	assert.Equal(t, "Works as a nurse.", profile.Info)
	assert.Equal(t, "Short messages, lots of emoji.", profile.Style)
}

func TestRefreshContactProfileSkipsWithoutTranscript(t *testing.T) {
	f := newTestEngine(t, &scriptedCompleter{script: []string{"x"}})
	ctx := context.Background()
	require.NoError(t, f.contacts.Add(ctx, "a@c.us"))

	require.NoError(t, f.engine.RefreshContactProfile(ctx, "a@c.us"))
	assert.Zero(t, f.backend.calls)
}

func TestSummarizeStoresSummary(t *testing.T) {
	f := newTestEngine(t, &scriptedCompleter{script: []string{"They talk daily and share meals."}})
	ctx := context.Background()
	require.NoError(t, f.contacts.Add(ctx, "a@c.us"))
	require.NoError(t, f.history.Append(ctx, "a@c.us", history.RoleUser, "dinner was great"))

	summary, err := f.engine.Summarize(ctx, "a@c.us")
	require.NoError(t, err)
	assert.Equal(t, "They talk daily and share meals.", summary)

	profile, err := f.persona.Profile(ctx, "a@c.us")
	require.NoError(t, err)
	assert.Equal(t, "They talk daily and share meals.", profile.Summary)
}
