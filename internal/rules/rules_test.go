package rules

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

	"github.com/chatpilot/chatpilot/internal/gallery"
	"github.com/chatpilot/chatpilot/internal/history"
	"github.com/chatpilot/chatpilot/internal/settings"
	"github.com/chatpilot/chatpilot/internal/state"
)

type fixture struct {
	settings *settings.Service
	gallery  *gallery.Service
	history  *history.Service
	cascade  *Cascade
}

func newFixture(t *testing.T, now time.Time, images ...string) fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := state.Open(log, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	settingsSvc := settings.NewService(log, store)
	tz := "UTC"
	_, err = settingsSvc.Upsert(context.Background(), settings.UpsertRequest{Timezone: &tz})
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range images {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("img"), 0o644))
	}
	gallerySvc := gallery.NewService(log, store, dir)
	_, err = gallerySvc.Refresh(context.Background())
	require.NoError(t, err)

	historySvc := history.NewService(log, store)

	nowFn := func() time.Time { return now }
	cascade := NewCascade(log,
		ClockRule{Settings: settingsSvc, Now: nowFn},
		ActivityRule{Settings: settingsSvc, Now: nowFn},
		ResetGalleryRule{Gallery: gallerySvc},
		GratitudeGuardRule{},
		PhotoRequestRule{
			Gallery: gallerySvc,
			History: historySvc,
			Rand:    rand.New(rand.NewSource(1)),
		},
	)
	return fixture{settings: settingsSvc, gallery: gallerySvc, history: historySvc, cascade: cascade}
}

func at(hour int) time.Time {
	return time.Date(2024, 5, 6, hour, 4, 0, 0, time.UTC)
}

func TestActivityLunchBand(t *testing.T) {
	f := newFixture(t, at(12))

	out, err := f.cascade.Evaluate(context.Background(), "a@c.us", "what are you doing")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "I’m on lunch break right now, back to work at 1 PM.", out.Reply)
}

func TestActivityWorkingBand(t *testing.T) {
	f := newFixture(t, at(9))

	out, err := f.cascade.Evaluate(context.Background(), "a@c.us", "wyd")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "I’m here working with my clients and doing related tasks.", out.Reply)
}

func TestActivityOutsideBandsFallsThrough(t *testing.T) {
	f := newFixture(t, at(20))

	out, err := f.cascade.Evaluate(context.Background(), "a@c.us", "what are you doing")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestActivitySpanishPhrasing(t *testing.T) {
	f := newFixture(t, at(9))

	out, err := f.cascade.Evaluate(context.Background(), "a@c.us", "que estas haciendo?")
	require.NoError(t, err)
	require.NotNil(t, out)
}

func TestClockReply(t *testing.T) {
	f := newFixture(t, time.Date(2024, 5, 6, 15, 4, 0, 0, time.UTC))

	out, err := f.cascade.Evaluate(context.Background(), "a@c.us", "what is the time?")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "The current time in Guatemala is 3:04 PM.", out.Reply)
}

func TestClockTakesPrecedenceOverActivity(t *testing.T) {
	// Both patterns match; the clock answer must win even inside an
	// activity hour band.
	f := newFixture(t, time.Date(2024, 5, 6, 12, 30, 0, 0, time.UTC))

	out, err := f.cascade.Evaluate(context.Background(), "a@c.us", "what are you doing and what is the time?")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Contains(t, out.Reply, "The current time in Guatemala is")
}

func TestResetGallery(t *testing.T) {
	f := newFixture(t, at(20), "a.jpg", "b.jpg")
	ctx := context.Background()

	require.NoError(t, f.gallery.MarkSent(ctx, "a@c.us", []string{"a.jpg"}))

	out, err := f.cascade.Evaluate(ctx, "a@c.us", "please reset photos")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Contains(t, out.Reply, "Resetting the gallery")

	sent, err := f.gallery.Sent(ctx, "a@c.us")
	require.NoError(t, err)
	assert.Empty(t, sent)
}

func TestGratitudeGuard(t *testing.T) {
	f := newFixture(t, at(20))

	out, err := f.cascade.Evaluate(context.Background(), "a@c.us", "thanks for the pics!")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Contains(t, out.Reply, "I’m glad you liked them")
}

func TestExplicitRequestDeflected(t *testing.T) {
	f := newFixture(t, at(20))

	out, err := f.cascade.Evaluate(context.Background(), "a@c.us", "send nsfw")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Contains(t, out.Reply, "I’m glad you liked them")
}

func TestPhotoRequestServesBatch(t *testing.T) {
	f := newFixture(t, at(20), "a.jpg", "b.jpg", "c.jpg")
	ctx := context.Background()

	require.NoError(t, f.history.Append(ctx, "a@c.us", history.RoleUser, "send me photos"))
	out, err := f.cascade.Evaluate(ctx, "a@c.us", "send me photos")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, out.Images)
	assert.NotEmpty(t, out.Reply)
}

func TestMorePicsWithoutContextAsksClarification(t *testing.T) {
	f := newFixture(t, at(20), "a.jpg", "b.jpg")
	ctx := context.Background()

	// The inbound message is already logged when rules run.
	require.NoError(t, f.history.Append(ctx, "a@c.us", history.RoleUser, "can I get more pics"))
	out, err := f.cascade.Evaluate(ctx, "a@c.us", "can I get more pics")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Empty(t, out.Images)
	assert.Contains(t, out.Reply, "Do you mean more photos?")
}

func TestMoreAfterDeliveryServesNextBatch(t *testing.T) {
	f := newFixture(t, at(20), "a.jpg", "b.jpg", "c.jpg")
	ctx := context.Background()

	require.NoError(t, f.gallery.MarkSent(ctx, "a@c.us", []string{"a.jpg", "b.jpg"}))
	require.NoError(t, f.history.Append(ctx, "a@c.us", history.RoleUser, "more please"))

	out, err := f.cascade.Evaluate(ctx, "a@c.us", "more please")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, []string{"c.jpg"}, out.Images)
}

func TestMoreAfterRecentAskServesBatch(t *testing.T) {
	f := newFixture(t, at(20), "a.jpg", "b.jpg")
	ctx := context.Background()

	require.NoError(t, f.history.Append(ctx, "a@c.us", history.RoleUser, "do you have any photos?"))
	require.NoError(t, f.history.Append(ctx, "a@c.us", history.RoleAssistant, "maybe"))
	require.NoError(t, f.history.Append(ctx, "a@c.us", history.RoleUser, "another one"))

	out, err := f.cascade.Evaluate(ctx, "a@c.us", "another one")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, out.Images)
}

func TestExhaustedPoolCannedLine(t *testing.T) {
	f := newFixture(t, at(20), "a.jpg")
	ctx := context.Background()

	require.NoError(t, f.gallery.MarkSent(ctx, "a@c.us", []string{"a.jpg"}))
	require.NoError(t, f.history.Append(ctx, "a@c.us", history.RoleUser, "send me photos"))

	out, err := f.cascade.Evaluate(ctx, "a@c.us", "send me photos")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Empty(t, out.Images)
	assert.NotContains(t, out.Reply, "Do you mean")
}

func TestNoRuleMatches(t *testing.T) {
	f := newFixture(t, at(20))

	out, err := f.cascade.Evaluate(context.Background(), "a@c.us", "how was your day?")
	require.NoError(t, err)
	assert.Nil(t, out)
}
