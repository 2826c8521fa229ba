package transcript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatpilot/chatpilot/internal/history"
)

func TestParseContinuationLines(t *testing.T) {
	text := "01/02/24, 10:00 - Alice: Hello\nworld"

	msgs := Parse(text, []string{"Bob"}, time.UTC, false)
	require.Len(t, msgs, 1)
	assert.Equal(t, history.RoleUser, msgs[0].Role)
	assert.Equal(t, "Hello\nworld", msgs[0].Content)
	assert.Equal(t, time.Date(2024, time.January, 2, 10, 0, 0, 0, time.UTC), msgs[0].TS)
}

func TestParseSelfLabelBecomesAssistant(t *testing.T) {
	text := "01/02/24, 10:00 - Bob: hey\n01/02/24, 10:01 - Alice: hi"

	msgs := Parse(text, []string{"Bob"}, time.UTC, false)
	require.Len(t, msgs, 2)
	assert.Equal(t, history.RoleAssistant, msgs[0].Role)
	assert.Equal(t, history.RoleUser, msgs[1].Role)
}

func TestParseTwelveHourClock(t *testing.T) {
	text := "01/02/24, 1:30 PM - Alice: afternoon\n01/02/24, 12:05 AM - Alice: midnight"

	msgs := Parse(text, nil, time.UTC, false)
	require.Len(t, msgs, 2)
	assert.Equal(t, 13, msgs[0].TS.Hour())
	assert.Equal(t, 30, msgs[0].TS.Minute())
	assert.Equal(t, 0, msgs[1].TS.Hour())
}

func TestParseDayFirstFlag(t *testing.T) {
	text := "03/04/24, 10:00 - Alice: hi"

	msgs := Parse(text, nil, time.UTC, true)
	require.Len(t, msgs, 1)
	assert.Equal(t, time.April, msgs[0].TS.Month())
	assert.Equal(t, 3, msgs[0].TS.Day())
}

func TestParseLargeFirstFieldForcesDayFirst(t *testing.T) {
	text := "25/12/23, 10:00 - Alice: merry christmas"

	msgs := Parse(text, nil, time.UTC, false)
	require.Len(t, msgs, 1)
	assert.Equal(t, time.December, msgs[0].TS.Month())
	assert.Equal(t, 25, msgs[0].TS.Day())
	assert.Equal(t, 2023, msgs[0].TS.Year())
}

func TestParseDashDateSeparator(t *testing.T) {
	text := "01-02-2024, 10:00 - Alice: hi"

	msgs := Parse(text, nil, time.UTC, false)
	require.Len(t, msgs, 1)
	assert.Equal(t, 2024, msgs[0].TS.Year())
}

func TestParseDropsMediaPlaceholders(t *testing.T) {
	text := "01/02/24, 10:00 - Alice: <Media omitted>\n" +
		"01/02/24, 10:01 - Alice: real message\n" +
		"<media omitted>\n" +
		"still part of it"

	msgs := Parse(text, nil, time.UTC, false)
	require.Len(t, msgs, 1)
	assert.Equal(t, "real message\nstill part of it", msgs[0].Content)
}

func TestParseMalformedDateFallsBackToNow(t *testing.T) {
	text := "99/99/24, 10:00 - Alice: hi"

	before := time.Now().UTC()
	msgs := Parse(text, nil, time.UTC, false)
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].TS.Before(before))
}

func TestParseIgnoresLeadingNoise(t *testing.T) {
	text := "Messages to this chat are encrypted.\n01/02/24, 10:00 - Alice: hi"

	msgs := Parse(text, nil, time.UTC, false)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Content)
}

func TestParseDropsEmptyMessages(t *testing.T) {
	text := "01/02/24, 10:00 - Alice: \n01/02/24, 10:01 - Alice: hi"

	msgs := Parse(text, nil, time.UTC, false)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Content)
}

func TestParseHonorsLocation(t *testing.T) {
	loc := time.FixedZone("GT", -6*60*60)
	text := "01/02/24, 10:00 - Alice: hi"

	msgs := Parse(text, nil, loc, false)
	require.Len(t, msgs, 1)
	assert.Equal(t, loc, msgs[0].TS.Location())
}
