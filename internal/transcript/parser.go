// Package transcript parses exported chat logs and merges them into contact
// histories.
package transcript

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/chatpilot/chatpilot/internal/history"
)

// headerRe matches the first line of a message:
// "<date>, <time> [AM|PM] - <sender>: <content>" with / or - date separators
// and an en-dash tolerated before the sender.
var headerRe = regexp.MustCompile(
	`^(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}),?\s+(\d{1,2}:\d{2})\s*((?i:AM|PM))?\s*[-\x{2013}]\s([^:]+):\s(.*)$`,
)

var dateSep = regexp.MustCompile(`[/-]`)

// Export placeholders for stripped media, across client languages. Matching
// lines are dropped entirely rather than kept as content.
var mediaPlaceholders = map[string]struct{}{
	"<media omitted>":             {},
	"<arquivo de mídia oculto>":   {},
	"<imagen omitida>":            {},
	"<imagem omitida>":            {},
	"<immagine omessa>":           {},
	"<medien ausgeschlossen>":     {},
}

func isMediaPlaceholder(line string) bool {
	_, ok := mediaPlaceholders[strings.ToLower(strings.TrimSpace(line))]
	return ok
}

// Parse converts an export blob into a normalized message sequence.
// Sender names matching selfLabels (exact, case-sensitive) become assistant
// turns; everything else is the contact. Lines that do not open a new message
// are continuations of the previous one.
func Parse(text string, selfLabels []string, loc *time.Location, dayFirst bool) []history.Message {
	self := make(map[string]struct{}, len(selfLabels))
	for _, label := range selfLabels {
		self[label] = struct{}{}
	}

	var messages []history.Message
	var cur *history.Message

	for _, line := range strings.Split(text, "\n") {
		m := headerRe.FindStringSubmatch(line)
		if m == nil {
			if cur != nil && !isMediaPlaceholder(line) {
				cur.Content += "\n" + strings.TrimSpace(line)
			}
			continue
		}

		if cur != nil {
			messages = append(messages, *cur)
			cur = nil
		}

		dateS, timeS, ampm, sender, content := m[1], m[2], m[3], m[4], m[5]
		if isMediaPlaceholder(content) {
			continue
		}

		role := history.RoleUser
		if _, ok := self[strings.TrimSpace(sender)]; ok {
			role = history.RoleAssistant
		}
		cur = &history.Message{
			Role:    role,
			Content: strings.TrimSpace(content),
			TS:      parseTimestamp(dateS, timeS, ampm, dayFirst, loc),
		}
	}
	if cur != nil {
		messages = append(messages, *cur)
	}

	kept := messages[:0]
	for _, m := range messages {
		if strings.TrimSpace(m.Content) != "" {
			kept = append(kept, m)
		}
	}
	return kept
}

// parseTimestamp resolves the header date and time. Two-digit years are
// assumed 2000s; a first field above 12 forces day-first regardless of the
// flag. Anything malformed falls back to the current wall-clock time.
func parseTimestamp(dateS, timeS, ampm string, dayFirst bool, loc *time.Location) time.Time {
	now := time.Now().UTC()

	parts := dateSep.Split(strings.TrimSpace(dateS), -1)
	if len(parts) != 3 {
		return now
	}
	a, errA := strconv.Atoi(parts[0])
	b, errB := strconv.Atoi(parts[1])
	year, errY := strconv.Atoi(parts[2])
	if errA != nil || errB != nil || errY != nil {
		return now
	}
	if year < 100 {
		year += 2000
	}

	var day, month int
	if dayFirst || a > 12 {
		day, month = a, b
	} else {
		month, day = a, b
	}

	hhmm := strings.SplitN(strings.TrimSpace(timeS), ":", 2)
	if len(hhmm) != 2 {
		return now
	}
	hour, errH := strconv.Atoi(hhmm[0])
	minute, errM := strconv.Atoi(hhmm[1])
	if errH != nil || errM != nil {
		return now
	}

	switch strings.ToLower(ampm) {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	if loc == nil {
		loc = time.UTC
	}
	ts := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	// time.Date normalizes out-of-range fields; round-trip mismatch means the
	// header was malformed.
	if int(ts.Month()) != month || ts.Day() != day || ts.Hour() != hour {
		return now
	}
	return ts
}
