// Package history manages per-contact chat logs.
package history

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/chatpilot/chatpilot/internal/state"
)

// Merge deduplicates against this many trailing entries.
const dedupWindow = 200

type Service struct {
	store  *state.Store
	logger *slog.Logger
}

func NewService(log *slog.Logger, store *state.Store) *Service {
	return &Service{
		store:  store,
		logger: log.With(slog.String("service", "history")),
	}
}

// Append adds a message with the current timestamp to a contact's log.
func (s *Service) Append(ctx context.Context, jid, role, content string) error {
	return s.AppendMessage(ctx, jid, Message{
		Role:    role,
		Content: content,
		TS:      time.Now().UTC(),
	})
}

// AppendMessage adds a fully-formed message to a contact's log.
func (s *Service) AppendMessage(ctx context.Context, jid string, msg Message) error {
	_, err := state.Update(ctx, s.store, state.SectionHistory, func(doc *map[string][]Message) error {
		if *doc == nil {
			*doc = map[string][]Message{}
		}
		(*doc)[jid] = append((*doc)[jid], msg)
		return nil
	})
	return err
}

// Tail returns the trailing n messages of a contact's log.
func (s *Service) Tail(ctx context.Context, jid string, n int) ([]Message, error) {
	doc, err := state.Get[map[string][]Message](ctx, s.store, state.SectionHistory)
	if err != nil {
		return nil, err
	}
	msgs := doc[jid]
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Merge appends parsed messages that are not already present, deduplicating
// by (role, trimmed content) against the trailing window of the existing log.
// Returns the number of messages actually added.
func (s *Service) Merge(ctx context.Context, jid string, msgs []Message) (int, error) {
	added := 0
	_, err := state.Update(ctx, s.store, state.SectionHistory, func(doc *map[string][]Message) error {
		if *doc == nil {
			*doc = map[string][]Message{}
		}
		hist := (*doc)[jid]
		tail := hist
		if len(tail) > dedupWindow {
			tail = tail[len(tail)-dedupWindow:]
		}
		type key struct{ role, content string }
		seen := make(map[key]struct{}, len(tail))
		for _, m := range tail {
			seen[key{m.Role, strings.TrimSpace(m.Content)}] = struct{}{}
		}
		for _, m := range msgs {
			k := key{m.Role, strings.TrimSpace(m.Content)}
			if _, ok := seen[k]; ok {
				continue
			}
			hist = append(hist, m)
			seen[k] = struct{}{}
			added++
		}
		(*doc)[jid] = hist
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// Remove drops a contact's log entirely.
func (s *Service) Remove(ctx context.Context, jid string) error {
	_, err := state.Update(ctx, s.store, state.SectionHistory, func(doc *map[string][]Message) error {
		delete(*doc, jid)
		return nil
	})
	return err
}

// Transcript renders the trailing n messages as "role: content" lines for
// prompt composition.
func (s *Service) Transcript(ctx context.Context, jid string, n int) (string, error) {
	msgs, err := s.Tail(ctx, jid, n)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, m.Role+": "+m.Content)
	}
	return strings.Join(lines, "\n"), nil
}
