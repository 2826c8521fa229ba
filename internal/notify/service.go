// Package notify keeps a bounded feed of operator-facing notifications.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/chatpilot/chatpilot/internal/state"
)

// The feed keeps only the most recent entries.
const maxNotifications = 50

// Notification is a single feed entry.
type Notification struct {
	JID     string    `json:"jid"`
	Message string    `json:"message"`
	TS      time.Time `json:"ts"`
}

type Service struct {
	store  *state.Store
	logger *slog.Logger
}

func NewService(log *slog.Logger, store *state.Store) *Service {
	return &Service{
		store:  store,
		logger: log.With(slog.String("service", "notify")),
	}
}

// Add appends a notification, trimming the feed to its bound.
func (s *Service) Add(ctx context.Context, jid, message string) error {
	_, err := state.Update(ctx, s.store, state.SectionNotifications, func(doc *[]Notification) error {
		*doc = append(*doc, Notification{
			JID:     jid,
			Message: message,
			TS:      time.Now().UTC(),
		})
		if len(*doc) > maxNotifications {
			*doc = (*doc)[len(*doc)-maxNotifications:]
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("notification append failed", slog.Any("error", err))
	}
	return err
}

// Drain returns all notifications and clears the feed.
func (s *Service) Drain(ctx context.Context) ([]Notification, error) {
	var out []Notification
	_, err := state.Update(ctx, s.store, state.SectionNotifications, func(doc *[]Notification) error {
		out = *doc
		*doc = []Notification{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Notification{}
	}
	return out, nil
}
