// Package settings manages the process-wide settings record.
package settings

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/chatpilot/chatpilot/internal/state"
)

type Service struct {
	store  *state.Store
	logger *slog.Logger
}

func NewService(log *slog.Logger, store *state.Store) *Service {
	return &Service{
		store:  store,
		logger: log.With(slog.String("service", "settings")),
	}
}

// Get returns the current settings with defaults applied.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	doc, err := state.Get[Settings](ctx, s.store, state.SectionSettings)
	if err != nil {
		return Settings{}, err
	}
	return normalize(doc), nil
}

// Upsert applies a partial update and returns the resulting settings.
func (s *Service) Upsert(ctx context.Context, req UpsertRequest) (Settings, error) {
	doc, err := state.Update(ctx, s.store, state.SectionSettings, func(doc *Settings) error {
		if req.Timezone != nil && strings.TrimSpace(*req.Timezone) != "" {
			doc.Timezone = strings.TrimSpace(*req.Timezone)
		}
		if req.ApprovalEnabled != nil {
			doc.ApprovalEnabled = *req.ApprovalEnabled
		}
		if req.DateDayFirst != nil {
			doc.DateDayFirst = *req.DateDayFirst
		}
		if req.SelfLabels != nil {
			doc.SelfLabels = normalizeLabels(*req.SelfLabels)
		}
		*doc = normalize(*doc)
		return nil
	})
	if err != nil {
		return Settings{}, err
	}
	return doc, nil
}

// ToggleApproval flips the approval gate and returns the new value.
func (s *Service) ToggleApproval(ctx context.Context) (bool, error) {
	doc, err := state.Update(ctx, s.store, state.SectionSettings, func(doc *Settings) error {
		*doc = normalize(*doc)
		doc.ApprovalEnabled = !doc.ApprovalEnabled
		return nil
	})
	if err != nil {
		return false, err
	}
	s.logger.Info("approval toggled", slog.Bool("enabled", doc.ApprovalEnabled))
	return doc.ApprovalEnabled, nil
}

// Location resolves the configured timezone, falling back to UTC.
func (s *Service) Location(ctx context.Context) *time.Location {
	doc, err := s.Get(ctx)
	if err != nil {
		return time.UTC
	}
	loc, err := time.LoadLocation(doc.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func normalize(doc Settings) Settings {
	if strings.TrimSpace(doc.Timezone) == "" {
		doc.Timezone = DefaultTimezone
	}
	if len(doc.SelfLabels) == 0 {
		doc.SelfLabels = []string{"You"}
	}
	return doc
}

func normalizeLabels(labels []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		trimmed := strings.TrimSpace(label)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
