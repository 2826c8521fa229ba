package transcript

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/chatpilot/chatpilot/internal/contacts"
	"github.com/chatpilot/chatpilot/internal/history"
	"github.com/chatpilot/chatpilot/internal/settings"
)

// Service imports export blobs into contact histories.
type Service struct {
	contacts *contacts.Service
	history  *history.Service
	settings *settings.Service
	logger   *slog.Logger
}

func NewService(log *slog.Logger, contactSvc *contacts.Service, historySvc *history.Service, settingsSvc *settings.Service) *Service {
	return &Service{
		contacts: contactSvc,
		history:  historySvc,
		settings: settingsSvc,
		logger:   log.With(slog.String("service", "transcript")),
	}
}

// Result reports how much of an import blob survived parsing and merging.
type Result struct {
	Added  int `json:"added"`
	Parsed int `json:"parsed"`
}

// Import parses text and merges it into jid's history. selfLabel is added to
// the configured self labels for this import only. Unknown contacts are
// silently dropped: nothing is parsed into state for them.
func (s *Service) Import(ctx context.Context, jid, text, selfLabel string, dayFirst bool) (Result, error) {
	_, err := s.contacts.Get(ctx, jid)
	if errors.Is(err, contacts.ErrNotFound) {
		s.logger.Debug("import for unknown contact dropped", slog.String("jid", jid))
		return Result{}, nil
	}
	if err != nil {
		return Result{}, err
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return Result{}, err
	}
	labels := cfg.SelfLabels
	if strings.TrimSpace(selfLabel) != "" {
		labels = append([]string{strings.TrimSpace(selfLabel)}, labels...)
	}

	parsed := Parse(text, labels, s.settings.Location(ctx), dayFirst)
	added, err := s.history.Merge(ctx, jid, parsed)
	if err != nil {
		return Result{}, err
	}
	if err := s.contacts.EnsureStructs(ctx, jid); err != nil {
		return Result{}, err
	}

	s.logger.Info("transcript imported",
		slog.String("jid", jid),
		slog.Int("parsed", len(parsed)),
		slog.Int("added", added),
	)
	return Result{Added: added, Parsed: len(parsed)}, nil
}
