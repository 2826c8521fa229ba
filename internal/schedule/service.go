// Package schedule runs the recurring objective sweep on a cron cadence.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/chatpilot/chatpilot/internal/objectives"
	"github.com/chatpilot/chatpilot/internal/settings"
)

type Service struct {
	objectives *objectives.Service
	settings   *settings.Service
	cron       *cron.Cron
	parser     cron.Parser
	pattern    string
	logger     *slog.Logger
}

func NewService(log *slog.Logger, objectiveSvc *objectives.Service, settingsSvc *settings.Service, pattern string) *Service {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Service{
		objectives: objectiveSvc,
		settings:   settingsSvc,
		parser:     parser,
		pattern:    pattern,
		logger:     log.With(slog.String("service", "schedule")),
	}
}

// Start registers the sweep job and starts the cron runner in the
// configured timezone.
func (s *Service) Start(ctx context.Context) error {
	if _, err := s.parser.Parse(s.pattern); err != nil {
		return fmt.Errorf("invalid sweep pattern %q: %w", s.pattern, err)
	}
	s.cron = cron.New(cron.WithParser(s.parser), cron.WithLocation(s.settings.Location(ctx)))
	_, err := s.cron.AddFunc(s.pattern, func() {
		sweepCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := s.objectives.SweepOverdue(sweepCtx); err != nil {
			s.logger.Error("objective sweep failed", slog.Any("error", err))
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("objective sweep scheduled", slog.String("pattern", s.pattern))
	return nil
}

// Stop halts the cron runner and waits for an in-flight sweep to finish.
func (s *Service) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
