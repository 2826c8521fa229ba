package modules

import (
	"log/slog"
	"math/rand"
	"time"

	"go.uber.org/fx"

	"github.com/chatpilot/chatpilot/internal/approval"
	"github.com/chatpilot/chatpilot/internal/config"
	"github.com/chatpilot/chatpilot/internal/contacts"
	"github.com/chatpilot/chatpilot/internal/gallery"
	"github.com/chatpilot/chatpilot/internal/history"
	"github.com/chatpilot/chatpilot/internal/humanize"
	"github.com/chatpilot/chatpilot/internal/llm"
	"github.com/chatpilot/chatpilot/internal/notify"
	"github.com/chatpilot/chatpilot/internal/objectives"
	"github.com/chatpilot/chatpilot/internal/persona"
	"github.com/chatpilot/chatpilot/internal/reply"
	"github.com/chatpilot/chatpilot/internal/rules"
	"github.com/chatpilot/chatpilot/internal/schedule"
	"github.com/chatpilot/chatpilot/internal/settings"
	"github.com/chatpilot/chatpilot/internal/state"
	"github.com/chatpilot/chatpilot/internal/transcript"
)

var DomainModule = fx.Module(
	"domain",
	fx.Provide(
		settings.NewService,
		contacts.NewService,
		history.NewService,
		persona.NewService,
		notify.NewService,
		transcript.NewService,
		approval.NewService,
		objectives.NewService,
		humanize.NewRewriter,

		provideGallery,
		provideCascade,
		provideEngine,
		provideSchedule,
	),
)

// ---------------------------------------------------------------------------
// domain service providers
// ---------------------------------------------------------------------------

func provideGallery(log *slog.Logger, store *state.Store, cfg config.Config) *gallery.Service {
	return gallery.NewService(log, store, cfg.Gallery.ImagesDir)
}

func provideCascade(log *slog.Logger, settingsSvc *settings.Service, gallerySvc *gallery.Service, historySvc *history.Service) *rules.Cascade {
	return rules.NewCascade(log,
		rules.ClockRule{Settings: settingsSvc},
		rules.ActivityRule{Settings: settingsSvc},
		rules.ResetGalleryRule{Gallery: gallerySvc},
		rules.GratitudeGuardRule{},
		rules.PhotoRequestRule{
			Gallery: gallerySvc,
			History: historySvc,
			Rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		},
	)
}

type engineParams struct {
	fx.In

	Logger     *slog.Logger
	Config     config.Config
	Contacts   *contacts.Service
	History    *history.Service
	Settings   *settings.Service
	Persona    *persona.Service
	Gallery    *gallery.Service
	Approval   *approval.Service
	Objectives *objectives.Service
	Notify     *notify.Service
	Cascade    *rules.Cascade
	Backend    llm.Completer
	Rewriter   *humanize.Rewriter
}

func provideEngine(p engineParams) *reply.Engine {
	return reply.NewEngine(p.Logger, p.Config.Persona.Name, p.Config.Persona.SystemBase, reply.Deps{
		Contacts:   p.Contacts,
		History:    p.History,
		Settings:   p.Settings,
		Persona:    p.Persona,
		Gallery:    p.Gallery,
		Approval:   p.Approval,
		Objectives: p.Objectives,
		Notify:     p.Notify,
		Cascade:    p.Cascade,
		Backend:    p.Backend,
		Rewriter:   p.Rewriter,
	})
}

func provideSchedule(log *slog.Logger, objectiveSvc *objectives.Service, settingsSvc *settings.Service, cfg config.Config) *schedule.Service {
	return schedule.NewService(log, objectiveSvc, settingsSvc, cfg.Schedule.ObjectiveSweepSpec)
}
