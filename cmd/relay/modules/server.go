package modules

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/chatpilot/chatpilot/internal/config"
	"github.com/chatpilot/chatpilot/internal/gallery"
	"github.com/chatpilot/chatpilot/internal/handlers"
	"github.com/chatpilot/chatpilot/internal/schedule"
	"github.com/chatpilot/chatpilot/internal/server"
	"github.com/chatpilot/chatpilot/internal/version"
)

var HandlersModule = fx.Module(
	"handlers",
	fx.Provide(
		annotateHandler(handlers.NewPingHandler),
		annotateHandler(handlers.NewMessageHandler),
		annotateHandler(handlers.NewApprovalHandler),
		annotateHandler(handlers.NewContactsHandler),
		annotateHandler(handlers.NewObjectivesHandler),
		annotateHandler(handlers.NewTranscriptHandler),
		annotateHandler(handlers.NewPersonaHandler),
		annotateHandler(handlers.NewSettingsHandler),
		annotateHandler(handlers.NewNotificationsHandler),
	),
)

var ServerModule = fx.Module(
	"server",
	fx.Provide(
		provideServer,
	),
	fx.Invoke(startServer, startSchedule, warmGallery),
)

// annotateHandler registers a handler constructor as a grouped server.Handler.
func annotateHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	Runtime        *config.Runtime
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Runtime.ServerAddr, params.ServerHandlers...)
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner, rt *config.Runtime) {
	fmt.Printf("Starting chatpilot relay %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					log.Error("server stopped", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			log.Info("listening", slog.String("addr", rt.ServerAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Stop(ctx)
		},
	})
}

func startSchedule(lc fx.Lifecycle, sched *schedule.Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return sched.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return sched.Stop(ctx)
		},
	})
}

func warmGallery(lc fx.Lifecycle, log *slog.Logger, gallerySvc *gallery.Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := gallerySvc.Refresh(ctx); err != nil {
				log.Warn("initial gallery refresh failed", slog.Any("error", err))
			}
			return nil
		},
	})
}
