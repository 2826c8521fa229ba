package main

import (
	"fmt"
	"log/slog"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/chatpilot/chatpilot/cmd/relay/modules"
	"github.com/chatpilot/chatpilot/internal/config"
	"github.com/chatpilot/chatpilot/internal/logger"
	"github.com/chatpilot/chatpilot/internal/state"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		runMigrate(os.Args[2:])
		return
	}

	fx.New(
		modules.InfraModule,
		modules.DomainModule,
		modules.HandlersModule,
		modules.ServerModule,
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log.With(slog.String("component", "fx"))}
		}),
	).Run()
}

// runMigrate applies state-store migrations outside the fx app:
// relay migrate up|down|version|force N
func runMigrate(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: relay migrate up|down|version|force N")
		os.Exit(2)
	}
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	path := cfg.State.Path
	if env := os.Getenv("STATE_PATH"); env != "" {
		path = env
	}
	if err := state.RunMigrate(logger.L, path, args[0], args[1:]); err != nil {
		logger.Error("migrate failed", slog.Any("error", err))
		os.Exit(1)
	}
}
