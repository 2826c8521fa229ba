package modules

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.uber.org/fx"

	"github.com/chatpilot/chatpilot/internal/config"
	"github.com/chatpilot/chatpilot/internal/llm"
	"github.com/chatpilot/chatpilot/internal/logger"
	"github.com/chatpilot/chatpilot/internal/state"
)

var InfraModule = fx.Module(
	"infra",
	fx.Provide(
		provideConfig,
		provideLogger,
		config.NewRuntime,
		provideStore,
		provideLLMClient,
	),
)

// ---------------------------------------------------------------------------
// infrastructure providers
// ---------------------------------------------------------------------------

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideStore(lc fx.Lifecycle, log *slog.Logger, rt *config.Runtime) (*state.Store, error) {
	store, err := state.Open(log, rt.StatePath)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}

func provideLLMClient(log *slog.Logger, rt *config.Runtime) (llm.Completer, error) {
	return llm.NewClient(log, rt.LLMBaseURL, rt.LLMAPIKey, rt.LLMModel, rt.LLMTimeout)
}
