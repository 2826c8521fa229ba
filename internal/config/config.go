// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath  = "config.toml"
	DefaultHTTPAddr    = ":5001"
	DefaultStatePath   = "data/state.db"
	DefaultImagesDir   = "images"
	DefaultModel       = "gpt-4o-mini"
	DefaultLLMBaseURL  = "https://api.openai.com/v1"
	DefaultLLMTimeout  = 60
	DefaultTimezone    = "America/Guatemala"
	DefaultSweepSpec   = "0 9 * * *"
	DefaultPersonaName = "Julio"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	State    StateConfig    `toml:"state"`
	Gallery  GalleryConfig  `toml:"gallery"`
	LLM      LLMConfig      `toml:"llm"`
	Persona  PersonaConfig  `toml:"persona"`
	Schedule ScheduleConfig `toml:"schedule"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP server listen address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// StateConfig holds the state store database path.
type StateConfig struct {
	Path string `toml:"path"`
}

// GalleryConfig holds the shared image pool directory.
type GalleryConfig struct {
	ImagesDir string `toml:"images_dir"`
}

// LLMConfig holds the chat-completions backend connection parameters.
type LLMConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// PersonaConfig holds the bot identity used in generation prompts.
type PersonaConfig struct {
	Name       string `toml:"name"`
	SystemBase string `toml:"system_base"`
}

// ScheduleConfig holds the cron spec for the objective day-window sweep.
type ScheduleConfig struct {
	ObjectiveSweepSpec string `toml:"objective_sweep_spec"`
}

// Load reads and parses the TOML config file at path and applies default values for missing fields.
// A missing file is not an error; defaults are returned.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		State: StateConfig{
			Path: DefaultStatePath,
		},
		Gallery: GalleryConfig{
			ImagesDir: DefaultImagesDir,
		},
		LLM: LLMConfig{
			BaseURL:        DefaultLLMBaseURL,
			Model:          DefaultModel,
			TimeoutSeconds: DefaultLLMTimeout,
		},
		Persona: PersonaConfig{
			Name: DefaultPersonaName,
		},
		Schedule: ScheduleConfig{
			ObjectiveSweepSpec: DefaultSweepSpec,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
