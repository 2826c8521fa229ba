package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

// Runtime holds parsed runtime settings derived from Config.
// Values may be overridden by environment variables (HTTP_ADDR, STATE_PATH,
// OPENAI_API_KEY, OPENAI_MODEL).
type Runtime struct {
	ServerAddr string
	StatePath  string
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration
}

// NewRuntime builds Runtime from the given config and applies env overrides.
func NewRuntime(cfg Config) (*Runtime, error) {
	rt := &Runtime{
		ServerAddr: cfg.Server.Addr,
		StatePath:  cfg.State.Path,
		LLMBaseURL: cfg.LLM.BaseURL,
		LLMAPIKey:  cfg.LLM.APIKey,
		LLMModel:   cfg.LLM.Model,
		LLMTimeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	}

	if value := os.Getenv("HTTP_ADDR"); value != "" {
		rt.ServerAddr = value
	}
	if value := os.Getenv("STATE_PATH"); value != "" {
		rt.StatePath = value
	}
	if value := os.Getenv("OPENAI_API_KEY"); value != "" {
		rt.LLMAPIKey = value
	}
	if value := os.Getenv("OPENAI_MODEL"); value != "" {
		rt.LLMModel = value
	}

	if strings.TrimSpace(rt.LLMAPIKey) == "" {
		return nil, errors.New("llm api key is required: set llm.api_key or OPENAI_API_KEY")
	}
	if rt.LLMTimeout <= 0 {
		rt.LLMTimeout = time.Duration(DefaultLLMTimeout) * time.Second
	}
	return rt, nil
}
