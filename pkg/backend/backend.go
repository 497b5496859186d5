// Package backend constructs the configured text-generation client with its
// middleware chain.
package backend

import (
	"fmt"

	"replybot/pkg/config"
	"replybot/pkg/llm"
	"replybot/pkg/llm/anthropic"
	"replybot/pkg/llm/google"
	"replybot/pkg/llm/ollama"
	"replybot/pkg/llm/openai"
	"replybot/pkg/metrics"
)

// NewClient builds the raw client for the configured provider and wraps it
// with the metrics middleware. Exactly one backend is constructed; there is
// no failover between providers.
func NewClient(cfg *config.GenerationConfig, recorder *metrics.Recorder) (llm.Client, error) {
	raw, err := newRawClient(cfg)
	if err != nil {
		return nil, err
	}
	if recorder == nil {
		return raw, nil
	}
	return newMetricsClient(raw, recorder), nil
}

func newRawClient(cfg *config.GenerationConfig) (llm.Client, error) {
	if cfg.Provider == config.ProviderOllama {
		return ollama.NewClientWithModel(config.OllamaHost(), cfg.Model), nil
	}

	apiKey, err := config.APIKeyFor(cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve backend credential: %w", err)
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewClientWithModel(apiKey, cfg.Model), nil
	case config.ProviderAnthropic:
		return anthropic.NewClientWithModel(apiKey, cfg.Model), nil
	case config.ProviderGoogle:
		return google.NewClientWithModel(apiKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
