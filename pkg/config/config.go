// Package config provides configuration loading, validation, and management
// for the reply bot. It handles an optional YAML config file plus environment
// variable overrides, loaded once at startup and passed into constructors.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider identifiers for the text-generation backend.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderOllama    = "ollama"
)

// Model name constants.
const (
	ModelGPT4o              = "gpt-4o"
	ModelGPT4oMini          = "gpt-4o-mini"
	ModelClaudeSonnetLatest = "claude-sonnet-4-0"
	ModelGeminiFlash        = "gemini-2.0-flash"
	ModelLlama3             = "llama3.1"
)

// Environment variable names.
const (
	EnvAuthToken    = "REPLYBOT_AUTH_TOKEN"
	EnvMinRating    = "REPLYBOT_MIN_RATING"
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvGoogleKey    = "GEMINI_API_KEY"
	EnvOllamaHost   = "OLLAMA_HOST"
)

// Reply generation limits. The length window balances anti-spam (minimum)
// against the marketplace review-reply field limit (maximum).
const (
	DefaultMaxAttempts = 10
	DefaultMinChars    = 50
	DefaultMaxChars    = 700
	DefaultMinRating   = 1
)

// ModelInfo describes a known model's provider and output ceiling.
type ModelInfo struct {
	Provider        string
	MaxOutputTokens int
}

// KnownModels maps model names to their provider and limits.
// Unknown models fall back to the configured provider and default limits.
//
//nolint:gochecknoglobals // Static capability table
var KnownModels = map[string]ModelInfo{
	ModelGPT4o:              {Provider: ProviderOpenAI, MaxOutputTokens: 16384},
	ModelGPT4oMini:          {Provider: ProviderOpenAI, MaxOutputTokens: 16384},
	ModelClaudeSonnetLatest: {Provider: ProviderAnthropic, MaxOutputTokens: 64000},
	ModelGeminiFlash:        {Provider: ProviderGoogle, MaxOutputTokens: 8192},
	ModelLlama3:             {Provider: ProviderOllama, MaxOutputTokens: 4096},
}

// GenerationConfig controls the bounded-retry reply generation.
type GenerationConfig struct {
	Provider       string  `yaml:"provider"`
	Model          string  `yaml:"model"`
	MaxAttempts    int     `yaml:"max_attempts"`
	MinChars       int     `yaml:"min_chars"`
	MaxChars       int     `yaml:"max_chars"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float32 `yaml:"temperature"`
	PromptTemplate string  `yaml:"prompt_template"` // Empty means built-in template
}

// MarketConfig controls the marketplace session and event polling.
type MarketConfig struct {
	BaseURL        string        `yaml:"base_url"`
	AuthToken      string        `yaml:"-"` // Env or secrets file only, never the config file
	PollInterval   time.Duration `yaml:"poll_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// WebConfig controls the optional status/metrics HTTP server.
type WebConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Addr          string `yaml:"addr"`
	PrometheusURL string `yaml:"prometheus_url"` // For the metrics query service, optional
}

// Config is the process-wide immutable configuration.
type Config struct {
	Generation GenerationConfig `yaml:"generation"`
	Market     MarketConfig     `yaml:"market"`
	Web        WebConfig        `yaml:"web"`
	MinRating  int              `yaml:"min_rating"`
	StatePath  string           `yaml:"state_path"` // SQLite ledger location
}

// Default returns the built-in configuration before file and env overrides.
func Default() *Config {
	return &Config{
		Generation: GenerationConfig{
			Provider:    ProviderOpenAI,
			Model:       ModelGPT4o,
			MaxAttempts: DefaultMaxAttempts,
			MinChars:    DefaultMinChars,
			MaxChars:    DefaultMaxChars,
			MaxTokens:   1024,
			Temperature: 0.7,
		},
		Market: MarketConfig{
			BaseURL:        "https://funpay.com",
			PollInterval:   3 * time.Second,
			RequestTimeout: 30 * time.Second,
		},
		Web: WebConfig{
			Enabled: false,
			Addr:    ":8089",
		},
		MinRating: DefaultMinRating,
		StatePath: "replybot.db",
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty and the file exists), then environment overrides, then
// validation. The auth token must be resolvable or Load fails — the only
// fatal condition in this system.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Optional file, defaults stand.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Market.AuthToken == "" {
		if err := ResolveAuthToken(cfg, SecretsFileName); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv(EnvAuthToken); token != "" {
		cfg.Market.AuthToken = token
	}
	if raw := os.Getenv(EnvMinRating); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			cfg.MinRating = v
		}
	}
}

// Validate checks invariants that would otherwise surface mid-loop.
func (c *Config) Validate() error {
	if c.Market.AuthToken == "" {
		return fmt.Errorf("auth token not set: export %s or provision the secrets file", EnvAuthToken)
	}
	if c.Market.BaseURL == "" {
		return fmt.Errorf("market base URL cannot be empty")
	}
	if c.MinRating < 0 || c.MinRating > 5 {
		return fmt.Errorf("min_rating must be in [0,5], got %d", c.MinRating)
	}
	if c.Generation.MaxAttempts <= 0 {
		return fmt.Errorf("generation max_attempts must be positive, got %d", c.Generation.MaxAttempts)
	}
	if c.Generation.MinChars <= 0 || c.Generation.MaxChars <= c.Generation.MinChars {
		return fmt.Errorf("generation length window invalid: min=%d max=%d", c.Generation.MinChars, c.Generation.MaxChars)
	}
	if c.Generation.Temperature < 0.0 || c.Generation.Temperature > 2.0 {
		return fmt.Errorf("temperature must be between 0.0 and 2.0")
	}
	switch c.Generation.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGoogle, ProviderOllama:
	default:
		return fmt.Errorf("unsupported provider: %s", c.Generation.Provider)
	}
	if info, ok := KnownModels[c.Generation.Model]; ok && info.Provider != c.Generation.Provider {
		return fmt.Errorf("model %s belongs to provider %s, not %s", c.Generation.Model, info.Provider, c.Generation.Provider)
	}
	return nil
}

// APIKeyFor returns the backend credential for the given provider from the
// environment. Ollama is keyless; its host comes from OLLAMA_HOST.
func APIKeyFor(provider string) (string, error) {
	var env string
	switch provider {
	case ProviderOpenAI:
		env = EnvOpenAIKey
	case ProviderAnthropic:
		env = EnvAnthropicKey
	case ProviderGoogle:
		env = EnvGoogleKey
	case ProviderOllama:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported provider: %s", provider)
	}
	key := os.Getenv(env)
	if key == "" {
		return "", fmt.Errorf("%s not set for provider %s", env, provider)
	}
	return key, nil
}

// OllamaHost returns the Ollama server URL, defaulting to the local runtime.
func OllamaHost() string {
	if host := os.Getenv(EnvOllamaHost); host != "" {
		return host
	}
	return "http://localhost:11434"
}

// MaxOutputTokensFor caps requested tokens at the model's known ceiling.
func MaxOutputTokensFor(model string, requested int) int {
	if info, ok := KnownModels[model]; ok && info.MaxOutputTokens > 0 && requested > info.MaxOutputTokens {
		return info.MaxOutputTokens
	}
	return requested
}
