package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithToken(t *testing.T) {
	t.Setenv(EnvAuthToken, "golden-key")
	t.Setenv(EnvMinRating, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "golden-key", cfg.Market.AuthToken)
	assert.Equal(t, DefaultMinRating, cfg.MinRating)
	assert.Equal(t, DefaultMaxAttempts, cfg.Generation.MaxAttempts)
	assert.Equal(t, DefaultMinChars, cfg.Generation.MinChars)
	assert.Equal(t, DefaultMaxChars, cfg.Generation.MaxChars)
	assert.Equal(t, 3*time.Second, cfg.Market.PollInterval)
}

func TestLoadMissingTokenIsFatal(t *testing.T) {
	t.Setenv(EnvAuthToken, "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvAuthToken)
}

func TestLoadMinRatingOverride(t *testing.T) {
	t.Setenv(EnvAuthToken, "golden-key")
	t.Setenv(EnvMinRating, "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MinRating)
}

func TestLoadYAMLFile(t *testing.T) {
	t.Setenv(EnvAuthToken, "golden-key")
	t.Setenv(EnvMinRating, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
generation:
  provider: anthropic
  model: claude-sonnet-4-0
  temperature: 0.5
market:
  poll_interval: 5s
min_rating: 4
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.Generation.Provider)
	assert.Equal(t, ModelClaudeSonnetLatest, cfg.Generation.Model)
	assert.Equal(t, 5*time.Second, cfg.Market.PollInterval)
	assert.Equal(t, 4, cfg.MinRating)
}

func TestLoadMissingFileIsOptional(t *testing.T) {
	t.Setenv(EnvAuthToken, "golden-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.Generation.Provider)
}

func TestValidateProviderModelMismatch(t *testing.T) {
	cfg := Default()
	cfg.Market.AuthToken = "golden-key"
	cfg.Generation.Provider = ProviderAnthropic
	cfg.Generation.Model = ModelGPT4o

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "belongs to provider")
}

func TestValidateRatingBounds(t *testing.T) {
	cfg := Default()
	cfg.Market.AuthToken = "golden-key"
	cfg.MinRating = 6

	require.Error(t, cfg.Validate())
}

func TestMaxOutputTokensFor(t *testing.T) {
	assert.Equal(t, 16384, MaxOutputTokensFor(ModelGPT4o, 100000))
	assert.Equal(t, 512, MaxOutputTokensFor(ModelGPT4o, 512))
	assert.Equal(t, 123456, MaxOutputTokensFor("unknown-model", 123456))
}

func TestSecretsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), SecretsFileName)
	in := map[string]string{SecretAuthToken: "golden-key"}

	require.NoError(t, EncryptSecrets(path, "hunter2", in))

	out, err := DecryptSecrets(path, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = DecryptSecrets(path, "wrong")
	assert.Error(t, err)
}
