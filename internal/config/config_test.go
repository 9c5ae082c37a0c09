package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.streak.com", cfg.Streak.BaseURL)
	assert.Equal(t, "https://www.streak.com", cfg.Streak.AppURL)
	assert.Equal(t, 10, cfg.Streak.TimeoutSecs)
	assert.InDelta(t, 10, cfg.Streak.RateLimit, 0.001)
	assert.Equal(t, 3, cfg.Streak.MaxAttempts)
	assert.Equal(t, 5, cfg.Streak.BreakerThreshold)
	assert.Equal(t, 30, cfg.Streak.BreakerResetSecs)
	assert.Equal(t, 12, cfg.Lookup.MaxMatches)
	assert.Equal(t, 25, cfg.Lookup.TimelineLimit)
	assert.Equal(t, 4, cfg.Lookup.EnrichConcurrency)
	assert.False(t, cfg.Lookup.SkipFreeMailDomains)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 15, cfg.Server.CooldownSecs)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
streak:
  api_key: from-file
  rate_limit: 2.5
lookup:
  max_matches: 5
  skip_free_mail_domains: true
log:
  level: debug
  format: console
server:
  port: 9090
  cors_origins: ["http://localhost:3000"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Streak.APIKey)
	assert.InDelta(t, 2.5, cfg.Streak.RateLimit, 0.001)
	assert.Equal(t, 5, cfg.Lookup.MaxMatches)
	assert.True(t, cfg.Lookup.SkipFreeMailDomains)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	// Defaults still apply for unset values
	assert.Equal(t, 25, cfg.Lookup.TimelineLimit)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
streak:
  api_key: from-file
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("RINGSTREAK_STREAK_API_KEY", "from-env")
	t.Setenv("RINGSTREAK_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "from-env", cfg.Streak.APIKey)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("RINGSTREAK_SERVER_PORT", "3000")
	t.Setenv("RINGSTREAK_SERVER_SHARED_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.Server.SharedSecret)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	const key = "RINGSTREAK_STREAK_APP_URL"
	t.Cleanup(func() { os.Unsetenv(key) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(key+"=https://dotenv.example\n"), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://dotenv.example", cfg.Streak.AppURL)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Streak.APIKey = "key"
	cfg.Streak.BaseURL = "https://api.streak.com"
	cfg.Lookup.MaxMatches = 12
	cfg.Lookup.EnrichConcurrency = 4
	cfg.Server.Port = 8081
	return cfg
}

func TestValidateServe(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Server.Port = 0
	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be between 1 and 65535")
}

func TestValidateLookup_MissingKey(t *testing.T) {
	cfg := validDefaults()
	cfg.Streak.APIKey = ""

	err := cfg.Validate("lookup")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "streak.api_key is required")

	assert.NoError(t, cfg.Validate("phone"))
}

func TestValidateLookupBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Lookup.MaxMatches = 0
	err := cfg.Validate("lookup")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "lookup.max_matches must be between 1 and 50")

	cfg.Lookup.MaxMatches = 12
	cfg.Lookup.EnrichConcurrency = 0
	err = cfg.Validate("lookup")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "lookup.enrich_concurrency")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
