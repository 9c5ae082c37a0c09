package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Streak StreakConfig `yaml:"streak" mapstructure:"streak"`
	Lookup LookupConfig `yaml:"lookup" mapstructure:"lookup"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StreakConfig holds Streak API credentials and transport tuning.
type StreakConfig struct {
	APIKey           string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	AppURL           string  `yaml:"app_url" mapstructure:"app_url"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit        float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BreakerThreshold int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// LookupConfig configures phone resolution.
type LookupConfig struct {
	MaxMatches          int  `yaml:"max_matches" mapstructure:"max_matches"`
	TimelineLimit       int  `yaml:"timeline_limit" mapstructure:"timeline_limit"`
	EnrichConcurrency   int  `yaml:"enrich_concurrency" mapstructure:"enrich_concurrency"`
	SkipFreeMailDomains bool `yaml:"skip_free_mail_domains" mapstructure:"skip_free_mail_domains"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port         int      `yaml:"port" mapstructure:"port"`
	SharedSecret string   `yaml:"shared_secret" mapstructure:"shared_secret"`
	CooldownSecs int      `yaml:"cooldown_secs" mapstructure:"cooldown_secs"`
	CORSOrigins  []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	// .env is optional and never overrides variables already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RINGSTREAK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("streak.api_key", "")
	v.SetDefault("streak.base_url", "https://api.streak.com")
	v.SetDefault("streak.app_url", "https://www.streak.com")
	v.SetDefault("streak.timeout_secs", 10)
	v.SetDefault("streak.rate_limit", 10)
	v.SetDefault("streak.max_attempts", 3)
	v.SetDefault("streak.breaker_threshold", 5)
	v.SetDefault("streak.breaker_reset_secs", 30)
	v.SetDefault("lookup.max_matches", 12)
	v.SetDefault("lookup.timeline_limit", 25)
	v.SetDefault("lookup.enrich_concurrency", 4)
	v.SetDefault("lookup.skip_free_mail_domains", false)
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.shared_secret", "")
	v.SetDefault("server.cooldown_secs", 15)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "serve", "lookup" and "phone".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		errs = append(errs, c.validateStreak()...)
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be between 1 and 65535")
		}
		if c.Server.CooldownSecs < 0 {
			errs = append(errs, "server.cooldown_secs must be >= 0")
		}
	case "lookup":
		errs = append(errs, c.validateStreak()...)
	case "phone":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Lookup.MaxMatches < 1 || c.Lookup.MaxMatches > 50 {
		errs = append(errs, "lookup.max_matches must be between 1 and 50")
	}
	if c.Lookup.EnrichConcurrency < 1 {
		errs = append(errs, "lookup.enrich_concurrency must be >= 1")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStreak() []string {
	var errs []string
	if c.Streak.APIKey == "" {
		errs = append(errs, "streak.api_key is required")
	}
	if c.Streak.BaseURL == "" {
		errs = append(errs, "streak.base_url is required")
	}
	if c.Streak.RateLimit < 0 {
		errs = append(errs, "streak.rate_limit must be >= 0")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
