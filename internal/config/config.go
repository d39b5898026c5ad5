// Package config provides configuration management for webetl. Environment
// variables override config.yaml, which overrides defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonesrussell/webetl/internal/database"
	"github.com/jonesrussell/webetl/internal/fetcher"
	"github.com/jonesrussell/webetl/internal/logger"
	"github.com/jonesrussell/webetl/internal/worker"
)

// Defaults.
const (
	DefaultAppName     = "webetl"
	DefaultEnvironment = "production"
	DefaultDataDir     = "data"
	DefaultSourcesFile = "sources.yml"
	DefaultModel       = "claude-3-5-haiku-latest"
	DefaultMaxTokens   = 1024
	DefaultCron        = "0 6 * * *"
	DefaultAddress     = ":8080"
)

var (
	// ErrConfigInvalid is returned when a loaded configuration fails validation.
	ErrConfigInvalid = errors.New("invalid configuration")
)

// Config represents the application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logger    logger.Config   `mapstructure:"logger"`
	Ledger    database.Config `mapstructure:"ledger"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Data      DataConfig      `mapstructure:"data"`
	Transform TransformConfig `mapstructure:"transform"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// AppConfig holds application identity settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// FetchConfig holds HTTP and concurrency settings shared by navigation and extraction.
type FetchConfig struct {
	UserAgent      string        `mapstructure:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodySize    int           `mapstructure:"max_body_size"`
	Concurrency    int           `mapstructure:"concurrency"`
}

// HTTP returns the fetcher settings.
func (f FetchConfig) HTTP() fetcher.Config {
	return fetcher.Config{
		UserAgent:      f.UserAgent,
		RequestTimeout: f.RequestTimeout,
		MaxBodySize:    f.MaxBodySize,
	}.WithDefaults()
}

// Pool returns the worker pool settings.
func (f FetchConfig) Pool() worker.Config {
	return worker.Config{PoolSize: f.Concurrency}
}

// DataConfig locates the layered run output.
type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

// TransformConfig holds the LLM client settings.
type TransformConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

// SchedulerConfig holds the schedule command settings.
type SchedulerConfig struct {
	Cron    string `mapstructure:"cron"`
	Address string `mapstructure:"address"`
	// ShutdownTimeout bounds how long an in-flight run may take to stop.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SetDefaults registers default values on v. They are used only when neither
// the environment nor the config file provides a value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app", map[string]any{
		"name":        DefaultAppName,
		"environment": DefaultEnvironment,
		"debug":       false,
	})

	v.SetDefault("logger", map[string]any{
		"level":        logger.DefaultLevel,
		"development":  false,
		"output_paths": []string{"stderr"},
	})

	v.SetDefault("ledger", map[string]any{
		"driver": "",
		"dsn":    database.DefaultDSN,
	})

	defaults := fetcher.Config{}.WithDefaults()
	v.SetDefault("fetch", map[string]any{
		"user_agent":      defaults.UserAgent,
		"request_timeout": defaults.RequestTimeout.String(),
		"max_body_size":   defaults.MaxBodySize,
		"concurrency":     worker.DefaultPoolSize,
	})

	v.SetDefault("data", map[string]any{
		"dir": DefaultDataDir,
	})

	v.SetDefault("transform", map[string]any{
		"api_key":    "",
		"model":      DefaultModel,
		"max_tokens": DefaultMaxTokens,
	})

	v.SetDefault("scheduler", map[string]any{
		"cron":             DefaultCron,
		"address":          DefaultAddress,
		"shutdown_timeout": "30s",
	})
}

// BindEnv maps well-known environment variables onto config keys. Other keys
// are reachable through AutomaticEnv with "." replaced by "_".
func BindEnv(v *viper.Viper) error {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindings := map[string][]string{
		"app.environment":      {"APP_ENV"},
		"app.debug":            {"APP_DEBUG"},
		"logger.level":         {"LOG_LEVEL"},
		"ledger.dsn":           {"WEBETL_LEDGER_DSN", "DATABASE_URL"},
		"data.dir":             {"WEBETL_DATA_DIR"},
		"transform.api_key":    {"ANTHROPIC_API_KEY"},
		"transform.model":      {"WEBETL_MODEL"},
		"transform.max_tokens": {"WEBETL_MAX_TOKENS"},
		"fetch.concurrency":    {"WEBETL_CONCURRENCY"},
		"scheduler.cron":       {"WEBETL_CRON"},
		"scheduler.address":    {"WEBETL_ADDRESS"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", envs[0], err)
		}
	}
	return nil
}

// Load unmarshals v into a Config, fills zero values and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = DefaultAppName
	}
	c.Logger.SetDefaults()
	if c.App.Debug {
		c.Logger.Level = string(logger.DebugLevel)
		c.Logger.Development = true
	}
	c.Ledger = c.Ledger.WithDefaults()
	httpCfg := c.Fetch.HTTP()
	c.Fetch.UserAgent = httpCfg.UserAgent
	c.Fetch.RequestTimeout = httpCfg.RequestTimeout
	c.Fetch.MaxBodySize = httpCfg.MaxBodySize
	if c.Fetch.Concurrency == 0 {
		c.Fetch.Concurrency = worker.DefaultPoolSize
	}
	if c.Data.Dir == "" {
		c.Data.Dir = DefaultDataDir
	}
	if c.Transform.Model == "" {
		c.Transform.Model = DefaultModel
	}
	if c.Transform.MaxTokens <= 0 {
		c.Transform.MaxTokens = DefaultMaxTokens
	}
	if c.Scheduler.Cron == "" {
		c.Scheduler.Cron = DefaultCron
	}
	if c.Scheduler.Address == "" {
		c.Scheduler.Address = DefaultAddress
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Ledger.Driver {
	case database.DriverSQLite, database.DriverPostgres:
	default:
		return fmt.Errorf("%w: ledger: %w: %q", ErrConfigInvalid, database.ErrUnsupportedDriver, c.Ledger.Driver)
	}
	if err := c.Fetch.Pool().Validate(); err != nil {
		return fmt.Errorf("%w: fetch: %w", ErrConfigInvalid, err)
	}
	return nil
}
