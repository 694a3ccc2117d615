// Package config loads the hint store's configuration via viper, grounded
// on the nested mapstructure Config idiom in
// _examples/ipiton-alert-history-service/go-app/internal/config/config.go,
// trimmed to the fields this store actually needs (no database/redis/LLM/
// webhook sections -- none of that machinery exists in this domain).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the hint store's full runtime configuration.
type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Guard   GuardConfig   `mapstructure:"guard"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// StoreConfig bounds the in-memory store's size.
type StoreConfig struct {
	MaxComponents        int `mapstructure:"max_components"`
	MaxHintsPerComponent int `mapstructure:"max_hints_per_component"`
	MaxTotalHints        int `mapstructure:"max_total_hints"`
}

// GuardConfig controls the safety guard.
type GuardConfig struct {
	SecretGuardEnabled bool `mapstructure:"secret_guard_enabled"`
}

// ServerConfig controls the JSON-RPC HTTP listener and election.
type ServerConfig struct {
	Port                    int           `mapstructure:"port"`
	MaxPortAttempts         int           `mapstructure:"max_port_attempts"`
	RequestTimeout          time.Duration `mapstructure:"request_timeout"`
	GracefulShutdownTimeout time.Duration `mapstructure:"graceful_shutdown_timeout"`
	EvictionInterval        time.Duration `mapstructure:"eviction_interval"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// RateLimitConfig bounds per-client RPC throughput.
type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
	Burst     int `mapstructure:"burst"`
}

// Load reads configuration from an optional YAML file, environment
// variables (NUDGE_-prefixed, "." replaced with "_"), and defaults.
// Environment variables override the file, which overrides the defaults,
// mirroring the teacher's LoadConfig.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("nudge")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// NUDGE_MAX_HINTS historically overrides max_components rather than
	// max_total_hints -- a quirk of the wire-compatible env name carried
	// over from the original implementation (see SPEC_FULL.md §2.2).
	if v.IsSet("max_hints") {
		cfg.Store.MaxComponents = v.GetInt("max_hints")
	}

	// NUDGE_SECRET_GUARD is spec.md §6's wire-compatible name, with
	// non-boolean semantics viper's own bool parsing doesn't match: "1"
	// enables, any other value (including "0", "false", or garbage)
	// disables, and an unset var leaves the config/default value alone.
	if raw, ok := os.LookupEnv("NUDGE_SECRET_GUARD"); ok {
		cfg.Guard.SecretGuardEnabled = raw == "1"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.max_components", 500)
	v.SetDefault("store.max_hints_per_component", 200)
	v.SetDefault("store.max_total_hints", 5000)

	v.SetDefault("guard.secret_guard_enabled", true)

	v.SetDefault("server.port", 8765)
	v.SetDefault("server.max_port_attempts", 10)
	v.SetDefault("server.request_timeout", "5s")
	v.SetDefault("server.graceful_shutdown_timeout", "5s")
	v.SetDefault("server.eviction_interval", "1m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", true)

	v.SetDefault("rate_limit.per_minute", 600)
	v.SetDefault("rate_limit.burst", 50)
}

// Validate rejects configurations with an internally inconsistent or
// unusable set of limits.
func (c *Config) Validate() error {
	if c.Store.MaxComponents <= 0 {
		return fmt.Errorf("store.max_components must be positive")
	}
	if c.Store.MaxHintsPerComponent <= 0 {
		return fmt.Errorf("store.max_hints_per_component must be positive")
	}
	if c.Store.MaxTotalHints <= 0 {
		return fmt.Errorf("store.max_total_hints must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535")
	}
	if c.Server.MaxPortAttempts <= 0 {
		return fmt.Errorf("server.max_port_attempts must be positive")
	}
	return nil
}
