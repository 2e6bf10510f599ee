// Package config loads the reconciler's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"payment-reconciliation/internal/gateway"
	"payment-reconciliation/internal/matching"
)

// EnvDatabaseDSN overrides [database].dsn when set.
const EnvDatabaseDSN = "RECON_DATABASE_DSN"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the root of the configuration file.
type Config struct {
	API      APIConfig                `toml:"api"`
	Database DatabaseConfig           `toml:"database"`
	Matching MatchingConfig           `toml:"matching"`
	Phone    matching.PhoneNormalizer `toml:"phone"`
	Log      LogConfig                `toml:"log"`
}

// APIConfig controls the HTTP server.
type APIConfig struct {
	Host           string        `toml:"host"`
	Port           int           `toml:"port"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

// Addr returns the listen address.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig selects the record store backend.
type DatabaseConfig struct {
	Driver       string `toml:"driver"` // sqlite | postgres
	DSN          string `toml:"dsn"`
	MaxOpenConns int    `toml:"max_open_conns"`
}

// MatchingConfig tunes the scorer and matcher.
type MatchingConfig struct {
	Workers    int                 `toml:"workers"` // 0 = one per CPU
	Thresholds matching.Thresholds `toml:"thresholds"`
	Weights    matching.Weights    `toml:"weights"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// DefaultConfig returns a configuration that runs locally against SQLite.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			RequestTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       gateway.DriverSQLite,
			DSN:          "reconciler.db",
			MaxOpenConns: 10,
		},
		Matching: MatchingConfig{
			Thresholds: matching.DefaultThresholds(),
			Weights:    matching.DefaultWeights(),
		},
		Phone: matching.DefaultPhoneNormalizer(),
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
// The environment override is applied last, then the result is validated.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	}

	if dsn := os.Getenv(EnvDatabaseDSN); dsn != "" {
		cfg.Database.DSN = dsn
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("%w: api.port %d out of range", ErrInvalidConfig, c.API.Port)
	}
	if c.API.RequestTimeout < 0 {
		return fmt.Errorf("%w: api.request_timeout must not be negative", ErrInvalidConfig)
	}

	switch c.Database.Driver {
	case gateway.DriverSQLite, gateway.DriverPostgres:
	default:
		return fmt.Errorf("%w: unknown database.driver %q", ErrInvalidConfig, c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("%w: database.dsn is required", ErrInvalidConfig)
	}

	t := c.Matching.Thresholds
	if t.Minimum < 0 || t.Minimum > t.Suggested || t.Suggested > t.Automatic || t.Automatic > 1 {
		return fmt.Errorf("%w: matching thresholds must satisfy 0 <= minimum <= suggested <= automatic <= 1, got %v/%v/%v",
			ErrInvalidConfig, t.Minimum, t.Suggested, t.Automatic)
	}
	if c.Matching.Workers < 0 {
		return fmt.Errorf("%w: matching.workers must not be negative", ErrInvalidConfig)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log.level %q", ErrInvalidConfig, c.Log.Level)
	}
	return nil
}
