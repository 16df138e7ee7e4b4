// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds server settings. Command-line flags override these values.
type Config struct {
	HTTPAddr   string        `env:"LIFERPG_HTTP_ADDR"       envDefault:":8080"`
	DBPath     string        `env:"LIFERPG_DB_PATH"         envDefault:"liferpg.db"`
	SeedPath   string        `env:"LIFERPG_SEED_PATH"`
	NameDelay  time.Duration `env:"LIFERPG_NAME_CHECK_DELAY" envDefault:"300ms"`
	SessionTTL time.Duration `env:"LIFERPG_SESSION_TTL"     envDefault:"2h"`
	LogLevel   string        `env:"LIFERPG_LOG_LEVEL"       envDefault:"info"`
	// UserHeader names a request header carrying the authenticated user id,
	// set by a fronting proxy. Empty means every request is anonymous.
	UserHeader string `env:"LIFERPG_USER_HEADER" envDefault:"X-User-Id"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("http address is required"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("database path is required"))
	}
	if c.NameDelay < 0 {
		errs = append(errs, errors.New("name check delay must not be negative"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}
