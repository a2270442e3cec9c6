package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the settings a command mode depends on. Every problem is
// reported, not just the first.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	case "calculate", "history", "export", "catalog":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	// History commands only touch the store.
	if mode != "history" {
		errs = append(errs, c.Scoring.validate()...)
	}

	switch driver := strings.ToLower(strings.TrimSpace(c.History.Driver)); driver {
	case "", "memory":
	case "sqlite", "postgres":
		if c.History.DatabaseURL == "" {
			errs = append(errs, "history.database_url is required for driver "+driver)
		}
	default:
		errs = append(errs, "history.driver must be one of memory, sqlite, postgres")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (s ScoringConfig) validate() []string {
	var errs []string
	if strings.TrimSpace(s.BaseURL) == "" {
		errs = append(errs, "scoring.base_url is required")
	}
	if s.TimeoutSecs <= 0 {
		errs = append(errs, "scoring.timeout_secs must be > 0")
	}
	if s.RatePerSec < 0 {
		errs = append(errs, "scoring.rate_per_sec must be >= 0")
	}
	if s.Retry.MaxAttempts < 1 {
		errs = append(errs, "scoring.retry.max_attempts must be >= 1")
	}
	return errs
}
