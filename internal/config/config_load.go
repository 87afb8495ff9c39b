package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/titanous/json5"

	"github.com/nextlevelbuilder/goclaw-analytics/internal/cron"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Orchestrator: OrchestratorConfig{
			WindowDays:       1,
			ScheduleTimezone: "UTC",
		},
		HTTP: HTTPConfig{
			Host: "0.0.0.0",
			Port: 8780,
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars. A missing
// file is not an error — Default() plus env overrides is a valid config.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config. Env vars take
// precedence over file values. DSNs are read ONLY from the environment,
// never persisted to the config file (§ ambient stack / secrets handling).
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	envStr("ANALYTICS_POSTGRES_DSN", &c.Database.PostgresDSN)
	envStr("ANALYTICS_EVENT_STORE_DSN", &c.EventStore.DSN)
	envStr("ANALYTICS_SCHEDULE_TZ", &c.Orchestrator.ScheduleTimezone)
	envStr("ANALYTICS_CRON_EXPRESSION", &c.Cron.Expression)
	envStr("ANALYTICS_HTTP_HOST", &c.HTTP.Host)

	if v := os.Getenv("ANALYTICS_WINDOW_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			c.Orchestrator.WindowDays = days
		}
	}
	if v := os.Getenv("ANALYTICS_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil && workers > 0 {
			c.Orchestrator.Workers = workers
		}
	}
	if v := os.Getenv("ANALYTICS_STRICT_SAME_DAY_CONTAINMENT"); v != "" {
		c.Orchestrator.StrictSameDayContainment = v == "true" || v == "1"
	}
	if v := os.Getenv("ANALYTICS_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.HTTP.Port = port
		}
	}
}

// Validate checks invariants that would otherwise surface as confusing
// failures deep in the orchestrator — a malformed cron expression or a
// missing DSN should fail fast at startup as a ConfigError (§7).
func (c *Config) Validate() error {
	if err := cron.ValidateExpression(c.Cron.Expression); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Database.PostgresDSN == "" {
		return fmt.Errorf("config: ANALYTICS_POSTGRES_DSN is required")
	}
	return nil
}

// EventStoreDSN returns the configured event-store DSN, falling back to the
// main database DSN if none was set separately.
func (c *Config) EventStoreDSN() string {
	if c.EventStore.DSN != "" {
		return c.EventStore.DSN
	}
	return c.Database.PostgresDSN
}

// ScheduleZone parses Orchestrator.ScheduleTimezone into a *time.Location,
// defaulting to UTC when unset (§9, ANALYTICS_SCHEDULE_TZ).
func (c *Config) ScheduleZone() (*time.Location, error) {
	if c.Orchestrator.ScheduleTimezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Orchestrator.ScheduleTimezone)
	if err != nil {
		return nil, fmt.Errorf("schedule_timezone %q: %w", c.Orchestrator.ScheduleTimezone, err)
	}
	return loc, nil
}

// ApplyEnvOverrides re-applies environment variable overrides onto the
// config. Call this after modifying config to restore runtime secrets.
func (c *Config) ApplyEnvOverrides() {
	c.applyEnvOverrides()
}
