package config

import "sync"

// Config is the root configuration for the analytics engine.
type Config struct {
	Orchestrator OrchestratorConfig `json:"orchestrator"`
	Database     DatabaseConfig     `json:"database,omitempty"`
	EventStore   EventStoreConfig   `json:"event_store,omitempty"`
	HTTP         HTTPConfig         `json:"http"`
	Cron         CronConfig         `json:"cron,omitempty"`

	mu sync.RWMutex
}

// OrchestratorConfig tunes the job orchestrator's knobs (§4.G).
type OrchestratorConfig struct {
	// WindowDays is D, the daily pipeline's ingestion lookback (default 1).
	WindowDays int `json:"window_days,omitempty"`
	// ScheduleTimezone is the IANA zone schedules without an explicit zone
	// are evaluated in (default "UTC").
	ScheduleTimezone string `json:"schedule_timezone,omitempty"`
	// StrictSameDayContainment gates the same-day compatibility fast path
	// (§9 Open Question 1). Defaults to false (the corrected behavior).
	StrictSameDayContainment bool `json:"strict_same_day_containment,omitempty"`
	// Workers bounds the aggregator's partition fan-out (0 = GOMAXPROCS).
	Workers int `json:"workers,omitempty"`
}

// DatabaseConfig configures the Postgres connection backing the aggregate
// tables and schedule/binding stores.
// PostgresDSN is NEVER read from config.json (secret) — only from env
// ANALYTICS_POSTGRES_DSN.
type DatabaseConfig struct {
	PostgresDSN string `json:"-"`
}

// EventStoreConfig configures the message-events source. If DSN is empty,
// EventStore falls back to the same connection as DatabaseConfig.
type EventStoreConfig struct {
	DSN string `json:"-"` // from env ANALYTICS_EVENT_STORE_DSN only
}

// HTTPConfig configures the httpapi listener.
type HTTPConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// CronConfig configures the recurring-run trigger (§5).
type CronConfig struct {
	// Expression is a standard 5-field cron expression validated with
	// gronx; empty disables the recurring trigger (manual/HTTP runs only).
	Expression string `json:"expression,omitempty"`
}

// ReplaceFrom copies all data fields from src into c, preserving c's mutex.
func (c *Config) ReplaceFrom(src *Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Orchestrator = src.Orchestrator
	c.Database = src.Database
	c.EventStore = src.EventStore
	c.HTTP = src.HTTP
	c.Cron = src.Cron
}
