package storage

import (
	"time"
)

// Migration represents a database migration
type Migration struct {
	ID          int       `db:"id"`
	Version     string    `db:"version"`
	Description string    `db:"description"`
	SQL         string    `db:"sql"`
	AppliedAt   time.Time `db:"applied_at"`
}

// GetSQLiteMigrations returns SQLite migration scripts
func GetSQLiteMigrations() []*Migration {
	return []*Migration{
		{
			Version:     "001",
			Description: "Create events table",
			SQL: `
				CREATE TABLE IF NOT EXISTS events (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					venue TEXT NOT NULL DEFAULT '',
					city TEXT NOT NULL DEFAULT '',
					date DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_events_date ON events(date);
			`,
		},
		{
			Version:     "002",
			Description: "Create monitors table",
			SQL: `
				CREATE TABLE IF NOT EXISTS monitors (
					id TEXT PRIMARY KEY,
					event_id TEXT NOT NULL,
					user_id TEXT NOT NULL,
					active BOOLEAN DEFAULT TRUE,
					priority TEXT NOT NULL,
					platforms TEXT NOT NULL, -- JSON
					channels TEXT NOT NULL, -- JSON
					price_drop_threshold TEXT NOT NULL DEFAULT '0',
					alert_min_interval INTEGER DEFAULT 0, -- milliseconds
					consecutive_errors INTEGER DEFAULT 0,
					last_error TEXT,
					next_run_at DATETIME NOT NULL,
					last_run_at DATETIME,
					last_run_duration INTEGER DEFAULT 0, -- milliseconds
					success_count INTEGER DEFAULT 0,
					failure_count INTEGER DEFAULT 0,
					total_checks INTEGER DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (event_id) REFERENCES events (id)
				);

				CREATE INDEX IF NOT EXISTS idx_monitors_active ON monitors(active);
				CREATE INDEX IF NOT EXISTS idx_monitors_next_run_at ON monitors(next_run_at);
				CREATE INDEX IF NOT EXISTS idx_monitors_user_id ON monitors(user_id);
				CREATE INDEX IF NOT EXISTS idx_monitors_event_id ON monitors(event_id);
			`,
		},
		{
			Version:     "003",
			Description: "Create snapshots table",
			SQL: `
				CREATE TABLE IF NOT EXISTS snapshots (
					monitor_id TEXT NOT NULL,
					platform TEXT NOT NULL,
					listings TEXT NOT NULL, -- JSON
					captured_at DATETIME NOT NULL,
					quality TEXT NOT NULL DEFAULT 'full',
					PRIMARY KEY (monitor_id, platform)
				);

				CREATE INDEX IF NOT EXISTS idx_snapshots_captured_at ON snapshots(captured_at);
			`,
		},
		{
			Version:     "004",
			Description: "Create change_events table",
			SQL: `
				CREATE TABLE IF NOT EXISTS change_events (
					id TEXT PRIMARY KEY,
					monitor_id TEXT NOT NULL,
					platform TEXT NOT NULL,
					type TEXT NOT NULL,
					urgency TEXT NOT NULL,
					listing_id TEXT NOT NULL,
					before_listing TEXT, -- JSON
					after_listing TEXT NOT NULL, -- JSON
					message TEXT NOT NULL,
					detected_at DATETIME NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_change_events_monitor_id ON change_events(monitor_id);
				CREATE INDEX IF NOT EXISTS idx_change_events_type ON change_events(type);
				CREATE INDEX IF NOT EXISTS idx_change_events_detected_at ON change_events(detected_at);
			`,
		},
		{
			Version:     "005",
			Description: "Create alert_attempts table",
			SQL: `
				CREATE TABLE IF NOT EXISTS alert_attempts (
					id TEXT PRIMARY KEY,
					change_event_id TEXT NOT NULL,
					monitor_id TEXT NOT NULL,
					channel TEXT NOT NULL,
					success BOOLEAN DEFAULT FALSE,
					error TEXT,
					duration INTEGER DEFAULT 0, -- milliseconds
					attempted_at DATETIME NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_alert_attempts_monitor_id ON alert_attempts(monitor_id);
				CREATE INDEX IF NOT EXISTS idx_alert_attempts_attempted_at ON alert_attempts(attempted_at);
			`,
		},
	}
}

// GetPostgresMigrations returns PostgreSQL migration scripts
func GetPostgresMigrations() []*Migration {
	return []*Migration{
		{
			Version:     "001",
			Description: "Create events table",
			SQL: `
				CREATE TABLE IF NOT EXISTS events (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					venue TEXT NOT NULL DEFAULT '',
					city TEXT NOT NULL DEFAULT '',
					date TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_events_date ON events(date);
			`,
		},
		{
			Version:     "002",
			Description: "Create monitors table",
			SQL: `
				CREATE TABLE IF NOT EXISTS monitors (
					id TEXT PRIMARY KEY,
					event_id TEXT NOT NULL,
					user_id TEXT NOT NULL,
					active BOOLEAN DEFAULT TRUE,
					priority TEXT NOT NULL,
					platforms JSONB NOT NULL,
					channels JSONB NOT NULL,
					price_drop_threshold TEXT NOT NULL DEFAULT '0',
					alert_min_interval BIGINT DEFAULT 0,
					consecutive_errors INTEGER DEFAULT 0,
					last_error TEXT,
					next_run_at TIMESTAMP WITH TIME ZONE NOT NULL,
					last_run_at TIMESTAMP WITH TIME ZONE,
					last_run_duration BIGINT DEFAULT 0,
					success_count BIGINT DEFAULT 0,
					failure_count BIGINT DEFAULT 0,
					total_checks BIGINT DEFAULT 0,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					CONSTRAINT fk_monitors_event FOREIGN KEY (event_id) REFERENCES events (id)
				);

				CREATE INDEX IF NOT EXISTS idx_monitors_active ON monitors(active);
				CREATE INDEX IF NOT EXISTS idx_monitors_next_run_at ON monitors(next_run_at);
				CREATE INDEX IF NOT EXISTS idx_monitors_user_id ON monitors(user_id);
				CREATE INDEX IF NOT EXISTS idx_monitors_event_id ON monitors(event_id);
			`,
		},
		{
			Version:     "003",
			Description: "Create snapshots table",
			SQL: `
				CREATE TABLE IF NOT EXISTS snapshots (
					monitor_id TEXT NOT NULL,
					platform TEXT NOT NULL,
					listings JSONB NOT NULL,
					captured_at TIMESTAMP WITH TIME ZONE NOT NULL,
					quality TEXT NOT NULL DEFAULT 'full',
					PRIMARY KEY (monitor_id, platform)
				);

				CREATE INDEX IF NOT EXISTS idx_snapshots_captured_at ON snapshots(captured_at);
			`,
		},
		{
			Version:     "004",
			Description: "Create change_events table",
			SQL: `
				CREATE TABLE IF NOT EXISTS change_events (
					id TEXT PRIMARY KEY,
					monitor_id TEXT NOT NULL,
					platform TEXT NOT NULL,
					type TEXT NOT NULL,
					urgency TEXT NOT NULL,
					listing_id TEXT NOT NULL,
					before_listing JSONB,
					after_listing JSONB NOT NULL,
					message TEXT NOT NULL,
					detected_at TIMESTAMP WITH TIME ZONE NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_change_events_monitor_id ON change_events(monitor_id);
				CREATE INDEX IF NOT EXISTS idx_change_events_type ON change_events(type);
				CREATE INDEX IF NOT EXISTS idx_change_events_detected_at ON change_events(detected_at);
			`,
		},
		{
			Version:     "005",
			Description: "Create alert_attempts table",
			SQL: `
				CREATE TABLE IF NOT EXISTS alert_attempts (
					id TEXT PRIMARY KEY,
					change_event_id TEXT NOT NULL,
					monitor_id TEXT NOT NULL,
					channel TEXT NOT NULL,
					success BOOLEAN DEFAULT FALSE,
					error TEXT,
					duration BIGINT DEFAULT 0,
					attempted_at TIMESTAMP WITH TIME ZONE NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_alert_attempts_monitor_id ON alert_attempts(monitor_id);
				CREATE INDEX IF NOT EXISTS idx_alert_attempts_attempted_at ON alert_attempts(attempted_at);
			`,
		},
	}
}
