// File: internal/storage/sqlite.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/hdtickets/ticket-monitor/internal/metrics"
	"github.com/hdtickets/ticket-monitor/internal/models"
	"github.com/hdtickets/ticket-monitor/pkg/utils"
)

// SQLiteStorage implements Storage interface using SQLite
type SQLiteStorage struct {
	db         *sql.DB
	config     *StorageConfig
	logger     *logrus.Logger
	migrations []*Migration

	metricsManager *metrics.Manager
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(config *StorageConfig) *SQLiteStorage {
	return &SQLiteStorage{
		config:     config,
		logger:     utils.GetLogger(),
		migrations: GetSQLiteMigrations(),
	}
}

// SetMetricsManager wires database operation metrics
func (s *SQLiteStorage) SetMetricsManager(manager *metrics.Manager) {
	s.metricsManager = manager
}

// Connect establishes database connection
func (s *SQLiteStorage) Connect() error {
	// Ensure directory exists
	dir := filepath.Dir(s.config.ConnectionString)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase, "Failed to create database directory", err.Error())
		}
	}

	db, err := sql.Open("sqlite", s.config.ConnectionString)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to open SQLite database", err.Error())
	}

	// Configure connection pool
	db.SetMaxOpenConns(s.config.MaxConnections)
	db.SetMaxIdleConns(s.config.MaxConnections / 2)
	db.SetConnMaxLifetime(s.config.MaxIdleTime)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to enable WAL mode", err.Error())
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to enable foreign keys", err.Error())
	}

	s.db = db
	s.logger.Info("SQLite database connected", "path", s.config.ConnectionString)

	return nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		s.logger.Info("SQLite database connection closed")
		return err
	}
	return nil
}

// Ping checks database connectivity
func (s *SQLiteStorage) Ping() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}
	return s.db.Ping()
}

// Migrate runs database migrations
func (s *SQLiteStorage) Migrate() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}

	s.logger.Info("Starting database migrations")

	for _, migration := range s.migrations {
		s.logger.Info("Applying migration", "version", migration.Version, "description", migration.Description)

		if _, err := s.db.Exec(migration.SQL); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase,
				fmt.Sprintf("Migration %s failed", migration.Version),
				err.Error())
		}
	}

	s.logger.Info("Database migrations completed")
	return nil
}

func (s *SQLiteStorage) recordOperation(operation, table string, err error, start time.Time) {
	if s.metricsManager == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metricsManager.GetPrometheusMetrics().RecordDatabaseOperation(operation, table, status, time.Since(start))
}

// SaveEvent saves a tracked event
func (s *SQLiteStorage) SaveEvent(ctx context.Context, event *models.Event) error {
	start := time.Now()

	query := `
		INSERT OR REPLACE INTO events (id, name, venue, city, date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		event.ID, event.Name, event.Venue, event.City, event.Date,
		event.CreatedAt, event.UpdatedAt)

	s.recordOperation("upsert", "events", err, start)

	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to save event", err.Error())
	}
	return nil
}

// GetEvent retrieves a tracked event by ID
func (s *SQLiteStorage) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	query := `
		SELECT id, name, venue, city, date, created_at, updated_at
		FROM events WHERE id = ?
	`

	row := s.db.QueryRowContext(ctx, query, id)

	var event models.Event
	var date sql.NullTime

	err := row.Scan(&event.ID, &event.Name, &event.Venue, &event.City,
		&date, &event.CreatedAt, &event.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to get event", err.Error())
	}

	if date.Valid {
		event.Date = &date.Time
	}

	return &event, nil
}

// SaveMonitor saves a monitor
func (s *SQLiteStorage) SaveMonitor(ctx context.Context, monitor *models.Monitor) error {
	start := time.Now()

	platformsJSON, err := json.Marshal(monitor.Platforms)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to marshal platforms", err.Error())
	}
	channelsJSON, err := json.Marshal(monitor.Channels)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to marshal channels", err.Error())
	}

	query := `
		INSERT OR REPLACE INTO monitors
		(id, event_id, user_id, active, priority, platforms, channels,
		 price_drop_threshold, alert_min_interval, consecutive_errors, last_error,
		 next_run_at, last_run_at, last_run_duration, success_count, failure_count,
		 total_checks, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		monitor.ID, monitor.EventID, monitor.UserID, monitor.Active,
		string(monitor.Priority), string(platformsJSON), string(channelsJSON),
		monitor.PriceDropThreshold.String(), monitor.AlertMinInterval.Milliseconds(),
		monitor.ConsecutiveErrors, monitor.LastError,
		monitor.NextRunAt, monitor.LastRunAt, monitor.LastRunDuration.Milliseconds(),
		monitor.SuccessCount, monitor.FailureCount, monitor.TotalChecks,
		monitor.CreatedAt, monitor.UpdatedAt)

	s.recordOperation("upsert", "monitors", err, start)

	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to save monitor", err.Error())
	}
	return nil
}

// UpdateMonitor updates an existing monitor
func (s *SQLiteStorage) UpdateMonitor(ctx context.Context, monitor *models.Monitor) error {
	return s.SaveMonitor(ctx, monitor)
}

const monitorColumns = `id, event_id, user_id, active, priority, platforms, channels,
	price_drop_threshold, alert_min_interval, consecutive_errors, last_error,
	next_run_at, last_run_at, last_run_duration, success_count, failure_count,
	total_checks, created_at, updated_at`

// scanMonitor scans one monitor row
func scanMonitor(row interface{ Scan(...interface{}) error }) (*models.Monitor, error) {
	var monitor models.Monitor
	var priority, platformsJSON, channelsJSON, threshold string
	var lastError sql.NullString
	var lastRunAt sql.NullTime
	var alertMinIntervalMs, lastRunDurationMs int64

	err := row.Scan(&monitor.ID, &monitor.EventID, &monitor.UserID, &monitor.Active,
		&priority, &platformsJSON, &channelsJSON,
		&threshold, &alertMinIntervalMs, &monitor.ConsecutiveErrors, &lastError,
		&monitor.NextRunAt, &lastRunAt, &lastRunDurationMs,
		&monitor.SuccessCount, &monitor.FailureCount, &monitor.TotalChecks,
		&monitor.CreatedAt, &monitor.UpdatedAt)
	if err != nil {
		return nil, err
	}

	monitor.Priority = models.Priority(priority)
	if err := json.Unmarshal([]byte(platformsJSON), &monitor.Platforms); err != nil {
		return nil, fmt.Errorf("unmarshal platforms: %w", err)
	}
	if err := json.Unmarshal([]byte(channelsJSON), &monitor.Channels); err != nil {
		return nil, fmt.Errorf("unmarshal channels: %w", err)
	}
	monitor.PriceDropThreshold, err = decimal.NewFromString(threshold)
	if err != nil {
		return nil, fmt.Errorf("parse price drop threshold: %w", err)
	}
	monitor.AlertMinInterval = time.Duration(alertMinIntervalMs) * time.Millisecond
	monitor.LastRunDuration = time.Duration(lastRunDurationMs) * time.Millisecond
	if lastError.Valid {
		monitor.LastError = &lastError.String
	}
	if lastRunAt.Valid {
		monitor.LastRunAt = &lastRunAt.Time
	}

	return &monitor, nil
}

// GetMonitor retrieves a single monitor by ID
func (s *SQLiteStorage) GetMonitor(ctx context.Context, id string) (*models.Monitor, error) {
	query := "SELECT " + monitorColumns + " FROM monitors WHERE id = ?"

	monitor, err := scanMonitor(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to get monitor", err.Error())
	}
	return monitor, nil
}

// GetMonitors retrieves monitors based on filter
func (s *SQLiteStorage) GetMonitors(ctx context.Context, filter models.MonitorFilter) ([]*models.Monitor, error) {
	query := "SELECT " + monitorColumns + " FROM monitors WHERE 1=1"
	args := []interface{}{}

	if filter.UserID != nil {
		query += " AND user_id = ?"
		args = append(args, *filter.UserID)
	}
	if filter.EventID != nil {
		query += " AND event_id = ?"
		args = append(args, *filter.EventID)
	}
	if filter.Active != nil {
		query += " AND active = ?"
		args = append(args, *filter.Active)
	}
	if filter.Priority != nil {
		query += " AND priority = ?"
		args = append(args, string(*filter.Priority))
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query monitors", err.Error())
	}
	defer rows.Close()

	var monitors []*models.Monitor
	for rows.Next() {
		monitor, err := scanMonitor(rows)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan monitor", err.Error())
		}
		monitors = append(monitors, monitor)
	}

	return monitors, rows.Err()
}

// GetDueMonitors retrieves active monitors whose next run time has passed,
// most urgent priority first, most overdue first within a priority
func (s *SQLiteStorage) GetDueMonitors(ctx context.Context, now time.Time, limit int) ([]*models.Monitor, error) {
	start := time.Now()

	query := "SELECT " + monitorColumns + ` FROM monitors
		WHERE active = TRUE AND next_run_at <= ?
		ORDER BY CASE priority
			WHEN 'critical' THEN 4
			WHEN 'high' THEN 3
			WHEN 'medium' THEN 2
			WHEN 'low' THEN 1
			ELSE 0
		END DESC, next_run_at ASC
	`
	args := []interface{}{now}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	s.recordOperation("select", "monitors", err, start)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query due monitors", err.Error())
	}
	defer rows.Close()

	var monitors []*models.Monitor
	for rows.Next() {
		monitor, err := scanMonitor(rows)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan monitor", err.Error())
		}
		monitors = append(monitors, monitor)
	}

	return monitors, rows.Err()
}

// DeleteMonitor deletes a monitor and its snapshots
func (s *SQLiteStorage) DeleteMonitor(ctx context.Context, id string) error {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to begin transaction", err.Error())
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshots WHERE monitor_id = ?", id); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to delete monitor snapshots", err.Error())
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM monitors WHERE id = ?", id); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to delete monitor", err.Error())
	}

	err = tx.Commit()
	s.recordOperation("delete", "monitors", err, start)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to commit transaction", err.Error())
	}
	return nil
}

// SaveSnapshot overwrites the live snapshot for a (monitor, platform)
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, monitorID string, snapshot *models.PlatformSnapshot) error {
	start := time.Now()

	listingsJSON, err := json.Marshal(snapshot.Listings)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to marshal listings", err.Error())
	}

	query := `
		INSERT OR REPLACE INTO snapshots (monitor_id, platform, listings, captured_at, quality)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		monitorID, snapshot.Platform, string(listingsJSON), snapshot.CapturedAt, snapshot.Quality)

	s.recordOperation("upsert", "snapshots", err, start)

	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to save snapshot", err.Error())
	}
	return nil
}

// GetSnapshot retrieves the live snapshot for a (monitor, platform)
func (s *SQLiteStorage) GetSnapshot(ctx context.Context, monitorID, platform string) (*models.PlatformSnapshot, error) {
	query := `
		SELECT platform, listings, captured_at, quality
		FROM snapshots WHERE monitor_id = ? AND platform = ?
	`

	row := s.db.QueryRowContext(ctx, query, monitorID, platform)

	var snapshot models.PlatformSnapshot
	var listingsJSON string

	err := row.Scan(&snapshot.Platform, &listingsJSON, &snapshot.CapturedAt, &snapshot.Quality)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to get snapshot", err.Error())
	}

	if err := json.Unmarshal([]byte(listingsJSON), &snapshot.Listings); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to unmarshal listings", err.Error())
	}

	return &snapshot, nil
}

// GetSnapshots retrieves all live snapshots for a monitor, keyed by platform
func (s *SQLiteStorage) GetSnapshots(ctx context.Context, monitorID string) (map[string]*models.PlatformSnapshot, error) {
	query := `
		SELECT platform, listings, captured_at, quality
		FROM snapshots WHERE monitor_id = ?
	`

	rows, err := s.db.QueryContext(ctx, query, monitorID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query snapshots", err.Error())
	}
	defer rows.Close()

	snapshots := make(map[string]*models.PlatformSnapshot)
	for rows.Next() {
		var snapshot models.PlatformSnapshot
		var listingsJSON string

		if err := rows.Scan(&snapshot.Platform, &listingsJSON, &snapshot.CapturedAt, &snapshot.Quality); err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan snapshot", err.Error())
		}
		if err := json.Unmarshal([]byte(listingsJSON), &snapshot.Listings); err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to unmarshal listings", err.Error())
		}

		snapshots[snapshot.Platform] = &snapshot
	}

	return snapshots, rows.Err()
}

// SaveChangeEvents appends change events to the archive in a transaction
func (s *SQLiteStorage) SaveChangeEvents(ctx context.Context, events []*models.ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}

	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to begin transaction", err.Error())
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO change_events
		(id, monitor_id, platform, type, urgency, listing_id, before_listing, after_listing, message, detected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to prepare statement", err.Error())
	}
	defer stmt.Close()

	for _, event := range events {
		var beforeJSON interface{}
		if event.Before != nil {
			data, err := json.Marshal(event.Before)
			if err != nil {
				return utils.NewAppError(utils.ErrCodeDatabase, "Failed to marshal before listing", err.Error())
			}
			beforeJSON = string(data)
		}

		afterJSON, err := json.Marshal(event.After)
		if err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase, "Failed to marshal after listing", err.Error())
		}

		_, err = stmt.ExecContext(ctx,
			event.ID, event.MonitorID, event.Platform, string(event.Type), string(event.Urgency),
			event.ListingID, beforeJSON, string(afterJSON), event.Message, event.DetectedAt)
		if err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase, "Failed to save change event", err.Error())
		}
	}

	err = tx.Commit()
	s.recordOperation("insert", "change_events", err, start)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to commit transaction", err.Error())
	}

	s.logger.Debug("Saved change events batch", "count", len(events))
	return nil
}

// GetChangeEvents retrieves archived change events based on filter
func (s *SQLiteStorage) GetChangeEvents(ctx context.Context, filter models.ChangeEventFilter) ([]*models.ChangeEvent, error) {
	query := `
		SELECT id, monitor_id, platform, type, urgency, listing_id, before_listing, after_listing, message, detected_at
		FROM change_events WHERE 1=1
	`
	args := []interface{}{}

	if filter.MonitorID != nil {
		query += " AND monitor_id = ?"
		args = append(args, *filter.MonitorID)
	}
	if filter.Platform != nil {
		query += " AND platform = ?"
		args = append(args, *filter.Platform)
	}
	if filter.Type != nil {
		query += " AND type = ?"
		args = append(args, string(*filter.Type))
	}
	if filter.From != nil {
		query += " AND detected_at >= ?"
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		query += " AND detected_at <= ?"
		args = append(args, *filter.To)
	}

	query += " ORDER BY detected_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query change events", err.Error())
	}
	defer rows.Close()

	var events []*models.ChangeEvent
	for rows.Next() {
		var event models.ChangeEvent
		var changeType, urgency, afterJSON string
		var beforeJSON sql.NullString

		err := rows.Scan(&event.ID, &event.MonitorID, &event.Platform, &changeType, &urgency,
			&event.ListingID, &beforeJSON, &afterJSON, &event.Message, &event.DetectedAt)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan change event", err.Error())
		}

		event.Type = models.ChangeType(changeType)
		event.Urgency = models.Urgency(urgency)

		if beforeJSON.Valid {
			var before models.Listing
			if err := json.Unmarshal([]byte(beforeJSON.String), &before); err != nil {
				return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to unmarshal before listing", err.Error())
			}
			event.Before = &before
		}
		if err := json.Unmarshal([]byte(afterJSON), &event.After); err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to unmarshal after listing", err.Error())
		}

		events = append(events, &event)
	}

	return events, rows.Err()
}

// SaveAlertAttempts appends alert delivery records in a transaction
func (s *SQLiteStorage) SaveAlertAttempts(ctx context.Context, attempts []*models.AlertDeliveryAttempt) error {
	if len(attempts) == 0 {
		return nil
	}

	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to begin transaction", err.Error())
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO alert_attempts
		(id, change_event_id, monitor_id, channel, success, error, duration, attempted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to prepare statement", err.Error())
	}
	defer stmt.Close()

	for _, attempt := range attempts {
		_, err = stmt.ExecContext(ctx,
			attempt.ID, attempt.ChangeEventID, attempt.MonitorID, attempt.Channel,
			attempt.Success, attempt.Error, attempt.Duration.Milliseconds(), attempt.AttemptedAt)
		if err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase, "Failed to save alert attempt", err.Error())
		}
	}

	err = tx.Commit()
	s.recordOperation("insert", "alert_attempts", err, start)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to commit transaction", err.Error())
	}
	return nil
}

// GetStorageStats returns storage statistics
func (s *SQLiteStorage) GetStorageStats(ctx context.Context) (*StorageStats, error) {
	stats := &StorageStats{}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM monitors").Scan(&stats.TotalMonitors); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count monitors", err.Error())
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM monitors WHERE active = TRUE").Scan(&stats.ActiveMonitors); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count active monitors", err.Error())
	}
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM monitors WHERE consecutive_errors >= ?", models.ErrorStateThreshold).Scan(&stats.MonitorsInError); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count monitors in error", err.Error())
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM change_events").Scan(&stats.TotalChangeEvents); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count change events", err.Error())
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM alert_attempts").Scan(&stats.TotalAlertAttempts); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count alert attempts", err.Error())
	}

	var oldest, latest sql.NullTime
	if err := s.db.QueryRowContext(ctx,
		"SELECT MIN(detected_at), MAX(detected_at) FROM change_events").Scan(&oldest, &latest); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to get change event range", err.Error())
	}
	if oldest.Valid {
		stats.OldestChangeEvent = &oldest.Time
	}
	if latest.Valid {
		stats.LatestChangeEvent = &latest.Time
	}

	return stats, nil
}

// Cleanup removes archived rows older than the retention window
func (s *SQLiteStorage) Cleanup(ctx context.Context, retentionDays int) error {
	if retentionDays <= 0 {
		retentionDays = s.config.RetentionDays
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result, err := s.db.ExecContext(ctx, "DELETE FROM change_events WHERE detected_at < ?", cutoff)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to clean up change events", err.Error())
	}
	removedEvents, _ := result.RowsAffected()

	result, err = s.db.ExecContext(ctx, "DELETE FROM alert_attempts WHERE attempted_at < ?", cutoff)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to clean up alert attempts", err.Error())
	}
	removedAttempts, _ := result.RowsAffected()

	s.logger.Info("Storage cleanup completed",
		"change_events_removed", removedEvents,
		"alert_attempts_removed", removedAttempts,
		"retention_days", retentionDays)

	return nil
}

var _ Storage = (*SQLiteStorage)(nil)
