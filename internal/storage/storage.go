// File: internal/storage/storage.go
package storage

import (
	"context"
	"time"

	"github.com/hdtickets/ticket-monitor/internal/metrics"
	"github.com/hdtickets/ticket-monitor/internal/models"
)

// Storage defines the interface for monitor persistence
type Storage interface {
	// Connection management
	Connect() error
	Close() error
	Ping() error
	Migrate() error
	SetMetricsManager(manager *metrics.Manager)

	// Event operations
	SaveEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id string) (*models.Event, error)

	// Monitor operations
	SaveMonitor(ctx context.Context, monitor *models.Monitor) error
	GetMonitor(ctx context.Context, id string) (*models.Monitor, error)
	GetMonitors(ctx context.Context, filter models.MonitorFilter) ([]*models.Monitor, error)
	GetDueMonitors(ctx context.Context, now time.Time, limit int) ([]*models.Monitor, error)
	UpdateMonitor(ctx context.Context, monitor *models.Monitor) error
	DeleteMonitor(ctx context.Context, id string) error

	// Snapshot operations. One live snapshot per (monitor, platform),
	// overwritten on each successful fetch.
	SaveSnapshot(ctx context.Context, monitorID string, snapshot *models.PlatformSnapshot) error
	GetSnapshot(ctx context.Context, monitorID, platform string) (*models.PlatformSnapshot, error)
	GetSnapshots(ctx context.Context, monitorID string) (map[string]*models.PlatformSnapshot, error)

	// Change event archive, append-only
	SaveChangeEvents(ctx context.Context, events []*models.ChangeEvent) error
	GetChangeEvents(ctx context.Context, filter models.ChangeEventFilter) ([]*models.ChangeEvent, error)

	// Alert delivery records, append-only
	SaveAlertAttempts(ctx context.Context, attempts []*models.AlertDeliveryAttempt) error

	// Statistics and monitoring
	GetStorageStats(ctx context.Context) (*StorageStats, error)

	// Maintenance operations
	Cleanup(ctx context.Context, retentionDays int) error
}

// StorageStats provides storage statistics
type StorageStats struct {
	TotalMonitors      int64      `json:"total_monitors"`
	ActiveMonitors     int64      `json:"active_monitors"`
	MonitorsInError    int64      `json:"monitors_in_error"`
	TotalChangeEvents  int64      `json:"total_change_events"`
	TotalAlertAttempts int64      `json:"total_alert_attempts"`
	OldestChangeEvent  *time.Time `json:"oldest_change_event,omitempty"`
	LatestChangeEvent  *time.Time `json:"latest_change_event,omitempty"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type             string        `json:"type"`
	ConnectionString string        `json:"connection_string"`
	MaxConnections   int           `json:"max_connections"`
	MaxIdleTime      time.Duration `json:"max_idle_time"`
	RetentionDays    int           `json:"retention_days"`
}
