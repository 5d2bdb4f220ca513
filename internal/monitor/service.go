// File: internal/monitor/service.go
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hdtickets/ticket-monitor/internal/cache"
	"github.com/hdtickets/ticket-monitor/internal/config"
	"github.com/hdtickets/ticket-monitor/internal/dispatch"
	"github.com/hdtickets/ticket-monitor/internal/fetch"
	"github.com/hdtickets/ticket-monitor/internal/metrics"
	"github.com/hdtickets/ticket-monitor/internal/models"
	"github.com/hdtickets/ticket-monitor/internal/platform"
	"github.com/hdtickets/ticket-monitor/internal/scheduler"
	"github.com/hdtickets/ticket-monitor/internal/storage"
	"github.com/hdtickets/ticket-monitor/pkg/utils"
)

// Service defines the monitoring service interface
type Service interface {
	// Lifecycle management
	Start(ctx context.Context) error
	Stop() error
	IsRunning() bool

	// Monitor management
	RegisterMonitor(ctx context.Context, monitor *models.Monitor) error
	DeactivateMonitor(ctx context.Context, id string) error
	GetMonitor(ctx context.Context, id string) (*models.Monitor, error)
	GetMonitors(ctx context.Context, filter models.MonitorFilter) ([]*models.Monitor, error)

	// Event management
	RegisterEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id string) (*models.Event, error)

	// Monitoring
	RunMonitoringCycle(ctx context.Context) (*CycleResult, error)

	// Real-time reads
	GetEventSummary(eventID string) *models.EventSummary
	RecentChanges(limit int) []*models.ChangeEvent

	// Statistics and monitoring
	GetStats() *ServiceStats
	GetHealth() *HealthStatus
}

// MonitorService implements the Service interface
type MonitorService struct {
	// Dependencies
	storage      storage.Storage
	registry     *platform.Registry
	orchestrator *fetch.Orchestrator
	scheduler    *scheduler.Scheduler
	dispatcher   *dispatch.Dispatcher
	summaryCache *cache.SummaryCache
	changeFeed   *cache.ChangeFeed
	logger       *logrus.Logger

	// Configuration
	config *config.MonitoringConfig

	// State management
	mu       sync.RWMutex
	running  bool
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// Per-monitor locks keep snapshot read-diff-write atomic when a slow
	// check overlaps the next cycle
	lockMu       sync.Mutex
	monitorLocks map[string]*sync.Mutex

	// Statistics
	stats          *ServiceStats
	metricsManager *metrics.Manager
}

// ServiceStats provides service statistics
type ServiceStats struct {
	StartTime             time.Time     `json:"start_time"`
	Uptime                time.Duration `json:"uptime"`
	IsRunning             bool          `json:"is_running"`
	TotalCycles           uint64        `json:"total_cycles"`
	TotalChecks           uint64        `json:"total_checks"`
	SuccessfulChecks      uint64        `json:"successful_checks"`
	FailedChecks          uint64        `json:"failed_checks"`
	TotalChangesDetected  uint64        `json:"total_changes_detected"`
	TotalAlertsDelivered  uint64        `json:"total_alerts_delivered"`
	TotalAlertsSuppressed uint64        `json:"total_alerts_suppressed"`
	LastCycleAt           *time.Time    `json:"last_cycle_at,omitempty"`
	LastCycleDuration     time.Duration `json:"last_cycle_duration"`
	ErrorCount            uint64        `json:"error_count"`
	LastError             *string       `json:"last_error,omitempty"`
	LastErrorTime         *time.Time    `json:"last_error_time,omitempty"`
}

// HealthStatus provides health information
type HealthStatus struct {
	Healthy        bool       `json:"healthy"`
	StorageHealthy bool       `json:"storage_healthy"`
	LastCycleAt    *time.Time `json:"last_cycle_at,omitempty"`
	Issues         []string   `json:"issues,omitempty"`
}

// NewMonitorService creates a new monitoring service
func NewMonitorService(
	store storage.Storage,
	registry *platform.Registry,
	orchestrator *fetch.Orchestrator,
	sched *scheduler.Scheduler,
	dispatcher *dispatch.Dispatcher,
	summaryCache *cache.SummaryCache,
	changeFeed *cache.ChangeFeed,
	cfg *config.MonitoringConfig,
	metricsManager *metrics.Manager,
) *MonitorService {
	return &MonitorService{
		storage:        store,
		registry:       registry,
		orchestrator:   orchestrator,
		scheduler:      sched,
		dispatcher:     dispatcher,
		summaryCache:   summaryCache,
		changeFeed:     changeFeed,
		config:         cfg,
		logger:         utils.GetLogger(),
		stopChan:       make(chan struct{}),
		monitorLocks:   make(map[string]*sync.Mutex),
		metricsManager: metricsManager,
		stats: &ServiceStats{
			StartTime: time.Now(),
		},
	}
}

// Start starts the continuous monitoring loop
func (s *MonitorService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return utils.NewAppError(utils.ErrCodeInternal, "Monitoring service already running", "")
	}

	s.logger.Info("Starting monitoring service")

	s.running = true
	s.stats.StartTime = time.Now()
	s.stats.IsRunning = true

	s.wg.Add(2)
	go s.monitoringLoop(ctx)
	go s.maintenanceLoop(ctx)

	s.logger.Info("Monitoring service started",
		"cycle_interval", s.config.CycleInterval,
		"max_concurrency", s.config.MaxConcurrency,
		"platforms", s.registry.Enabled())

	return nil
}

// Stop stops the monitoring service
func (s *MonitorService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.logger.Info("Stopping monitoring service")

	s.running = false
	s.stats.IsRunning = false

	s.stopOnce.Do(func() {
		close(s.stopChan)
	})

	s.wg.Wait()

	s.logger.Info("Monitoring service stopped")
	return nil
}

// IsRunning returns whether the service is running
func (s *MonitorService) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// RegisterMonitor validates and activates a new monitor. The first check
// becomes due immediately.
func (s *MonitorService) RegisterMonitor(ctx context.Context, monitor *models.Monitor) error {
	if err := s.validateMonitor(ctx, monitor); err != nil {
		return err
	}

	now := time.Now()
	if monitor.ID == "" {
		monitor.ID = utils.MustGenerateID()
	}
	monitor.Active = true
	monitor.ConsecutiveErrors = 0
	monitor.NextRunAt = now
	monitor.CreatedAt = now
	monitor.UpdatedAt = now

	if err := s.storage.SaveMonitor(ctx, monitor); err != nil {
		return err
	}

	s.logger.Info("Monitor registered",
		"monitor_id", monitor.ID,
		"event_id", monitor.EventID,
		"user_id", monitor.UserID,
		"priority", monitor.Priority,
		"platforms", monitor.Platforms)

	return nil
}

// validateMonitor checks a registration request against the current
// platform configuration
func (s *MonitorService) validateMonitor(ctx context.Context, monitor *models.Monitor) error {
	if monitor.EventID == "" {
		return utils.NewAppError(utils.ErrCodeValidation, "Event ID is required", "")
	}
	if monitor.UserID == "" {
		return utils.NewAppError(utils.ErrCodeValidation, "User ID is required", "")
	}
	if !monitor.Priority.Valid() {
		return utils.NewAppError(utils.ErrCodeValidation, "Unknown priority", string(monitor.Priority))
	}
	if len(monitor.Platforms) == 0 {
		return utils.NewAppError(utils.ErrCodeValidation, "At least one platform is required", "")
	}
	for _, name := range monitor.Platforms {
		if !s.registry.Has(name) {
			return utils.NewAppError(utils.ErrCodeConfiguration,
				"Platform not enabled", name)
		}
	}
	for _, channel := range monitor.Channels {
		if !models.ValidChannel(channel) {
			return utils.NewAppError(utils.ErrCodeValidation, "Unknown channel", channel)
		}
	}
	if monitor.PriceDropThreshold.IsNegative() {
		return utils.NewAppError(utils.ErrCodeValidation,
			"Price drop threshold must not be negative", monitor.PriceDropThreshold.String())
	}

	event, err := s.storage.GetEvent(ctx, monitor.EventID)
	if err != nil {
		return err
	}
	if event == nil {
		return utils.NewAppError(utils.ErrCodeNotFound, "Event not found", monitor.EventID)
	}

	return nil
}

// DeactivateMonitor stops future checks for a monitor without removing it
func (s *MonitorService) DeactivateMonitor(ctx context.Context, id string) error {
	monitor, err := s.storage.GetMonitor(ctx, id)
	if err != nil {
		return err
	}
	if monitor == nil {
		return utils.NewAppError(utils.ErrCodeNotFound, "Monitor not found", id)
	}

	monitor.Active = false
	monitor.UpdatedAt = time.Now()

	if err := s.storage.UpdateMonitor(ctx, monitor); err != nil {
		return err
	}

	s.logger.Info("Monitor deactivated", "monitor_id", id)
	return nil
}

// GetMonitor retrieves a monitor by ID
func (s *MonitorService) GetMonitor(ctx context.Context, id string) (*models.Monitor, error) {
	return s.storage.GetMonitor(ctx, id)
}

// GetMonitors retrieves monitors matching the filter
func (s *MonitorService) GetMonitors(ctx context.Context, filter models.MonitorFilter) ([]*models.Monitor, error) {
	return s.storage.GetMonitors(ctx, filter)
}

// RegisterEvent saves a tracked event
func (s *MonitorService) RegisterEvent(ctx context.Context, event *models.Event) error {
	if event.Name == "" {
		return utils.NewAppError(utils.ErrCodeValidation, "Event name is required", "")
	}

	now := time.Now()
	if event.ID == "" {
		event.ID = utils.MustGenerateID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	return s.storage.SaveEvent(ctx, event)
}

// GetEvent retrieves a tracked event by ID
func (s *MonitorService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	return s.storage.GetEvent(ctx, id)
}

// GetEventSummary returns the cached cross-platform summary for an event.
// Reads are cache-only; a nil return means no fresh data is available.
func (s *MonitorService) GetEventSummary(eventID string) *models.EventSummary {
	return s.summaryCache.Get(eventID)
}

// RecentChanges returns the latest detected changes, newest first
func (s *MonitorService) RecentChanges(limit int) []*models.ChangeEvent {
	return s.changeFeed.Recent(limit)
}

// GetStats returns a copy of the current service statistics
func (s *MonitorService) GetStats() *ServiceStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := *s.stats
	stats.Uptime = time.Since(s.stats.StartTime)
	stats.IsRunning = s.running
	return &stats
}

// GetHealth returns the service health status
func (s *MonitorService) GetHealth() *HealthStatus {
	health := &HealthStatus{
		Healthy:        true,
		StorageHealthy: true,
	}

	if err := s.storage.Ping(); err != nil {
		health.Healthy = false
		health.StorageHealthy = false
		health.Issues = append(health.Issues, fmt.Sprintf("storage: %v", err))
	}

	s.mu.RLock()
	if !s.running {
		health.Healthy = false
		health.Issues = append(health.Issues, "monitoring loop not running")
	}
	health.LastCycleAt = s.stats.LastCycleAt
	s.mu.RUnlock()

	return health
}

// lockFor returns the mutex guarding one monitor's snapshot lifecycle
func (s *MonitorService) lockFor(monitorID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	lock, ok := s.monitorLocks[monitorID]
	if !ok {
		lock = &sync.Mutex{}
		s.monitorLocks[monitorID] = lock
	}
	return lock
}

// monitoringLoop drives continuous monitoring cycles
func (s *MonitorService) monitoringLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CycleInterval)
	defer ticker.Stop()

	s.logger.Info("Starting monitoring loop", "interval", s.config.CycleInterval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Monitoring loop stopped by context")
			return
		case <-s.stopChan:
			s.logger.Info("Monitoring loop stopped by stop signal")
			return
		case <-ticker.C:
			if _, err := s.RunMonitoringCycle(ctx); err != nil {
				s.logger.Error("Monitoring cycle failed", "error", err)
				s.recordError(err)
			}
		}
	}
}

// maintenanceLoop handles periodic housekeeping
func (s *MonitorService) maintenanceLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.summaryCache.Prune()
			s.dispatcher.PruneRateGuard(24 * time.Hour)
			s.updateInventoryMetrics(ctx)
			if s.metricsManager != nil {
				s.metricsManager.UpdateSystemMetrics()
			}
		}
	}
}

// updateInventoryMetrics refreshes monitor count gauges from storage
func (s *MonitorService) updateInventoryMetrics(ctx context.Context) {
	if s.metricsManager == nil {
		return
	}

	stats, err := s.storage.GetStorageStats(ctx)
	if err != nil {
		s.logger.Warn("Failed to refresh storage stats", "error", err)
		return
	}

	prometheus := s.metricsManager.GetPrometheusMetrics()
	prometheus.UpdateMonitorsActive(int(stats.ActiveMonitors))
	prometheus.UpdateMonitorsInError(int(stats.MonitorsInError))
}

func (s *MonitorService) recordError(err error) {
	now := time.Now()
	errMsg := err.Error()

	s.mu.Lock()
	s.stats.ErrorCount++
	s.stats.LastError = &errMsg
	s.stats.LastErrorTime = &now
	s.mu.Unlock()
}
