package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics contains all Prometheus metrics for the ticket monitor
type PrometheusMetrics struct {
	// Monitoring cycle metrics
	MonitoringCyclesTotal *prometheus.CounterVec
	MonitorChecksTotal    *prometheus.CounterVec
	CycleDuration         prometheus.Histogram
	MonitorCheckDuration  *prometheus.HistogramVec

	// Platform fetch metrics
	PlatformFetchesTotal  *prometheus.CounterVec
	PlatformFetchDuration *prometheus.HistogramVec

	// Change detection metrics
	ChangeEventsTotal *prometheus.CounterVec

	// Alert metrics
	AlertDeliveriesTotal  *prometheus.CounterVec
	AlertsSuppressedTotal *prometheus.CounterVec
	AlertDeliveryDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Storage metrics
	DatabaseOperationsTotal   *prometheus.CounterVec
	DatabaseOperationDuration *prometheus.HistogramVec

	// API metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Application health metrics
	ApplicationUptime prometheus.Gauge
	ComponentHealth   *prometheus.GaugeVec
	MemoryUsage       prometheus.Gauge
	GoroutineCount    prometheus.Gauge

	// Monitor inventory metrics
	MonitorsActive  prometheus.Gauge
	MonitorsInError prometheus.Gauge
}

// NewPrometheusMetrics creates and registers all Prometheus metrics
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		// Monitoring cycle metrics
		MonitoringCyclesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_monitoring_cycles_total",
				Help: "Total number of monitoring cycles executed",
			},
			[]string{"status"},
		),

		MonitorChecksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_monitor_checks_total",
				Help: "Total number of individual monitor checks",
			},
			[]string{"priority", "status"},
		),

		CycleDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ticket_monitoring_cycle_duration_seconds",
				Help:    "Time spent running full monitoring cycles",
				Buckets: prometheus.DefBuckets,
			},
		),

		MonitorCheckDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ticket_monitor_check_duration_seconds",
				Help:    "Time spent checking individual monitors",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"priority"},
		),

		// Platform fetch metrics
		PlatformFetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_platform_fetches_total",
				Help: "Total number of platform fetch attempts",
			},
			[]string{"platform", "status"},
		),

		PlatformFetchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ticket_platform_fetch_duration_seconds",
				Help:    "Duration of platform fetch requests",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 1.5, 2, 3, 5},
			},
			[]string{"platform"},
		),

		// Change detection metrics
		ChangeEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_change_events_total",
				Help: "Total number of change events detected",
			},
			[]string{"platform", "type"},
		),

		// Alert metrics
		AlertDeliveriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_alert_deliveries_total",
				Help: "Total number of alert delivery attempts",
			},
			[]string{"channel", "type", "status"},
		),

		AlertsSuppressedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_alerts_suppressed_total",
				Help: "Total number of alerts suppressed by the rate guard",
			},
			[]string{"type"},
		),

		AlertDeliveryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ticket_alert_delivery_duration_seconds",
				Help:    "Duration of alert channel deliveries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"channel"},
		),

		// Cache metrics
		CacheHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache"},
		),

		CacheMissesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache"},
		),

		// Storage metrics
		DatabaseOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_database_operations_total",
				Help: "Total number of database operations",
			},
			[]string{"operation", "table", "status"},
		),

		DatabaseOperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ticket_database_operation_duration_seconds",
				Help:    "Duration of database operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),

		// API metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_http_requests_total",
				Help: "Total number of HTTP requests received",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ticket_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Application health metrics
		ApplicationUptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ticket_application_uptime_seconds",
				Help: "Application uptime in seconds",
			},
		),

		ComponentHealth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ticket_component_health",
				Help: "Health status of application components (1=healthy, 0=unhealthy)",
			},
			[]string{"component"},
		),

		MemoryUsage: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ticket_memory_usage_bytes",
				Help: "Current memory usage in bytes",
			},
		),

		GoroutineCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ticket_goroutines",
				Help: "Number of running goroutines",
			},
		),

		// Monitor inventory metrics
		MonitorsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ticket_monitors_active",
				Help: "Number of monitors currently active",
			},
		),

		MonitorsInError: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ticket_monitors_in_error",
				Help: "Number of monitors currently in the error state",
			},
		),
	}
}

// RecordMonitoringCycle records one full monitoring cycle
func (m *PrometheusMetrics) RecordMonitoringCycle(status string, duration time.Duration) {
	m.MonitoringCyclesTotal.WithLabelValues(status).Inc()
	m.CycleDuration.Observe(duration.Seconds())
}

// RecordMonitorCheck records one monitor check
func (m *PrometheusMetrics) RecordMonitorCheck(priority, status string, duration time.Duration) {
	m.MonitorChecksTotal.WithLabelValues(priority, status).Inc()
	m.MonitorCheckDuration.WithLabelValues(priority).Observe(duration.Seconds())
}

// RecordPlatformFetch records one platform fetch attempt
func (m *PrometheusMetrics) RecordPlatformFetch(platform, status string, duration time.Duration) {
	m.PlatformFetchesTotal.WithLabelValues(platform, status).Inc()
	m.PlatformFetchDuration.WithLabelValues(platform).Observe(duration.Seconds())
}

// RecordChangeEvent records a detected change event
func (m *PrometheusMetrics) RecordChangeEvent(platform, changeType string) {
	m.ChangeEventsTotal.WithLabelValues(platform, changeType).Inc()
}

// RecordAlertDelivery records one alert delivery attempt
func (m *PrometheusMetrics) RecordAlertDelivery(channel, changeType, status string) {
	m.AlertDeliveriesTotal.WithLabelValues(channel, changeType, status).Inc()
}

// RecordAlertDeliveryDuration records the time taken by one channel delivery
func (m *PrometheusMetrics) RecordAlertDeliveryDuration(channel string, duration time.Duration) {
	m.AlertDeliveryDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// RecordAlertSuppressed records an alert suppressed by the rate guard
func (m *PrometheusMetrics) RecordAlertSuppressed(changeType string) {
	m.AlertsSuppressedTotal.WithLabelValues(changeType).Inc()
}

// RecordCacheHit records a cache hit
func (m *PrometheusMetrics) RecordCacheHit(cache string) {
	m.CacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss
func (m *PrometheusMetrics) RecordCacheMiss(cache string) {
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

// RecordDatabaseOperation records a database operation
func (m *PrometheusMetrics) RecordDatabaseOperation(operation, table, status string, duration time.Duration) {
	m.DatabaseOperationsTotal.WithLabelValues(operation, table, status).Inc()
	m.DatabaseOperationDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request
func (m *PrometheusMetrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// UpdateApplicationUptime updates the application uptime metric
func (m *PrometheusMetrics) UpdateApplicationUptime(startTime time.Time) {
	m.ApplicationUptime.Set(time.Since(startTime).Seconds())
}

// UpdateComponentHealth updates the health status of a component
func (m *PrometheusMetrics) UpdateComponentHealth(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.ComponentHealth.WithLabelValues(component).Set(value)
}

// UpdateMemoryUsage updates the memory usage metric
func (m *PrometheusMetrics) UpdateMemoryUsage(bytes uint64) {
	m.MemoryUsage.Set(float64(bytes))
}

// UpdateGoroutineCount updates the goroutine count metric
func (m *PrometheusMetrics) UpdateGoroutineCount(count int) {
	m.GoroutineCount.Set(float64(count))
}

// UpdateMonitorsActive updates the number of active monitors
func (m *PrometheusMetrics) UpdateMonitorsActive(count int) {
	m.MonitorsActive.Set(float64(count))
}

// UpdateMonitorsInError updates the number of monitors in the error state
func (m *PrometheusMetrics) UpdateMonitorsInError(count int) {
	m.MonitorsInError.Set(float64(count))
}
