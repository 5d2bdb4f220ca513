// File: internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/hdtickets/ticket-monitor/internal/config"
	"github.com/hdtickets/ticket-monitor/internal/metrics"
	"github.com/hdtickets/ticket-monitor/internal/models"
	"github.com/hdtickets/ticket-monitor/internal/monitor"
	"github.com/hdtickets/ticket-monitor/internal/storage"
	"github.com/hdtickets/ticket-monitor/pkg/utils"
)

// HTTPServer exposes the monitoring API
type HTTPServer struct {
	config         *config.ServerConfig
	server         *http.Server
	router         *mux.Router
	storage        storage.Storage
	service        monitor.Service
	metricsManager *metrics.Manager
	logger         *logrus.Logger
}

// NewHTTPServer creates a new HTTP server
func NewHTTPServer(
	cfg *config.ServerConfig,
	store storage.Storage,
	service monitor.Service,
	metricsManager *metrics.Manager,
) (*HTTPServer, error) {

	server := &HTTPServer{
		config:         cfg,
		storage:        store,
		service:        service,
		metricsManager: metricsManager,
		logger:         utils.GetLogger(),
	}

	// Setup router
	server.setupRouter()

	// Create HTTP server
	server.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      server.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server, nil
}

// setupRouter sets up the HTTP routes
func (s *HTTPServer) setupRouter() {
	s.router = mux.NewRouter()

	// Middleware
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)
	if s.metricsManager != nil {
		s.router.Use(s.metricsMiddleware)
	}

	// API routes
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Health check endpoint
	if s.config.EnableHealth {
		api.HandleFunc("/health", s.healthHandler).Methods("GET")
		api.HandleFunc("/health/detailed", s.detailedHealthHandler).Methods("GET")
	}

	// Metrics endpoint
	if s.config.EnableMetrics {
		s.router.Handle("/metrics", promhttp.Handler())
		api.HandleFunc("/stats", s.statsHandler).Methods("GET")
	}

	// Event endpoints
	api.HandleFunc("/events", s.addEventHandler).Methods("POST")
	api.HandleFunc("/events/{id}", s.getEventHandler).Methods("GET")
	api.HandleFunc("/events/{id}/summary", s.eventSummaryHandler).Methods("GET")

	// Monitor endpoints
	api.HandleFunc("/monitors", s.listMonitorsHandler).Methods("GET")
	api.HandleFunc("/monitors", s.registerMonitorHandler).Methods("POST")
	api.HandleFunc("/monitors/{id}", s.getMonitorHandler).Methods("GET")
	api.HandleFunc("/monitors/{id}", s.deactivateMonitorHandler).Methods("DELETE")

	// Change feed endpoints
	api.HandleFunc("/changes", s.recentChangesHandler).Methods("GET")
	api.HandleFunc("/changes/history", s.changeHistoryHandler).Methods("GET")
}

// Start starts the HTTP server
func (s *HTTPServer) Start() error {
	s.logger.Info("Starting HTTP server",
		"address", s.server.Addr,
		"metrics_enabled", s.config.EnableMetrics)

	// Immediately update system and component metrics so they appear on first scrape
	if s.metricsManager != nil {
		s.metricsManager.UpdateSystemMetrics()
		s.updateComponentHealth()
		go s.systemMetricsUpdater()
	}

	// Create a channel to receive startup errors
	errChan := make(chan error, 1)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
			errChan <- err
		}
	}()

	// Give the server a moment to start and check for immediate binding errors
	select {
	case err := <-errChan:
		return fmt.Errorf("failed to start HTTP server: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// systemMetricsUpdater updates system metrics periodically
func (s *HTTPServer) systemMetricsUpdater() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.metricsManager.UpdateSystemMetrics()
		s.updateComponentHealth()
	}
}

func (s *HTTPServer) updateComponentHealth() {
	prometheus := s.metricsManager.GetPrometheusMetrics()
	prometheus.UpdateComponentHealth("storage", s.storage.Ping() == nil)
	if s.service != nil {
		prometheus.UpdateComponentHealth("monitor", s.service.GetHealth().Healthy)
	}
}

// Stop stops the HTTP server
func (s *HTTPServer) Stop() error {
	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// Middleware

// loggingMiddleware logs HTTP requests
func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
			"remote_ip", r.RemoteAddr)
	})
}

// corsMiddleware handles CORS
func (s *HTTPServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Health Handlers

// healthHandler returns basic health status
func (s *HTTPServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":          "healthy",
		"timestamp":       time.Now().UTC().Format(time.RFC3339Nano),
		"metrics_enabled": s.config.EnableMetrics,
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// detailedHealthHandler returns detailed health status
func (s *HTTPServer) detailedHealthHandler(w http.ResponseWriter, r *http.Request) {
	serviceHealth := s.service.GetHealth()

	status := "healthy"
	code := http.StatusOK
	if !serviceHealth.Healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	health := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now(),
		"components": map[string]interface{}{
			"storage": serviceHealth.StorageHealthy,
			"monitor": serviceHealth,
		},
	}

	s.writeJSON(w, code, health)
}

// statsHandler returns application statistics
func (s *HTTPServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	storageStats, err := s.storage.GetStorageStats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to retrieve storage stats", err)
		return
	}

	stats := map[string]interface{}{
		"timestamp": time.Now(),
		"storage":   storageStats,
		"monitor":   s.service.GetStats(),
	}

	s.writeJSON(w, http.StatusOK, stats)
}

// Event Handlers

// addEventHandler registers a tracked event
func (s *HTTPServer) addEventHandler(w http.ResponseWriter, r *http.Request) {
	var event models.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := s.service.RegisterEvent(r.Context(), &event); err != nil {
		s.writeAppError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, event)
}

// getEventHandler gets a tracked event by id
func (s *HTTPServer) getEventHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	event, err := s.service.GetEvent(r.Context(), vars["id"])
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to retrieve event", err)
		return
	}
	if event == nil {
		s.writeError(w, http.StatusNotFound, "Event not found", nil)
		return
	}

	s.writeJSON(w, http.StatusOK, event)
}

// eventSummaryHandler returns the cached cross-platform summary. Reads never
// trigger a fetch; an expired or absent summary yields 204 No Content.
func (s *HTTPServer) eventSummaryHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	summary := s.service.GetEventSummary(vars["id"])
	if summary == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}

// Monitor Handlers

// listMonitorsHandler lists monitors
func (s *HTTPServer) listMonitorsHandler(w http.ResponseWriter, r *http.Request) {
	filter := models.MonitorFilter{
		Limit:  parseIntParam(r, "limit", 50),
		Offset: parseIntParam(r, "offset", 0),
	}

	if userID := r.URL.Query().Get("user_id"); userID != "" {
		filter.UserID = &userID
	}
	if eventID := r.URL.Query().Get("event_id"); eventID != "" {
		filter.EventID = &eventID
	}
	if activeStr := r.URL.Query().Get("active"); activeStr != "" {
		active := activeStr == "true"
		filter.Active = &active
	}

	monitors, err := s.service.GetMonitors(r.Context(), filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to retrieve monitors", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"monitors": monitors,
		"total":    len(monitors),
	})
}

// registerMonitorHandler registers a new monitor
func (s *HTTPServer) registerMonitorHandler(w http.ResponseWriter, r *http.Request) {
	var m models.Monitor
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := s.service.RegisterMonitor(r.Context(), &m); err != nil {
		s.writeAppError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, m)
}

// getMonitorHandler gets a monitor by id
func (s *HTTPServer) getMonitorHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	m, err := s.service.GetMonitor(r.Context(), vars["id"])
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to retrieve monitor", err)
		return
	}
	if m == nil {
		s.writeError(w, http.StatusNotFound, "Monitor not found", nil)
		return
	}

	s.writeJSON(w, http.StatusOK, m)
}

// deactivateMonitorHandler deactivates a monitor
func (s *HTTPServer) deactivateMonitorHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := s.service.DeactivateMonitor(r.Context(), vars["id"]); err != nil {
		s.writeAppError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Monitor deactivated",
		"id":      vars["id"],
	})
}

// Change Handlers

// recentChangesHandler returns the in-memory change feed, newest first
func (s *HTTPServer) recentChangesHandler(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 50)

	changes := s.service.RecentChanges(limit)

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"changes": changes,
		"total":   len(changes),
	})
}

// changeHistoryHandler queries the archived change events
func (s *HTTPServer) changeHistoryHandler(w http.ResponseWriter, r *http.Request) {
	filter := models.ChangeEventFilter{
		Limit:  parseIntParam(r, "limit", 50),
		Offset: parseIntParam(r, "offset", 0),
	}

	if monitorID := r.URL.Query().Get("monitor_id"); monitorID != "" {
		filter.MonitorID = &monitorID
	}
	if platformName := r.URL.Query().Get("platform"); platformName != "" {
		filter.Platform = &platformName
	}
	if changeType := r.URL.Query().Get("type"); changeType != "" {
		ct := models.ChangeType(changeType)
		filter.Type = &ct
	}

	changes, err := s.storage.GetChangeEvents(r.Context(), filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to retrieve change history", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"changes": changes,
		"total":   len(changes),
	})
}

// Helpers

func parseIntParam(r *http.Request, name string, fallback int) int {
	value := r.URL.Query().Get(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// writeJSON writes a JSON response
func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

// writeError writes a JSON error response
func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":     message,
		"timestamp": time.Now(),
	}
	if err != nil {
		response["details"] = err.Error()
	}

	s.writeJSON(w, status, response)
}

// writeAppError maps application error codes to HTTP statuses
func (s *HTTPServer) writeAppError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	if appErr, ok := err.(*utils.AppError); ok {
		switch appErr.Code {
		case utils.ErrCodeValidation, utils.ErrCodeConfiguration:
			status = http.StatusBadRequest
		case utils.ErrCodeNotFound:
			status = http.StatusNotFound
		}
	}

	s.writeError(w, status, "Request failed", err)
}
