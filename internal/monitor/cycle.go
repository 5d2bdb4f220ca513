// File: internal/monitor/cycle.go
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/hdtickets/ticket-monitor/internal/detector"
	"github.com/hdtickets/ticket-monitor/internal/models"
	"github.com/hdtickets/ticket-monitor/internal/scheduler"
)

// CycleResult summarizes one monitoring cycle
type CycleResult struct {
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration"`
	MonitorsChecked int           `json:"monitors_checked"`
	Succeeded       int           `json:"succeeded"`
	Failed          int           `json:"failed"`
	ChangesDetected int           `json:"changes_detected"`
	AlertsDelivered int           `json:"alerts_delivered"`
	AlertsFailed    int           `json:"alerts_failed"`
}

// CheckResult summarizes one monitor's check within a cycle
type CheckResult struct {
	MonitorID       string        `json:"monitor_id"`
	Success         bool          `json:"success"`
	Duration        time.Duration `json:"duration"`
	PlatformsOK     int           `json:"platforms_ok"`
	PlatformsFailed int           `json:"platforms_failed"`
	ChangesDetected int           `json:"changes_detected"`
	AlertsDelivered int           `json:"alerts_delivered"`
	AlertsFailed    int           `json:"alerts_failed"`
	Error           string        `json:"error,omitempty"`
}

// RunMonitoringCycle selects the due monitors, checks them concurrently, and
// reschedules each one. Individual monitor failures never fail the cycle.
func (s *MonitorService) RunMonitoringCycle(ctx context.Context) (*CycleResult, error) {
	cycleStart := time.Now()

	due, err := s.storage.GetDueMonitors(ctx, cycleStart, 0)
	if err != nil {
		if s.metricsManager != nil {
			s.metricsManager.GetPrometheusMetrics().RecordMonitoringCycle("error", time.Since(cycleStart))
		}
		return nil, err
	}

	selected := s.scheduler.SelectDue(due, cycleStart, s.config.MaxConcurrency)

	result := &CycleResult{StartedAt: cycleStart}

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, m := range selected {
		wg.Add(1)
		go func(m *models.Monitor) {
			defer wg.Done()

			check := s.checkMonitor(ctx, m)

			mu.Lock()
			result.MonitorsChecked++
			if check.Success {
				result.Succeeded++
			} else {
				result.Failed++
			}
			result.ChangesDetected += check.ChangesDetected
			result.AlertsDelivered += check.AlertsDelivered
			result.AlertsFailed += check.AlertsFailed
			mu.Unlock()
		}(m)
	}

	wg.Wait()

	result.Duration = time.Since(cycleStart)
	now := time.Now()

	s.mu.Lock()
	s.stats.TotalCycles++
	s.stats.TotalChecks += uint64(result.MonitorsChecked)
	s.stats.SuccessfulChecks += uint64(result.Succeeded)
	s.stats.FailedChecks += uint64(result.Failed)
	s.stats.TotalChangesDetected += uint64(result.ChangesDetected)
	s.stats.TotalAlertsDelivered += uint64(result.AlertsDelivered)
	s.stats.LastCycleAt = &now
	s.stats.LastCycleDuration = result.Duration
	s.mu.Unlock()

	if s.metricsManager != nil {
		s.metricsManager.GetPrometheusMetrics().RecordMonitoringCycle("success", result.Duration)
	}

	if result.MonitorsChecked > 0 {
		s.logger.Debug("Monitoring cycle completed",
			"checked", result.MonitorsChecked,
			"succeeded", result.Succeeded,
			"failed", result.Failed,
			"changes", result.ChangesDetected,
			"duration", result.Duration)
	}

	return result, nil
}

// checkMonitor runs one monitor's full check: fetch all platforms, diff
// against the prior snapshots, dispatch alerts, persist state, reschedule.
func (s *MonitorService) checkMonitor(ctx context.Context, monitor *models.Monitor) *CheckResult {
	start := time.Now()

	// Serialize checks of the same monitor so the snapshot diff-then-write
	// never races an overlapping cycle
	lock := s.lockFor(monitor.ID)
	lock.Lock()
	defer lock.Unlock()

	result := &CheckResult{MonitorID: monitor.ID}

	event, err := s.storage.GetEvent(ctx, monitor.EventID)
	if err == nil && event == nil {
		err = &missingEventError{eventID: monitor.EventID}
	}
	if err != nil {
		result.Error = err.Error()
		s.finishCheck(ctx, monitor, result, start)
		return result
	}

	previous, err := s.storage.GetSnapshots(ctx, monitor.ID)
	if err != nil {
		// A lost baseline degrades to first-sight semantics, not failure
		s.logger.Warn("Failed to load prior snapshots",
			"monitor_id", monitor.ID, "error", err)
		previous = make(map[string]*models.PlatformSnapshot)
	}

	fetchResults, fetchErr := s.orchestrator.FetchAll(ctx, monitor, event)

	now := time.Now()
	current := make(map[string]*models.PlatformSnapshot, len(previous))
	for name, snapshot := range previous {
		current[name] = snapshot
	}

	var allChanges []*models.ChangeEvent
	var allAttempts []*models.AlertDeliveryAttempt

	for name, fetchResult := range fetchResults {
		if !fetchResult.Succeeded() {
			result.PlatformsFailed++
			continue
		}
		result.PlatformsOK++

		changes := detector.Detect(monitor, name, previous[name], fetchResult.Snapshot, now)
		for _, change := range changes {
			if s.metricsManager != nil {
				s.metricsManager.GetPrometheusMetrics().RecordChangeEvent(name, string(change.Type))
			}

			attempts := s.dispatcher.Dispatch(ctx, change, monitor)
			for _, attempt := range attempts {
				if attempt.Success {
					result.AlertsDelivered++
				} else {
					result.AlertsFailed++
				}
			}
			allAttempts = append(allAttempts, attempts...)
		}
		allChanges = append(allChanges, changes...)

		if err := s.storage.SaveSnapshot(ctx, monitor.ID, fetchResult.Snapshot); err != nil {
			s.logger.Error("Failed to save snapshot",
				"monitor_id", monitor.ID, "platform", name, "error", err)
		}
		current[name] = fetchResult.Snapshot
	}

	result.ChangesDetected = len(allChanges)

	if err := s.storage.SaveChangeEvents(ctx, allChanges); err != nil {
		s.logger.Error("Failed to archive change events",
			"monitor_id", monitor.ID, "error", err)
	}
	if err := s.storage.SaveAlertAttempts(ctx, allAttempts); err != nil {
		s.logger.Error("Failed to record alert attempts",
			"monitor_id", monitor.ID, "error", err)
	}

	s.changeFeed.Add(allChanges...)

	// Refresh the real-time summary from the merged snapshot view: new data
	// where the fetch succeeded, the prior snapshot where it failed
	if len(current) > 0 {
		summary := models.BuildEventSummary(monitor.EventID, current, now)
		s.summaryCache.Put(monitor.EventID, summary)
	}

	if fetchErr != nil {
		result.Error = fetchErr.Error()
	} else {
		result.Success = true
	}

	s.finishCheck(ctx, monitor, result, start)
	return result
}

// finishCheck reschedules the monitor from its check outcome and persists it
func (s *MonitorService) finishCheck(ctx context.Context, monitor *models.Monitor, result *CheckResult, start time.Time) {
	result.Duration = time.Since(start)

	s.scheduler.ScheduleNext(monitor, scheduler.Outcome{
		Success:  result.Success,
		Duration: result.Duration,
		Error:    result.Error,
	}, time.Now())

	if err := s.storage.UpdateMonitor(ctx, monitor); err != nil {
		s.logger.Error("Failed to persist monitor state",
			"monitor_id", monitor.ID, "error", err)
	}

	if s.metricsManager != nil {
		status := "success"
		if !result.Success {
			status = "error"
		}
		s.metricsManager.GetPrometheusMetrics().RecordMonitorCheck(
			string(monitor.Priority), status, result.Duration)
	}
}

// missingEventError marks a monitor whose tracked event disappeared
type missingEventError struct {
	eventID string
}

func (e *missingEventError) Error() string {
	return "event not found: " + e.eventID
}
