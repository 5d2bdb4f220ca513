// File: internal/fetch/orchestrator.go
package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hdtickets/ticket-monitor/internal/metrics"
	"github.com/hdtickets/ticket-monitor/internal/models"
	"github.com/hdtickets/ticket-monitor/internal/platform"
	"github.com/hdtickets/ticket-monitor/pkg/utils"
)

// DefaultPlatformTimeout bounds each individual platform call so one slow
// marketplace cannot delay the others.
const DefaultPlatformTimeout = 2 * time.Second

// Result holds one platform's fetch outcome
type Result struct {
	Snapshot *models.PlatformSnapshot
	Err      error
}

// Succeeded reports whether the platform returned a usable snapshot
func (r Result) Succeeded() bool {
	return r.Err == nil && r.Snapshot != nil
}

// Orchestrator fans out one monitor's platform fetches concurrently. It does
// not touch the snapshot store; persisting the results after diffing is the
// caller's responsibility.
type Orchestrator struct {
	registry *platform.Registry
	timeout  time.Duration
	logger   *logrus.Logger

	metricsManager *metrics.Manager
}

// NewOrchestrator creates a new fetch orchestrator
func NewOrchestrator(registry *platform.Registry, timeout time.Duration, metricsManager *metrics.Manager) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultPlatformTimeout
	}
	return &Orchestrator{
		registry:       registry,
		timeout:        timeout,
		logger:         utils.GetLogger(),
		metricsManager: metricsManager,
	}
}

// FetchAll invokes every enabled platform adapter for the monitor in
// parallel, each under its own deadline. Partial failure is expected and
// valid; an error is returned only when zero platforms produced data.
func (o *Orchestrator) FetchAll(ctx context.Context, monitor *models.Monitor, event *models.Event) (map[string]Result, error) {
	results := make(map[string]Result, len(monitor.Platforms))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, name := range monitor.Platforms {
		adapter, err := o.registry.Get(name)
		if err != nil {
			mu.Lock()
			results[name] = Result{Err: err}
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(name string, adapter platform.Adapter) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, o.timeout)
			defer cancel()

			start := time.Now()
			snapshot, err := adapter.Fetch(fetchCtx, event)
			duration := time.Since(start)

			if o.metricsManager != nil {
				status := "success"
				if err != nil {
					status = "error"
				}
				o.metricsManager.GetPrometheusMetrics().RecordPlatformFetch(name, status, duration)
			}

			if err != nil {
				o.logger.Warn("Platform fetch failed",
					"monitor_id", monitor.ID, "platform", name, "error", err)
			}

			mu.Lock()
			results[name] = Result{Snapshot: snapshot, Err: err}
			mu.Unlock()
		}(name, adapter)
	}

	wg.Wait()

	succeeded := 0
	for _, result := range results {
		if result.Succeeded() {
			succeeded++
		}
	}

	if succeeded == 0 {
		return results, utils.NewAppError(utils.ErrCodeMonitorCycle,
			"No data from any platform", monitor.ID)
	}

	o.logger.Debug("Platform fan-out completed",
		"monitor_id", monitor.ID,
		"platforms", len(monitor.Platforms),
		"succeeded", succeeded)

	return results, nil
}
