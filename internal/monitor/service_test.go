// File: internal/monitor/service_test.go
package monitor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdtickets/ticket-monitor/internal/cache"
	"github.com/hdtickets/ticket-monitor/internal/config"
	"github.com/hdtickets/ticket-monitor/internal/dispatch"
	"github.com/hdtickets/ticket-monitor/internal/fetch"
	"github.com/hdtickets/ticket-monitor/internal/models"
	"github.com/hdtickets/ticket-monitor/internal/platform"
	"github.com/hdtickets/ticket-monitor/internal/scheduler"
	"github.com/hdtickets/ticket-monitor/internal/storage"
	"github.com/hdtickets/ticket-monitor/pkg/utils"
)

// ticketmasterFixture serves a mutable listing payload so tests can change
// what the platform reports between cycles
type ticketmasterFixture struct {
	price    atomic.Value // float64
	tickets  atomic.Value // int
	status   atomic.Value // string
	failCode atomic.Value // int, 0 means healthy
}

func newTicketmasterFixture(price float64, tickets int) *ticketmasterFixture {
	f := &ticketmasterFixture{}
	f.price.Store(price)
	f.tickets.Store(tickets)
	f.status.Store("onsale")
	f.failCode.Store(0)
	return f
}

func (f *ticketmasterFixture) handler(w http.ResponseWriter, r *http.Request) {
	if code := f.failCode.Load().(int); code != 0 {
		w.WriteHeader(code)
		return
	}
	fmt.Fprintf(w, `{
		"_embedded": {
			"events": [
				{
					"id": "tm-1",
					"priceRanges": [{"min": %v, "max": %v, "currency": "USD"}],
					"dates": {"status": {"code": "%s"}},
					"ticketLimit": {"count": %d}
				}
			]
		}
	}`, f.price.Load(), f.price.Load().(float64)*2, f.status.Load(), f.tickets.Load())
}

type serviceFixture struct {
	service *MonitorService
	store   storage.Storage
	tm      *ticketmasterFixture
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	utils.InitLogger("error", "text", "stdout", "")

	tm := newTicketmasterFixture(100, 20)
	server := httptest.NewServer(http.HandlerFunc(tm.handler))
	t.Cleanup(server.Close)

	store, err := storage.NewStorage(&config.StorageConfig{
		Type:             "sqlite",
		ConnectionString: filepath.Join(t.TempDir(), "service.db"),
		MaxConnections:   4,
		MaxIdleTime:      time.Minute,
	})
	require.NoError(t, err)
	require.NoError(t, store.Connect())
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { store.Close() })

	registry, err := platform.NewRegistry(map[string]config.PlatformConfig{
		platform.Ticketmaster: {Enabled: true, BaseURL: server.URL},
	})
	require.NoError(t, err)

	monitoringCfg := &config.MonitoringConfig{
		MaxConcurrency:  5,
		CycleInterval:   time.Second,
		PlatformTimeout: 2 * time.Second,
		MaxBackoff:      scheduler.DefaultMaxBackoff,
	}

	orchestrator := fetch.NewOrchestrator(registry, monitoringCfg.PlatformTimeout, nil)
	sched := scheduler.NewScheduler(scheduler.NewBackoffManager(monitoringCfg.MaxBackoff))
	dispatcher := dispatch.NewDispatcher([]dispatch.Channel{dispatch.NewLogChannel()}, time.Second, nil)
	summaryCache := cache.NewSummaryCache(time.Minute, nil)
	changeFeed := cache.NewChangeFeed(50)

	service := NewMonitorService(store, registry, orchestrator, sched, dispatcher,
		summaryCache, changeFeed, monitoringCfg, nil)

	return &serviceFixture{service: service, store: store, tm: tm}
}

func (f *serviceFixture) registerEventAndMonitor(t *testing.T, ctx context.Context) *models.Monitor {
	t.Helper()

	event := &models.Event{ID: "event-1", Name: "Arena Rock Night", City: "Chicago"}
	require.NoError(t, f.service.RegisterEvent(ctx, event))

	monitor := &models.Monitor{
		EventID:            "event-1",
		UserID:             "user-1",
		Priority:           models.PriorityHigh,
		Platforms:          []string{platform.Ticketmaster},
		Channels:           []string{models.ChannelLog},
		PriceDropThreshold: decimal.NewFromInt(5),
	}
	require.NoError(t, f.service.RegisterMonitor(ctx, monitor))
	return monitor
}

func TestRegisterMonitorValidation(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	event := &models.Event{ID: "event-1", Name: "Arena Rock Night"}
	require.NoError(t, fixture.service.RegisterEvent(ctx, event))

	base := func() *models.Monitor {
		return &models.Monitor{
			EventID:   "event-1",
			UserID:    "user-1",
			Priority:  models.PriorityMedium,
			Platforms: []string{platform.Ticketmaster},
		}
	}

	t.Run("valid registration", func(t *testing.T) {
		monitor := base()
		require.NoError(t, fixture.service.RegisterMonitor(ctx, monitor))
		assert.NotEmpty(t, monitor.ID, "An id is assigned on registration")
		assert.True(t, monitor.Active)
		assert.False(t, monitor.NextRunAt.IsZero(), "The first check is due immediately")
	})

	t.Run("missing event id", func(t *testing.T) {
		monitor := base()
		monitor.EventID = ""
		assert.Error(t, fixture.service.RegisterMonitor(ctx, monitor))
	})

	t.Run("missing user id", func(t *testing.T) {
		monitor := base()
		monitor.UserID = ""
		assert.Error(t, fixture.service.RegisterMonitor(ctx, monitor))
	})

	t.Run("invalid priority", func(t *testing.T) {
		monitor := base()
		monitor.Priority = "urgent"
		assert.Error(t, fixture.service.RegisterMonitor(ctx, monitor))
	})

	t.Run("no platforms", func(t *testing.T) {
		monitor := base()
		monitor.Platforms = nil
		assert.Error(t, fixture.service.RegisterMonitor(ctx, monitor))
	})

	t.Run("platform not enabled", func(t *testing.T) {
		monitor := base()
		monitor.Platforms = []string{platform.StubHub}
		assert.Error(t, fixture.service.RegisterMonitor(ctx, monitor))
	})

	t.Run("unknown channel", func(t *testing.T) {
		monitor := base()
		monitor.Channels = []string{"pigeon"}
		assert.Error(t, fixture.service.RegisterMonitor(ctx, monitor))
	})

	t.Run("negative threshold", func(t *testing.T) {
		monitor := base()
		monitor.PriceDropThreshold = decimal.NewFromInt(-1)
		assert.Error(t, fixture.service.RegisterMonitor(ctx, monitor))
	})

	t.Run("unknown event", func(t *testing.T) {
		monitor := base()
		monitor.EventID = "no-such-event"
		assert.Error(t, fixture.service.RegisterMonitor(ctx, monitor))
	})
}

func TestMonitoringCycleDetectsChanges(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	monitor := fixture.registerEventAndMonitor(t, ctx)

	// First cycle: the listing is unseen, so it fires as new
	result, err := fixture.service.RunMonitoringCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.MonitorsChecked)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.ChangesDetected)

	changes := fixture.service.RecentChanges(0)
	require.Len(t, changes, 1)
	assert.Equal(t, models.ChangeNewListing, changes[0].Type)

	// The snapshot is now persisted for diffing
	snapshot, err := fixture.store.GetSnapshot(ctx, monitor.ID, platform.Ticketmaster)
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	require.Len(t, snapshot.Listings, 1)

	// The summary cache serves the merged view without a fetch
	summary := fixture.service.GetEventSummary("event-1")
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.TotalListings)

	// Second cycle with a price drop: monitor is rescheduled into the
	// future, so force it due again
	fixture.tm.price.Store(80.0)
	requeueMonitor(t, fixture, ctx, monitor.ID)

	result, err = fixture.service.RunMonitoringCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ChangesDetected)

	changes = fixture.service.RecentChanges(1)
	require.Len(t, changes, 1)
	assert.Equal(t, models.ChangePriceDrop, changes[0].Type)

	// Changes are archived, not just fed to the in-memory feed
	monitorID := monitor.ID
	archived, err := fixture.store.GetChangeEvents(ctx, models.ChangeEventFilter{MonitorID: &monitorID})
	require.NoError(t, err)
	assert.Len(t, archived, 2)

	// Quiet third cycle: nothing changed, nothing fires
	requeueMonitor(t, fixture, ctx, monitor.ID)
	result, err = fixture.service.RunMonitoringCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ChangesDetected)
}

// requeueMonitor forces a monitor due immediately for the next cycle
func requeueMonitor(t *testing.T, fixture *serviceFixture, ctx context.Context, id string) {
	t.Helper()
	monitor, err := fixture.store.GetMonitor(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, monitor)
	monitor.NextRunAt = time.Now().Add(-time.Second)
	require.NoError(t, fixture.store.UpdateMonitor(ctx, monitor))
}

func TestMonitoringCycleSkipsIdleMonitors(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	monitor := fixture.registerEventAndMonitor(t, ctx)

	_, err := fixture.service.RunMonitoringCycle(ctx)
	require.NoError(t, err)

	// Immediately after a successful check the monitor is not due
	result, err := fixture.service.RunMonitoringCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.MonitorsChecked)

	got, err := fixture.store.GetMonitor(ctx, monitor.ID)
	require.NoError(t, err)
	assert.True(t, got.NextRunAt.After(time.Now().Add(-time.Second)),
		"A high priority monitor reschedules one interval out")
}

func TestMonitoringCycleFailureFeedsBackoff(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	monitor := fixture.registerEventAndMonitor(t, ctx)

	// The only platform going dark means zero usable snapshots, which
	// fails the check and feeds the backoff path end to end
	fixture.tm.failCode.Store(http.StatusBadGateway)

	result, err := fixture.service.RunMonitoringCycle(ctx)
	require.NoError(t, err, "A failing monitor never fails the cycle")
	assert.Equal(t, 1, result.Failed)

	got, err := fixture.store.GetMonitor(ctx, monitor.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ConsecutiveErrors)
	assert.Equal(t, models.HealthDegraded, got.Health())
	require.NotNil(t, got.LastError)
	assert.True(t, got.NextRunAt.After(time.Now().Add(time.Second)),
		"The backoff delay pushes the next run out")
}

func TestServiceLifecycle(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.False(t, fixture.service.IsRunning())

	require.NoError(t, fixture.service.Start(ctx))
	assert.True(t, fixture.service.IsRunning())

	err := fixture.service.Start(ctx)
	assert.Error(t, err, "Starting a running service should error")

	stats := fixture.service.GetStats()
	assert.True(t, stats.IsRunning)

	health := fixture.service.GetHealth()
	assert.True(t, health.Healthy, "issues: %v", health.Issues)
	assert.True(t, health.StorageHealthy)

	require.NoError(t, fixture.service.Stop())
	assert.False(t, fixture.service.IsRunning())

	assert.NoError(t, fixture.service.Stop(), "Stopping a stopped service is a no-op")

	health = fixture.service.GetHealth()
	assert.False(t, health.Healthy, "A stopped loop reads as unhealthy")
}

func TestDeactivateMonitor(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	monitor := fixture.registerEventAndMonitor(t, ctx)

	require.NoError(t, fixture.service.DeactivateMonitor(ctx, monitor.ID))

	got, err := fixture.service.GetMonitor(ctx, monitor.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	result, err := fixture.service.RunMonitoringCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.MonitorsChecked, "Deactivated monitors are never selected")

	assert.Error(t, fixture.service.DeactivateMonitor(ctx, "no-such-monitor"))
}
