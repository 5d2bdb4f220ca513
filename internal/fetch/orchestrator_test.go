// File: internal/fetch/orchestrator_test.go
package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdtickets/ticket-monitor/internal/config"
	"github.com/hdtickets/ticket-monitor/internal/models"
	"github.com/hdtickets/ticket-monitor/internal/platform"
)

const ticketmasterBody = `{
	"_embedded": {
		"events": [
			{
				"id": "tm-1",
				"priceRanges": [{"min": 50, "max": 100, "currency": "USD"}],
				"dates": {"status": {"code": "onsale"}},
				"ticketLimit": {"count": 10}
			}
		]
	}
}`

const seatgeekBody = `{
	"events": [
		{"id": 9, "stats": {"lowest_price": 42, "highest_price": 80, "listing_count": 4}}
	]
}`

func fixtureServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func buildRegistry(t *testing.T, platforms map[string]config.PlatformConfig) *platform.Registry {
	t.Helper()
	registry, err := platform.NewRegistry(platforms)
	require.NoError(t, err)
	return registry
}

func fetchMonitor(platforms ...string) *models.Monitor {
	return &models.Monitor{
		ID:        "monitor-1",
		EventID:   "event-1",
		Platforms: platforms,
	}
}

func TestFetchAllSucceeds(t *testing.T) {
	tm := fixtureServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ticketmasterBody))
	})
	sg := fixtureServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(seatgeekBody))
	})

	registry := buildRegistry(t, map[string]config.PlatformConfig{
		platform.Ticketmaster: {Enabled: true, BaseURL: tm.URL},
		platform.SeatGeek:     {Enabled: true, BaseURL: sg.URL},
	})

	orchestrator := NewOrchestrator(registry, 2*time.Second, nil)

	results, err := orchestrator.FetchAll(context.Background(),
		fetchMonitor(platform.Ticketmaster, platform.SeatGeek), &models.Event{ID: "event-1", Name: "Show"})

	require.NoError(t, err)
	require.Len(t, results, 2)

	for name, result := range results {
		assert.True(t, result.Succeeded(), "platform %s", name)
		require.NotNil(t, result.Snapshot)
		assert.Equal(t, name, result.Snapshot.Platform)
		assert.Len(t, result.Snapshot.Listings, 1)
	}
}

func TestFetchAllPartialFailureIsNotAnError(t *testing.T) {
	tm := fixtureServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ticketmasterBody))
	})
	sg := fixtureServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	registry := buildRegistry(t, map[string]config.PlatformConfig{
		platform.Ticketmaster: {Enabled: true, BaseURL: tm.URL},
		platform.SeatGeek:     {Enabled: true, BaseURL: sg.URL},
	})

	orchestrator := NewOrchestrator(registry, 2*time.Second, nil)

	results, err := orchestrator.FetchAll(context.Background(),
		fetchMonitor(platform.Ticketmaster, platform.SeatGeek), &models.Event{ID: "event-1", Name: "Show"})

	require.NoError(t, err, "One healthy platform keeps the check alive")
	assert.True(t, results[platform.Ticketmaster].Succeeded())
	assert.False(t, results[platform.SeatGeek].Succeeded())
	assert.Error(t, results[platform.SeatGeek].Err)
}

func TestFetchAllZeroSuccessFails(t *testing.T) {
	down := fixtureServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	registry := buildRegistry(t, map[string]config.PlatformConfig{
		platform.Ticketmaster: {Enabled: true, BaseURL: down.URL},
		platform.SeatGeek:     {Enabled: true, BaseURL: down.URL},
	})

	orchestrator := NewOrchestrator(registry, 2*time.Second, nil)

	results, err := orchestrator.FetchAll(context.Background(),
		fetchMonitor(platform.Ticketmaster, platform.SeatGeek), &models.Event{ID: "event-1", Name: "Show"})

	require.Error(t, err, "Zero usable snapshots fail the whole check")
	assert.Len(t, results, 2, "Per-platform outcomes are still reported")
}

func TestFetchAllSlowPlatformIsIsolated(t *testing.T) {
	fast := fixtureServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ticketmasterBody))
	})
	slow := fixtureServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(seatgeekBody))
	})

	registry := buildRegistry(t, map[string]config.PlatformConfig{
		platform.Ticketmaster: {Enabled: true, BaseURL: fast.URL},
		platform.SeatGeek:     {Enabled: true, BaseURL: slow.URL},
	})

	orchestrator := NewOrchestrator(registry, 100*time.Millisecond, nil)

	start := time.Now()
	results, err := orchestrator.FetchAll(context.Background(),
		fetchMonitor(platform.Ticketmaster, platform.SeatGeek), &models.Event{ID: "event-1", Name: "Show"})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, results[platform.Ticketmaster].Succeeded())
	assert.False(t, results[platform.SeatGeek].Succeeded(), "The slow platform times out on its own deadline")
	assert.Less(t, elapsed, 450*time.Millisecond, "The deadline bounds the fan-out, not the slow response")
}

func TestFetchAllUnknownPlatform(t *testing.T) {
	tm := fixtureServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ticketmasterBody))
	})

	registry := buildRegistry(t, map[string]config.PlatformConfig{
		platform.Ticketmaster: {Enabled: true, BaseURL: tm.URL},
	})

	orchestrator := NewOrchestrator(registry, 2*time.Second, nil)

	results, err := orchestrator.FetchAll(context.Background(),
		fetchMonitor(platform.Ticketmaster, platform.StubHub), &models.Event{ID: "event-1", Name: "Show"})

	require.NoError(t, err)
	assert.True(t, results[platform.Ticketmaster].Succeeded())
	assert.False(t, results[platform.StubHub].Succeeded())
	assert.Error(t, results[platform.StubHub].Err, "A platform missing from the registry fails its own slot only")
}
