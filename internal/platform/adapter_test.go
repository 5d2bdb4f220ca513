// File: internal/platform/adapter_test.go
package platform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdtickets/ticket-monitor/internal/config"
	"github.com/hdtickets/ticket-monitor/internal/models"
)

func testEvent() *models.Event {
	return &models.Event{
		ID:   "event-1",
		Name: "Arena Rock Night",
		City: "Chicago",
	}
}

func adapterConfig(baseURL string) config.PlatformConfig {
	return config.PlatformConfig{
		Enabled: true,
		BaseURL: baseURL,
		APIKey:  "test-key",
	}
}

func TestTicketmasterFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		assert.Equal(t, "Arena Rock Night", r.URL.Query().Get("keyword"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"_embedded": {
				"events": [
					{
						"id": "tm-1",
						"name": "Arena Rock Night",
						"priceRanges": [{"min": 59.5, "max": 210, "currency": "USD"}],
						"dates": {"status": {"code": "onsale"}},
						"ticketLimit": {"count": 8}
					},
					{
						"id": "tm-2",
						"name": "Arena Rock Night - Resale",
						"priceRanges": [{"min": 80, "max": 120, "currency": "USD"}],
						"dates": {"status": {"code": "offsale"}},
						"ticketLimit": {"count": 0}
					}
				]
			}
		}`))
	}))
	defer server.Close()

	adapter := NewTicketmasterAdapter(adapterConfig(server.URL), server.Client())

	snapshot, err := adapter.Fetch(context.Background(), testEvent())
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	assert.Equal(t, Ticketmaster, snapshot.Platform)
	assert.Equal(t, models.QualityFull, snapshot.Quality)
	require.Len(t, snapshot.Listings, 2)

	first := snapshot.Listings[0]
	assert.Equal(t, "tm-1", first.ExternalID)
	assert.Equal(t, "59.5", first.PriceMin.String())
	assert.Equal(t, "210", first.PriceMax.String())
	assert.True(t, first.Available)
	assert.Equal(t, 8, first.TotalTickets)

	assert.False(t, snapshot.Listings[1].Available, "Offsale status maps to unavailable")
}

func TestTicketmasterFetchPartialQuality(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"_embedded": {"events": [{"id": "tm-1", "dates": {"status": {"code": "onsale"}}}]}}`))
	}))
	defer server.Close()

	adapter := NewTicketmasterAdapter(adapterConfig(server.URL), server.Client())

	snapshot, err := adapter.Fetch(context.Background(), testEvent())
	require.NoError(t, err)
	assert.Equal(t, models.QualityPartial, snapshot.Quality, "Missing price ranges degrade the snapshot quality")
}

func TestStubHubFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Write([]byte(`{
			"events": [
				{
					"id": 12345,
					"name": "Arena Rock Night",
					"ticketInfo": {
						"minPrice": 45.25,
						"maxPrice": 150,
						"currencyCode": "USD",
						"totalTickets": 3,
						"totalListings": 2
					}
				}
			]
		}`))
	}))
	defer server.Close()

	adapter := NewStubHubAdapter(adapterConfig(server.URL), server.Client())

	snapshot, err := adapter.Fetch(context.Background(), testEvent())
	require.NoError(t, err)
	require.Len(t, snapshot.Listings, 1)

	listing := snapshot.Listings[0]
	assert.Equal(t, "12345", listing.ExternalID)
	assert.Equal(t, "45.25", listing.PriceMin.String())
	assert.True(t, listing.Available)
	assert.Equal(t, 3, listing.TotalTickets)
}

func TestSeatGeekFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("client_id"))

		w.Write([]byte(`{
			"events": [
				{
					"id": 777,
					"title": "Arena Rock Night",
					"stats": {
						"lowest_price": 39,
						"highest_price": 95,
						"average_price": 60.5,
						"listing_count": 12
					}
				},
				{
					"id": 778,
					"title": "Arena Rock Night - Late Show",
					"stats": {"listing_count": 0}
				}
			]
		}`))
	}))
	defer server.Close()

	adapter := NewSeatGeekAdapter(adapterConfig(server.URL), server.Client())

	snapshot, err := adapter.Fetch(context.Background(), testEvent())
	require.NoError(t, err)
	require.Len(t, snapshot.Listings, 2)

	assert.Equal(t, "777", snapshot.Listings[0].ExternalID)
	assert.Equal(t, "39", snapshot.Listings[0].PriceMin.String())
	assert.True(t, snapshot.Listings[0].Available)

	assert.False(t, snapshot.Listings[1].Available)
	assert.Equal(t, models.QualityPartial, snapshot.Quality, "An unpriced event marks the snapshot partial")
}

func TestFetchErrorClassification(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		adapter := NewSeatGeekAdapter(adapterConfig(server.URL), server.Client())
		_, err := adapter.Fetch(context.Background(), testEvent())

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, ReasonStatus, fetchErr.Reason)
		assert.Equal(t, SeatGeek, fetchErr.Platform)
	})

	t.Run("parse", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>not json</html>"))
		}))
		defer server.Close()

		adapter := NewTicketmasterAdapter(adapterConfig(server.URL), server.Client())
		_, err := adapter.Fetch(context.Background(), testEvent())

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, ReasonParse, fetchErr.Reason)
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		adapter := NewStubHubAdapter(adapterConfig(server.URL), server.Client())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := adapter.Fetch(ctx, testEvent())

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, ReasonTimeout, fetchErr.Reason)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})

	t.Run("network", func(t *testing.T) {
		adapter := NewSeatGeekAdapter(adapterConfig("http://127.0.0.1:1"), http.DefaultClient)
		_, err := adapter.Fetch(context.Background(), testEvent())

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, ReasonNetwork, fetchErr.Reason)
	})
}

func TestNewRegistry(t *testing.T) {
	registry, err := NewRegistry(map[string]config.PlatformConfig{
		Ticketmaster: {Enabled: true, BaseURL: "https://tm.example.com"},
		StubHub:      {Enabled: false, BaseURL: "https://sh.example.com"},
		SeatGeek:     {Enabled: true, BaseURL: "https://sg.example.com"},
	})
	require.NoError(t, err)

	assert.True(t, registry.Has(Ticketmaster))
	assert.True(t, registry.Has(SeatGeek))
	assert.False(t, registry.Has(StubHub), "Disabled platforms are not registered")
	assert.Equal(t, []string{SeatGeek, Ticketmaster}, registry.Enabled())

	adapter, err := registry.Get(Ticketmaster)
	require.NoError(t, err)
	assert.Equal(t, Ticketmaster, adapter.Name())

	_, err = registry.Get(StubHub)
	assert.Error(t, err)
}

func TestNewRegistryRejectsUnknownPlatform(t *testing.T) {
	_, err := NewRegistry(map[string]config.PlatformConfig{
		"craigslist": {Enabled: true},
	})
	assert.Error(t, err)
}

func TestNewRegistryRequiresAtLeastOnePlatform(t *testing.T) {
	_, err := NewRegistry(map[string]config.PlatformConfig{
		Ticketmaster: {Enabled: false},
	})
	assert.Error(t, err)
}
