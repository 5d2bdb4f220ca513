// File: internal/platform/stubhub.go
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/hdtickets/ticket-monitor/internal/config"
	"github.com/hdtickets/ticket-monitor/internal/models"
	"github.com/hdtickets/ticket-monitor/pkg/utils"
)

// StubHubAdapter fetches listings from the StubHub catalog API
type StubHubAdapter struct {
	config config.PlatformConfig
	client *http.Client
	logger *logrus.Logger
}

// NewStubHubAdapter creates a new StubHub adapter
func NewStubHubAdapter(cfg config.PlatformConfig, client *http.Client) *StubHubAdapter {
	return &StubHubAdapter{
		config: cfg,
		client: client,
		logger: utils.GetLogger(),
	}
}

// Name returns the platform identifier
func (a *StubHubAdapter) Name() string {
	return StubHub
}

type stubhubResponse struct {
	Events []struct {
		ID         json.Number `json:"id"`
		Name       string      `json:"name"`
		TicketInfo struct {
			MinPrice      *float64 `json:"minPrice"`
			MaxPrice      *float64 `json:"maxPrice"`
			CurrencyCode  string   `json:"currencyCode"`
			TotalTickets  int      `json:"totalTickets"`
			TotalListings int      `json:"totalListings"`
		} `json:"ticketInfo"`
	} `json:"events"`
}

// Fetch retrieves and normalizes current StubHub listings for an event
func (a *StubHubAdapter) Fetch(ctx context.Context, event *models.Event) (*models.PlatformSnapshot, error) {
	endpoint := fmt.Sprintf("%s/catalog/events/v3?name=%s",
		a.config.BaseURL, url.QueryEscape(event.Name))

	headers := map[string]string{}
	for key, value := range a.config.Headers {
		headers[key] = value
	}
	if a.config.APIKey != "" {
		headers["Authorization"] = "Bearer " + a.config.APIKey
	}

	body, err := doGet(ctx, a.client, endpoint, headers)
	if err != nil {
		return nil, wrapFetchError(StubHub, err)
	}

	var response stubhubResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, NewFetchError(StubHub, ReasonParse, err)
	}

	snapshot := &models.PlatformSnapshot{
		Platform:   StubHub,
		Listings:   make([]models.Listing, 0, len(response.Events)),
		CapturedAt: time.Now(),
		Quality:    models.QualityFull,
	}

	for _, item := range response.Events {
		info := item.TicketInfo
		listing := models.Listing{
			ExternalID:   item.ID.String(),
			Currency:     "USD",
			Available:    info.TotalTickets > 0,
			TotalTickets: info.TotalTickets,
		}

		if info.MinPrice != nil {
			listing.PriceMin = decimal.NewFromFloat(*info.MinPrice)
		} else {
			snapshot.Quality = models.QualityPartial
		}
		if info.MaxPrice != nil {
			listing.PriceMax = decimal.NewFromFloat(*info.MaxPrice)
		}
		if info.CurrencyCode != "" {
			listing.Currency = info.CurrencyCode
		}

		snapshot.Listings = append(snapshot.Listings, listing)
	}

	a.logger.Debug("StubHub fetch completed",
		"event_id", event.ID, "listings", len(snapshot.Listings))

	return snapshot, nil
}
