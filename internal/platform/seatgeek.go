// File: internal/platform/seatgeek.go
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

// SeatGeekAdapter fetches listings from the SeatGeek events API
type SeatGeekAdapter struct {
	config config.PlatformConfig
	client *http.Client
	logger *logrus.Logger
}

// NewSeatGeekAdapter creates a new SeatGeek adapter
func NewSeatGeekAdapter(cfg config.PlatformConfig, client *http.Client) *SeatGeekAdapter {
	return &SeatGeekAdapter{
		config: cfg,
		client: client,
		logger: utils.GetLogger(),
	}
}

// Name returns the platform identifier
func (a *SeatGeekAdapter) Name() string {
	return SeatGeek
}

type seatgeekResponse struct {
	Events []struct {
		ID    json.Number `json:"id"`
		Title string      `json:"title"`
		Stats struct {
			LowestPrice  *float64 `json:"lowest_price"`
			HighestPrice *float64 `json:"highest_price"`
			AveragePrice *float64 `json:"average_price"`
			ListingCount int      `json:"listing_count"`
		} `json:"stats"`
	} `json:"events"`
}

// Fetch retrieves and normalizes current SeatGeek listings for an event
func (a *SeatGeekAdapter) Fetch(ctx context.Context, event *models.Event) (*models.PlatformSnapshot, error) {
	endpoint := fmt.Sprintf("%s/2/events?q=%s&venue.city=%s&client_id=%s",
		a.config.BaseURL, url.QueryEscape(event.Name), url.QueryEscape(event.City), url.QueryEscape(a.config.APIKey))

	body, err := doGet(ctx, a.client, endpoint, a.config.Headers)
	if err != nil {
		return nil, wrapFetchError(SeatGeek, err)
	}

	var response seatgeekResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, NewFetchError(SeatGeek, ReasonParse, err)
	}

	snapshot := &models.PlatformSnapshot{
		Platform:   SeatGeek,
		Listings:   make([]models.Listing, 0, len(response.Events)),
		CapturedAt: time.Now(),
		Quality:    models.QualityFull,
	}

	for _, item := range response.Events {
		stats := item.Stats
		listing := models.Listing{
			ExternalID:   item.ID.String(),
			Currency:     "USD",
			Available:    stats.ListingCount > 0,
			TotalTickets: stats.ListingCount,
		}

		if stats.LowestPrice != nil {
			listing.PriceMin = decimal.NewFromFloat(*stats.LowestPrice)
		} else {
			snapshot.Quality = models.QualityPartial
		}
		if stats.HighestPrice != nil {
			listing.PriceMax = decimal.NewFromFloat(*stats.HighestPrice)
		}

		snapshot.Listings = append(snapshot.Listings, listing)
	}

	a.logger.Debug("SeatGeek fetch completed",
		"event_id", event.ID, "listings", len(snapshot.Listings))

	return snapshot, nil
}
