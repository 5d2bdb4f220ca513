// File: internal/platform/ticketmaster.go
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

// TicketmasterAdapter fetches listings from the Ticketmaster Discovery API
type TicketmasterAdapter struct {
	config config.PlatformConfig
	client *http.Client
	logger *logrus.Logger
}

// NewTicketmasterAdapter creates a new Ticketmaster adapter
func NewTicketmasterAdapter(cfg config.PlatformConfig, client *http.Client) *TicketmasterAdapter {
	return &TicketmasterAdapter{
		config: cfg,
		client: client,
		logger: utils.GetLogger(),
	}
}

// Name returns the platform identifier
func (a *TicketmasterAdapter) Name() string {
	return Ticketmaster
}

type ticketmasterResponse struct {
	Embedded struct {
		Events []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			PriceRanges []struct {
				Min      *float64 `json:"min"`
				Max      *float64 `json:"max"`
				Currency string   `json:"currency"`
			} `json:"priceRanges"`
			Dates struct {
				Status struct {
					Code string `json:"code"`
				} `json:"status"`
			} `json:"dates"`
			TicketLimit struct {
				Count int `json:"count"`
			} `json:"ticketLimit"`
		} `json:"events"`
	} `json:"_embedded"`
}

// Fetch retrieves and normalizes current Ticketmaster listings for an event
func (a *TicketmasterAdapter) Fetch(ctx context.Context, event *models.Event) (*models.PlatformSnapshot, error) {
	endpoint := fmt.Sprintf("%s/discovery/v2/events.json?keyword=%s&city=%s&apikey=%s",
		a.config.BaseURL, url.QueryEscape(event.Name), url.QueryEscape(event.City), url.QueryEscape(a.config.APIKey))

	body, err := doGet(ctx, a.client, endpoint, a.config.Headers)
	if err != nil {
		return nil, wrapFetchError(Ticketmaster, err)
	}

	var response ticketmasterResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, NewFetchError(Ticketmaster, ReasonParse, err)
	}

	snapshot := &models.PlatformSnapshot{
		Platform:   Ticketmaster,
		Listings:   make([]models.Listing, 0, len(response.Embedded.Events)),
		CapturedAt: time.Now(),
		Quality:    models.QualityFull,
	}

	for _, item := range response.Embedded.Events {
		listing := models.Listing{
			ExternalID:   item.ID,
			Currency:     "USD",
			Available:    item.Dates.Status.Code == "onsale",
			TotalTickets: item.TicketLimit.Count,
		}

		if len(item.PriceRanges) > 0 {
			pr := item.PriceRanges[0]
			if pr.Min != nil {
				listing.PriceMin = decimal.NewFromFloat(*pr.Min)
			}
			if pr.Max != nil {
				listing.PriceMax = decimal.NewFromFloat(*pr.Max)
			}
			if pr.Currency != "" {
				listing.Currency = pr.Currency
			}
		} else {
			snapshot.Quality = models.QualityPartial
		}

		snapshot.Listings = append(snapshot.Listings, listing)
	}

	a.logger.Debug("Ticketmaster fetch completed",
		"event_id", event.ID, "listings", len(snapshot.Listings))

	return snapshot, nil
}
