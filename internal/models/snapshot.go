// File: internal/models/snapshot.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Listing is one normalized marketplace listing
type Listing struct {
	ExternalID   string          `json:"external_id" db:"external_id"`
	PriceMin     decimal.Decimal `json:"price_min" db:"price_min"`
	PriceMax     decimal.Decimal `json:"price_max" db:"price_max"`
	Currency     string          `json:"currency" db:"currency"`
	Available    bool            `json:"available" db:"available"`
	TotalTickets int             `json:"total_tickets" db:"total_tickets"`
}

// Data quality indicators for a snapshot
const (
	QualityFull    = "full"
	QualityPartial = "partial"
)

// PlatformSnapshot is the last normalized view of one platform's listings
// for one monitor. Exactly one live snapshot exists per (monitor, platform);
// it is overwritten, never appended, on each successful fetch.
type PlatformSnapshot struct {
	Platform   string    `json:"platform" db:"platform"`
	Listings   []Listing `json:"listings" db:"listings"`
	CapturedAt time.Time `json:"captured_at" db:"captured_at"`
	Quality    string    `json:"quality" db:"quality"`
}

// FindListing returns the listing with the given external id, if present
func (s *PlatformSnapshot) FindListing(externalID string) (*Listing, bool) {
	for i := range s.Listings {
		if s.Listings[i].ExternalID == externalID {
			return &s.Listings[i], true
		}
	}
	return nil, false
}

// AvailableListings returns the subset of listings currently available
func (s *PlatformSnapshot) AvailableListings() []Listing {
	available := make([]Listing, 0, len(s.Listings))
	for _, l := range s.Listings {
		if l.Available {
			available = append(available, l)
		}
	}
	return available
}
