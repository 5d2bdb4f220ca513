// File: internal/models/summary.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventSummary is the merged cross-platform view of one event. It is always
// derivable from current snapshots, so it is cached, never authoritative.
type EventSummary struct {
	EventID           string           `json:"event_id"`
	TotalListings     int              `json:"total_listings"`
	AvailableListings int              `json:"available_listings"`
	PlatformsCount    int              `json:"platforms_count"`
	LowestPrice       *decimal.Decimal `json:"lowest_price,omitempty"`
	HighestPrice      *decimal.Decimal `json:"highest_price,omitempty"`
	AveragePrice      *decimal.Decimal `json:"average_price,omitempty"`
	TotalTickets      int              `json:"total_tickets"`
	BestValuePlatform string           `json:"best_value_platform,omitempty"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// BuildEventSummary merges per-platform snapshots into a single summary
func BuildEventSummary(eventID string, snapshots map[string]*PlatformSnapshot, now time.Time) *EventSummary {
	summary := &EventSummary{
		EventID:        eventID,
		PlatformsCount: len(snapshots),
		UpdatedAt:      now,
	}

	var priceSum decimal.Decimal
	var priceCount int64

	for platform, snapshot := range snapshots {
		if snapshot == nil {
			continue
		}
		summary.TotalListings += len(snapshot.Listings)

		for _, listing := range snapshot.AvailableListings() {
			summary.AvailableListings++
			summary.TotalTickets += listing.TotalTickets

			if !listing.PriceMin.IsPositive() {
				continue
			}
			price := listing.PriceMin
			priceSum = priceSum.Add(price)
			priceCount++

			if summary.LowestPrice == nil || price.LessThan(*summary.LowestPrice) {
				p := price
				summary.LowestPrice = &p
				summary.BestValuePlatform = platform
			}
			if summary.HighestPrice == nil || price.GreaterThan(*summary.HighestPrice) {
				p := price
				summary.HighestPrice = &p
			}
		}
	}

	if priceCount > 0 {
		avg := priceSum.Div(decimal.NewFromInt(priceCount)).Round(2)
		summary.AveragePrice = &avg
	}

	return summary
}
