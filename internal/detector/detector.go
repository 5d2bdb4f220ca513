// File: internal/detector/detector.go
package detector

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hdtickets/ticket-monitor/internal/models"
	"github.com/hdtickets/ticket-monitor/pkg/utils"
)

// LowInventoryMax is the inclusive upper bound for a low-inventory alert.
const LowInventoryMax = 5

// PriceDropPercent is the percentage drop that triggers a price-drop alert
// on its own, independent of the monitor's absolute threshold.
const PriceDropPercent = 10

// Detect diffs one platform's new snapshot against the prior one and emits
// zero or more change events. It is pure: it never reads or writes the
// snapshot store; the caller supplies previous and persists current.
//
// Listings present only in previous produce no event: absence alone is not
// treated as a sold-out signal.
func Detect(monitor *models.Monitor, platformName string, previous, current *models.PlatformSnapshot, now time.Time) []*models.ChangeEvent {
	if current == nil {
		return nil
	}

	var changes []*models.ChangeEvent

	for i := range current.Listings {
		listing := current.Listings[i]

		var prior *models.Listing
		if previous != nil {
			prior, _ = previous.FindListing(listing.ExternalID)
		}

		if prior == nil {
			changes = append(changes, newChange(monitor.ID, platformName, models.ChangeNewListing,
				models.UrgencyHigh, nil, listing, now,
				fmt.Sprintf("New listing %s found on %s", listing.ExternalID, platformName)))
			continue
		}

		if listing.Available && !prior.Available {
			changes = append(changes, newChange(monitor.ID, platformName, models.ChangeAvailabilityRestored,
				models.UrgencyHigh, prior, listing, now,
				fmt.Sprintf("Listing %s back in stock on %s", listing.ExternalID, platformName)))
		}

		if listing.Available && prior.Available && hasSignificantPriceDrop(prior, &listing, monitor.PriceDropThreshold) {
			changes = append(changes, newChange(monitor.ID, platformName, models.ChangePriceDrop,
				models.UrgencyMedium, prior, listing, now,
				fmt.Sprintf("Price drop on %s: listing %s now %s (was %s)",
					platformName, listing.ExternalID, listing.PriceMin.StringFixed(2), prior.PriceMin.StringFixed(2))))
		}

		// Low inventory can co-occur with a price drop for the same listing
		if listing.TotalTickets >= 1 && listing.TotalTickets <= LowInventoryMax {
			changes = append(changes, newChange(monitor.ID, platformName, models.ChangeLowInventory,
				models.UrgencyMedium, prior, listing, now,
				fmt.Sprintf("Only %d tickets left for listing %s on %s",
					listing.TotalTickets, listing.ExternalID, platformName)))
		}
	}

	return changes
}

// hasSignificantPriceDrop applies OR semantics: an absolute drop above the
// monitor's threshold or a percentage drop of at least PriceDropPercent each
// suffice on their own. This catches both low-value high-percentage drops
// and high-value low-percentage drops.
func hasSignificantPriceDrop(previous, current *models.Listing, threshold decimal.Decimal) bool {
	if !previous.PriceMin.IsPositive() || !current.PriceMin.IsPositive() {
		return false
	}

	drop := previous.PriceMin.Sub(current.PriceMin)
	if !drop.IsPositive() {
		return false
	}

	if drop.GreaterThan(threshold) {
		return true
	}

	percent := drop.Div(previous.PriceMin).Mul(decimal.NewFromInt(100))
	return percent.GreaterThanOrEqual(decimal.NewFromInt(PriceDropPercent))
}

func newChange(monitorID, platformName string, changeType models.ChangeType, urgency models.Urgency,
	before *models.Listing, after models.Listing, now time.Time, message string) *models.ChangeEvent {

	var beforeCopy *models.Listing
	if before != nil {
		b := *before
		beforeCopy = &b
	}

	return &models.ChangeEvent{
		ID:         utils.MustGenerateID(),
		MonitorID:  monitorID,
		Platform:   platformName,
		Type:       changeType,
		Urgency:    urgency,
		ListingID:  after.ExternalID,
		Before:     beforeCopy,
		After:      after,
		Message:    message,
		DetectedAt: now,
	}
}
