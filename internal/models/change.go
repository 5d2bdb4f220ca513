// File: internal/models/change.go
package models

import "time"

// ChangeType classifies a detected transition between two snapshots
type ChangeType string

const (
	ChangeNewListing           ChangeType = "new_listing"
	ChangeAvailabilityRestored ChangeType = "availability_restored"
	ChangePriceDrop            ChangeType = "price_drop"
	ChangeLowInventory         ChangeType = "low_inventory"
)

// Urgency selects the notification channel set for a change
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// ChangeEvent is an immutable fact describing a detected transition.
// It references its monitor by id only; it never holds the monitor itself.
type ChangeEvent struct {
	ID         string     `json:"id" db:"id"`
	MonitorID  string     `json:"monitor_id" db:"monitor_id"`
	Platform   string     `json:"platform" db:"platform"`
	Type       ChangeType `json:"type" db:"type"`
	Urgency    Urgency    `json:"urgency" db:"urgency"`
	ListingID  string     `json:"listing_id" db:"listing_id"`
	Before     *Listing   `json:"before,omitempty" db:"before"`
	After      Listing    `json:"after" db:"after"`
	Message    string     `json:"message" db:"message"`
	DetectedAt time.Time  `json:"detected_at" db:"detected_at"`
}

// ChangeEventFilter for querying archived change events
type ChangeEventFilter struct {
	MonitorID *string     `json:"monitor_id,omitempty"`
	Platform  *string     `json:"platform,omitempty"`
	Type      *ChangeType `json:"type,omitempty"`
	From      *time.Time  `json:"from,omitempty"`
	To        *time.Time  `json:"to,omitempty"`
	Limit     int         `json:"limit,omitempty"`
	Offset    int         `json:"offset,omitempty"`
}
