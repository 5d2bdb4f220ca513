// File: internal/models/event.go
package models

import "time"

// Event describes a live event tracked across marketplaces
type Event struct {
	ID        string     `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Venue     string     `json:"venue" db:"venue"`
	City      string     `json:"city" db:"city"`
	Date      *time.Time `json:"date,omitempty" db:"date"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}
