// File: internal/platform/adapter.go
package platform

import (
	"context"
	"fmt"

	"github.com/hdtickets/ticket-monitor/internal/models"
)

// Supported marketplace identifiers
const (
	Ticketmaster = "ticketmaster"
	StubHub      = "stubhub"
	SeatGeek     = "seatgeek"
)

// Adapter fetches a normalized listing snapshot from one marketplace.
// Implementations must honor the context deadline and never retry past it;
// retry policy belongs to the caller.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, event *models.Event) (*models.PlatformSnapshot, error)
}

// FetchError reason codes
const (
	ReasonNetwork = "network"
	ReasonTimeout = "timeout"
	ReasonParse   = "parse"
	ReasonStatus  = "status"
)

// FetchError describes a single platform's fetch failure. It is recovered
// locally and never aborts the monitor's cycle on its own.
type FetchError struct {
	Platform string `json:"platform"`
	Reason   string `json:"reason"`
	Err      error  `json:"-"`
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s fetch failed (%s): %v", e.Platform, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s fetch failed (%s)", e.Platform, e.Reason)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a fetch error for one platform
func NewFetchError(platform, reason string, err error) *FetchError {
	return &FetchError{Platform: platform, Reason: reason, Err: err}
}
