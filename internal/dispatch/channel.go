// File: internal/dispatch/channel.go
package dispatch

import (
	"context"

	"github.com/hdtickets/ticket-monitor/internal/models"
)

// Channel is an opaque notification sink. Recipient resolution and
// channel-specific rendering beyond the plain message belong to the
// channel implementation, not to the dispatcher.
type Channel interface {
	Name() string
	Send(ctx context.Context, recipient string, urgency models.Urgency, message string) error
}
