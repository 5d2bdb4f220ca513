// File: internal/dispatch/logchannel.go
package dispatch

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/hdtickets/ticket-monitor/internal/models"
	"github.com/hdtickets/ticket-monitor/pkg/utils"
)

// LogChannel writes alerts to the application log. It is always available
// and serves as the fallback when a monitor has no channels configured.
type LogChannel struct {
	logger *logrus.Logger
}

// NewLogChannel creates the log channel
func NewLogChannel() *LogChannel {
	return &LogChannel{logger: utils.GetLogger()}
}

// Name returns the channel identifier
func (c *LogChannel) Name() string {
	return models.ChannelLog
}

// Send logs the alert
func (c *LogChannel) Send(ctx context.Context, recipient string, urgency models.Urgency, message string) error {
	c.logger.Info("ALERT",
		"recipient", recipient,
		"urgency", urgency,
		"message", message)
	return nil
}
