// File: internal/dispatch/gateway.go
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hdtickets/ticket-monitor/internal/config"
	"github.com/hdtickets/ticket-monitor/internal/models"
	"github.com/hdtickets/ticket-monitor/pkg/utils"
)

// GatewayChannel delivers alerts through an HTTP notification gateway.
// Push and SMS share the same gateway contract and differ only in name
// and endpoint.
type GatewayChannel struct {
	name   string
	config config.GatewayConfig
	client *http.Client
	logger *logrus.Logger
}

// NewPushChannel creates the push notification channel
func NewPushChannel(cfg config.GatewayConfig) *GatewayChannel {
	return newGatewayChannel(models.ChannelPush, cfg)
}

// NewSMSChannel creates the SMS notification channel
func NewSMSChannel(cfg config.GatewayConfig) *GatewayChannel {
	return newGatewayChannel(models.ChannelSMS, cfg)
}

func newGatewayChannel(name string, cfg config.GatewayConfig) *GatewayChannel {
	return &GatewayChannel{
		name:   name,
		config: cfg,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		logger: utils.GetLogger(),
	}
}

// Name returns the channel identifier
func (c *GatewayChannel) Name() string {
	return c.name
}

type gatewayRequest struct {
	Recipient string `json:"recipient"`
	Urgency   string `json:"urgency"`
	Message   string `json:"message"`
}

// Send posts the alert to the gateway, which resolves the recipient token
// to a device or phone number
func (c *GatewayChannel) Send(ctx context.Context, recipient string, urgency models.Urgency, message string) error {
	body, err := json.Marshal(gatewayRequest{
		Recipient: recipient,
		Urgency:   string(urgency),
		Message:   message,
	})
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDispatch, "Failed to marshal gateway payload", err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDispatch, "Failed to create gateway request", err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDispatch,
			fmt.Sprintf("%s gateway request failed", c.name), err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return utils.NewAppError(utils.ErrCodeDispatch,
			fmt.Sprintf("%s gateway rejected", c.name),
			fmt.Sprintf("status %d", resp.StatusCode))
	}

	c.logger.Debug("Gateway alert sent",
		"channel", c.name, "recipient", recipient, "urgency", urgency)
	return nil
}
