// File: internal/dispatch/webhook.go
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

// WebhookChannel delivers alerts as JSON POSTs to a configured endpoint
type WebhookChannel struct {
	config config.WebhookConfig
	client *http.Client
	logger *logrus.Logger
}

// webhookPayload is the outbound webhook body
type webhookPayload struct {
	Recipient string    `json:"recipient"`
	Urgency   string    `json:"urgency"`
	Message   string    `json:"message"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// NewWebhookChannel creates a new webhook channel
func NewWebhookChannel(cfg config.WebhookConfig) *WebhookChannel {
	return &WebhookChannel{
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
func (c *WebhookChannel) Name() string {
	return models.ChannelWebhook
}

// Send posts the alert payload to the webhook endpoint
func (c *WebhookChannel) Send(ctx context.Context, recipient string, urgency models.Urgency, message string) error {
	payload := webhookPayload{
		Recipient: recipient,
		Urgency:   string(urgency),
		Message:   message,
		Source:    "ticket-monitor",
		Timestamp: time.Now(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDispatch, "Failed to marshal webhook payload", err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDispatch, "Failed to create webhook request", err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range c.config.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDispatch, "Webhook request failed", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return utils.NewAppError(utils.ErrCodeDispatch, "Webhook rejected",
			fmt.Sprintf("status %d", resp.StatusCode))
	}

	c.logger.Debug("Webhook alert sent", "recipient", recipient, "urgency", urgency)
	return nil
}
