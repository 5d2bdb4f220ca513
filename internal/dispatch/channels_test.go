// File: internal/dispatch/channels_test.go
package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdtickets/ticket-monitor/internal/config"
	"github.com/hdtickets/ticket-monitor/internal/models"
)

func TestWebhookChannelSend(t *testing.T) {
	var received webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Token"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	channel := NewWebhookChannel(config.WebhookConfig{
		Enabled: true,
		URL:     server.URL,
		Headers: map[string]string{"X-Api-Token": "secret"},
	})

	assert.Equal(t, models.ChannelWebhook, channel.Name())

	err := channel.Send(context.Background(), "user-1", models.UrgencyHigh, "Price drop on stubhub")
	require.NoError(t, err)

	assert.Equal(t, "user-1", received.Recipient)
	assert.Equal(t, "high", received.Urgency)
	assert.Equal(t, "Price drop on stubhub", received.Message)
	assert.Equal(t, "ticket-monitor", received.Source)
	assert.False(t, received.Timestamp.IsZero())
}

func TestWebhookChannelRejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	channel := NewWebhookChannel(config.WebhookConfig{URL: server.URL})

	err := channel.Send(context.Background(), "user-1", models.UrgencyMedium, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Webhook rejected")
}

func TestWebhookChannelUnreachable(t *testing.T) {
	channel := NewWebhookChannel(config.WebhookConfig{URL: "http://127.0.0.1:1/hook"})

	err := channel.Send(context.Background(), "user-1", models.UrgencyMedium, "test")
	assert.Error(t, err)
}

func TestGatewayChannelSend(t *testing.T) {
	var received gatewayRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gw-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer server.Close()

	push := NewPushChannel(config.GatewayConfig{Enabled: true, URL: server.URL, APIKey: "gw-key"})
	assert.Equal(t, models.ChannelPush, push.Name())

	err := push.Send(context.Background(), "device-token", models.UrgencyHigh, "Back in stock")
	require.NoError(t, err)
	assert.Equal(t, "device-token", received.Recipient)
	assert.Equal(t, "high", received.Urgency)
	assert.Equal(t, "Back in stock", received.Message)

	sms := NewSMSChannel(config.GatewayConfig{URL: server.URL})
	assert.Equal(t, models.ChannelSMS, sms.Name())
	assert.NoError(t, sms.Send(context.Background(), "+15551234", models.UrgencyMedium, "Only 3 left"))
}

func TestGatewayChannelRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	sms := NewSMSChannel(config.GatewayConfig{URL: server.URL})

	err := sms.Send(context.Background(), "+15551234", models.UrgencyHigh, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sms gateway rejected")
}

func TestLogChannelAlwaysSucceeds(t *testing.T) {
	channel := NewLogChannel()
	assert.Equal(t, models.ChannelLog, channel.Name())
	assert.NoError(t, channel.Send(context.Background(), "user-1", models.UrgencyLow, "quiet alert"))
}
