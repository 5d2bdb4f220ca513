// File: internal/dispatch/dispatcher_test.go
package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdtickets/ticket-monitor/internal/models"
)

// stubChannel records every send and fails on demand
type stubChannel struct {
	name string
	err  error

	mu    sync.Mutex
	sends []string
}

func (c *stubChannel) Name() string { return c.name }

func (c *stubChannel) Send(ctx context.Context, recipient string, urgency models.Urgency, message string) error {
	c.mu.Lock()
	c.sends = append(c.sends, recipient)
	c.mu.Unlock()
	return c.err
}

func (c *stubChannel) sendCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sends)
}

func changeEvent(id, listingID string, changeType models.ChangeType, urgency models.Urgency, detectedAt time.Time) *models.ChangeEvent {
	return &models.ChangeEvent{
		ID:         id,
		MonitorID:  "monitor-1",
		Platform:   "seatgeek",
		Type:       changeType,
		Urgency:    urgency,
		ListingID:  listingID,
		Message:    "test alert",
		DetectedAt: detectedAt,
	}
}

func dispatchMonitor(channels ...string) *models.Monitor {
	return &models.Monitor{
		ID:       "monitor-1",
		UserID:   "user-1",
		Channels: channels,
	}
}

func TestChannelsForMediumUrgency(t *testing.T) {
	dispatcher := NewDispatcher(nil, time.Second, nil)
	monitor := dispatchMonitor(models.ChannelEmail, models.ChannelWebhook)

	selected := dispatcher.ChannelsFor(monitor, models.UrgencyMedium)

	assert.Equal(t, []string{models.ChannelEmail, models.ChannelWebhook}, selected,
		"Medium urgency uses only the configured channels")
}

func TestChannelsForHighUrgencyAddsFastChannels(t *testing.T) {
	dispatcher := NewDispatcher(nil, time.Second, nil)
	monitor := dispatchMonitor(models.ChannelEmail)

	selected := dispatcher.ChannelsFor(monitor, models.UrgencyHigh)

	assert.Equal(t, []string{models.ChannelEmail, models.ChannelPush, models.ChannelSMS}, selected)
}

func TestChannelsForHighUrgencyDeduplicates(t *testing.T) {
	dispatcher := NewDispatcher(nil, time.Second, nil)
	monitor := dispatchMonitor(models.ChannelSMS, models.ChannelEmail)

	selected := dispatcher.ChannelsFor(monitor, models.UrgencyHigh)

	assert.Equal(t, []string{models.ChannelSMS, models.ChannelEmail, models.ChannelPush}, selected,
		"A fast channel already configured is not added twice")
}

func TestChannelsForFallsBackToLog(t *testing.T) {
	dispatcher := NewDispatcher(nil, time.Second, nil)
	monitor := dispatchMonitor()

	selected := dispatcher.ChannelsFor(monitor, models.UrgencyMedium)

	assert.Equal(t, []string{models.ChannelLog}, selected)
}

func TestDispatchDeliversOnEveryChannel(t *testing.T) {
	email := &stubChannel{name: models.ChannelEmail}
	webhook := &stubChannel{name: models.ChannelWebhook}
	dispatcher := NewDispatcher([]Channel{email, webhook}, time.Second, nil)

	monitor := dispatchMonitor(models.ChannelEmail, models.ChannelWebhook)
	event := changeEvent("evt-1", "listing-1", models.ChangePriceDrop, models.UrgencyMedium, time.Now())

	attempts := dispatcher.Dispatch(context.Background(), event, monitor)

	require.Len(t, attempts, 2)
	for _, attempt := range attempts {
		assert.True(t, attempt.Success)
		assert.Nil(t, attempt.Error)
		assert.Equal(t, "evt-1", attempt.ChangeEventID)
		assert.Equal(t, "monitor-1", attempt.MonitorID)
	}
	assert.Equal(t, 1, email.sendCount())
	assert.Equal(t, 1, webhook.sendCount())
}

func TestDispatchIsolatesChannelFailure(t *testing.T) {
	email := &stubChannel{name: models.ChannelEmail, err: errors.New("smtp down")}
	webhook := &stubChannel{name: models.ChannelWebhook}
	dispatcher := NewDispatcher([]Channel{email, webhook}, time.Second, nil)

	monitor := dispatchMonitor(models.ChannelEmail, models.ChannelWebhook)
	event := changeEvent("evt-1", "listing-1", models.ChangePriceDrop, models.UrgencyMedium, time.Now())

	attempts := dispatcher.Dispatch(context.Background(), event, monitor)

	require.Len(t, attempts, 2)

	byChannel := make(map[string]*models.AlertDeliveryAttempt)
	for _, attempt := range attempts {
		byChannel[attempt.Channel] = attempt
	}

	require.Contains(t, byChannel, models.ChannelEmail)
	assert.False(t, byChannel[models.ChannelEmail].Success)
	require.NotNil(t, byChannel[models.ChannelEmail].Error)
	assert.Contains(t, *byChannel[models.ChannelEmail].Error, "smtp down")

	require.Contains(t, byChannel, models.ChannelWebhook)
	assert.True(t, byChannel[models.ChannelWebhook].Success, "One channel failing never blocks the others")
	assert.Equal(t, 1, webhook.sendCount())
}

func TestDispatchUnconfiguredChannelFailsAttempt(t *testing.T) {
	dispatcher := NewDispatcher([]Channel{&stubChannel{name: models.ChannelLog}}, time.Second, nil)

	monitor := dispatchMonitor(models.ChannelEmail)
	event := changeEvent("evt-1", "listing-1", models.ChangeLowInventory, models.UrgencyMedium, time.Now())

	attempts := dispatcher.Dispatch(context.Background(), event, monitor)

	require.Len(t, attempts, 1)
	assert.False(t, attempts[0].Success)
	require.NotNil(t, attempts[0].Error)
	assert.Contains(t, *attempts[0].Error, "not configured")
}

func TestDispatchRateGuardSuppressesRepeats(t *testing.T) {
	log := &stubChannel{name: models.ChannelLog}
	dispatcher := NewDispatcher([]Channel{log}, time.Second, nil)

	monitor := dispatchMonitor(models.ChannelLog)
	now := time.Now()

	first := changeEvent("evt-1", "listing-1", models.ChangePriceDrop, models.UrgencyMedium, now)
	attempts := dispatcher.Dispatch(context.Background(), first, monitor)
	require.Len(t, attempts, 1)

	// Same (monitor, platform, listing, type) inside the window: suppressed
	repeat := changeEvent("evt-2", "listing-1", models.ChangePriceDrop, models.UrgencyMedium, now.Add(5*time.Minute))
	attempts = dispatcher.Dispatch(context.Background(), repeat, monitor)
	assert.Nil(t, attempts, "A suppressed event produces no delivery attempts")
	assert.Equal(t, 1, log.sendCount())

	// Past the window: fires again
	later := changeEvent("evt-3", "listing-1", models.ChangePriceDrop, models.UrgencyMedium, now.Add(16*time.Minute))
	attempts = dispatcher.Dispatch(context.Background(), later, monitor)
	require.Len(t, attempts, 1)
	assert.Equal(t, 2, log.sendCount())
}

func TestDispatchRateGuardKeysAreIndependent(t *testing.T) {
	log := &stubChannel{name: models.ChannelLog}
	dispatcher := NewDispatcher([]Channel{log}, time.Second, nil)

	monitor := dispatchMonitor(models.ChannelLog)
	now := time.Now()

	dispatcher.Dispatch(context.Background(), changeEvent("evt-1", "listing-1", models.ChangePriceDrop, models.UrgencyMedium, now), monitor)

	// Different listing: fires
	attempts := dispatcher.Dispatch(context.Background(), changeEvent("evt-2", "listing-2", models.ChangePriceDrop, models.UrgencyMedium, now), monitor)
	assert.Len(t, attempts, 1)

	// Same listing, different change type: fires
	attempts = dispatcher.Dispatch(context.Background(), changeEvent("evt-3", "listing-1", models.ChangeLowInventory, models.UrgencyMedium, now), monitor)
	assert.Len(t, attempts, 1)
}

func TestDispatchRespectsCustomAlertInterval(t *testing.T) {
	log := &stubChannel{name: models.ChannelLog}
	dispatcher := NewDispatcher([]Channel{log}, time.Second, nil)

	monitor := dispatchMonitor(models.ChannelLog)
	monitor.AlertMinInterval = time.Minute
	now := time.Now()

	dispatcher.Dispatch(context.Background(), changeEvent("evt-1", "listing-1", models.ChangePriceDrop, models.UrgencyMedium, now), monitor)

	suppressed := dispatcher.Dispatch(context.Background(), changeEvent("evt-2", "listing-1", models.ChangePriceDrop, models.UrgencyMedium, now.Add(30*time.Second)), monitor)
	assert.Nil(t, suppressed)

	fired := dispatcher.Dispatch(context.Background(), changeEvent("evt-3", "listing-1", models.ChangePriceDrop, models.UrgencyMedium, now.Add(90*time.Second)), monitor)
	assert.Len(t, fired, 1, "The monitor's own window overrides the default")
}

func TestPruneRateGuard(t *testing.T) {
	log := &stubChannel{name: models.ChannelLog}
	dispatcher := NewDispatcher([]Channel{log}, time.Second, nil)

	monitor := dispatchMonitor(models.ChannelLog)
	old := time.Now().Add(-48 * time.Hour)

	dispatcher.Dispatch(context.Background(), changeEvent("evt-1", "listing-1", models.ChangePriceDrop, models.UrgencyMedium, old), monitor)
	dispatcher.PruneRateGuard(24 * time.Hour)

	dispatcher.mu.Lock()
	remaining := len(dispatcher.lastFired)
	dispatcher.mu.Unlock()
	assert.Equal(t, 0, remaining, "Entries past the retention window are dropped")
}
