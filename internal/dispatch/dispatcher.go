// File: internal/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hdtickets/ticket-monitor/internal/metrics"
	"github.com/hdtickets/ticket-monitor/internal/models"
	"github.com/hdtickets/ticket-monitor/pkg/utils"
)

// Dispatcher maps a change event's urgency to a channel set and delivers
// through each channel independently. One channel's failure never prevents
// attempting the others.
type Dispatcher struct {
	channels map[string]Channel
	timeout  time.Duration
	logger   *logrus.Logger

	// Rate guard: last fire time per (monitor, platform, listing, type)
	mu        sync.Mutex
	lastFired map[string]time.Time

	metricsManager *metrics.Manager
}

// NewDispatcher creates a dispatcher over the given channels
func NewDispatcher(channels []Channel, timeout time.Duration, metricsManager *metrics.Manager) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	byName := make(map[string]Channel, len(channels))
	for _, channel := range channels {
		byName[channel.Name()] = channel
	}

	return &Dispatcher{
		channels:       byName,
		timeout:        timeout,
		logger:         utils.GetLogger(),
		lastFired:      make(map[string]time.Time),
		metricsManager: metricsManager,
	}
}

// ChannelsFor returns the channel names for the monitor at the given
// urgency. High urgency always adds the fastest channels (push, SMS) on top
// of the user's preferences so urgent changes are not missed; medium and
// low urgency use only the explicitly configured channels.
func (d *Dispatcher) ChannelsFor(monitor *models.Monitor, urgency models.Urgency) []string {
	selected := make([]string, 0, len(monitor.Channels)+len(models.FastChannels))
	seen := make(map[string]bool)

	for _, name := range monitor.Channels {
		if !seen[name] {
			seen[name] = true
			selected = append(selected, name)
		}
	}

	if urgency == models.UrgencyHigh {
		for _, name := range models.FastChannels {
			if !seen[name] {
				seen[name] = true
				selected = append(selected, name)
			}
		}
	}

	if len(selected) == 0 {
		selected = append(selected, models.ChannelLog)
	}

	return selected
}

// Dispatch delivers one change event through the monitor's channel set and
// records one delivery attempt per channel. A suppressed event returns no
// attempts.
func (d *Dispatcher) Dispatch(ctx context.Context, event *models.ChangeEvent, monitor *models.Monitor) []*models.AlertDeliveryAttempt {
	if !d.shouldFire(event, monitor) {
		d.logger.Debug("Alert suppressed by rate guard",
			"monitor_id", monitor.ID,
			"platform", event.Platform,
			"listing_id", event.ListingID,
			"type", event.Type)
		if d.metricsManager != nil {
			d.metricsManager.GetPrometheusMetrics().RecordAlertSuppressed(string(event.Type))
		}
		return nil
	}

	channelNames := d.ChannelsFor(monitor, event.Urgency)
	attempts := make([]*models.AlertDeliveryAttempt, 0, len(channelNames))

	for _, name := range channelNames {
		attempts = append(attempts, d.deliver(ctx, name, event, monitor))
	}

	return attempts
}

// deliver attempts delivery on one channel, isolating its failure
func (d *Dispatcher) deliver(ctx context.Context, channelName string, event *models.ChangeEvent, monitor *models.Monitor) *models.AlertDeliveryAttempt {
	attempt := &models.AlertDeliveryAttempt{
		ID:            utils.MustGenerateID(),
		ChangeEventID: event.ID,
		MonitorID:     monitor.ID,
		Channel:       channelName,
		AttemptedAt:   time.Now(),
	}

	channel, ok := d.channels[channelName]
	if !ok {
		errMsg := fmt.Sprintf("channel %s not configured", channelName)
		attempt.Error = &errMsg
		d.recordAttempt(attempt, event)
		return attempt
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := channel.Send(sendCtx, monitor.UserID, event.Urgency, event.Message)
	attempt.Duration = time.Since(start)
	attempt.Success = err == nil

	if err != nil {
		errMsg := err.Error()
		attempt.Error = &errMsg
		d.logger.Error("Alert delivery failed",
			"monitor_id", monitor.ID,
			"channel", channelName,
			"change_type", event.Type,
			"error", err)
	}

	d.recordAttempt(attempt, event)
	return attempt
}

func (d *Dispatcher) recordAttempt(attempt *models.AlertDeliveryAttempt, event *models.ChangeEvent) {
	if d.metricsManager == nil {
		return
	}
	status := "success"
	if !attempt.Success {
		status = "error"
	}
	d.metricsManager.GetPrometheusMetrics().RecordAlertDelivery(attempt.Channel, string(event.Type), status)
	d.metricsManager.GetPrometheusMetrics().RecordAlertDeliveryDuration(attempt.Channel, attempt.Duration)
}

// shouldFire applies the alert-storm guard: an event of the same type for
// the same (monitor, platform, listing) fires at most once per the
// monitor's minimum interval. The fire time is recorded up front so a
// flapping listing cannot storm even while deliveries fail.
func (d *Dispatcher) shouldFire(event *models.ChangeEvent, monitor *models.Monitor) bool {
	key := fmt.Sprintf("%s|%s|%s|%s", monitor.ID, event.Platform, event.ListingID, event.Type)
	now := event.DetectedAt

	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.lastFired[key]; ok && now.Sub(last) < monitor.MinAlertInterval() {
		return false
	}

	d.lastFired[key] = now
	return true
}

// PruneRateGuard drops suppression entries older than the retention window.
// Called periodically so the guard map does not grow unbounded.
func (d *Dispatcher) PruneRateGuard(retention time.Duration) {
	cutoff := time.Now().Add(-retention)

	d.mu.Lock()
	defer d.mu.Unlock()

	for key, fired := range d.lastFired {
		if fired.Before(cutoff) {
			delete(d.lastFired, key)
		}
	}
}
