// File: internal/models/alert.go
package models

import "time"

// Notification channel identifiers
const (
	ChannelEmail   = "email"
	ChannelSMS     = "sms"
	ChannelPush    = "push"
	ChannelWebhook = "webhook"
	ChannelLog     = "log"
)

// FastChannels are always included for high-urgency changes, whether or not
// the user enabled them explicitly.
var FastChannels = []string{ChannelPush, ChannelSMS}

// ValidChannel reports whether the channel name is known
func ValidChannel(channel string) bool {
	switch channel {
	case ChannelEmail, ChannelSMS, ChannelPush, ChannelWebhook, ChannelLog:
		return true
	}
	return false
}

// AlertDeliveryAttempt records one channel's delivery outcome for one
// change event. Append-only.
type AlertDeliveryAttempt struct {
	ID            string        `json:"id" db:"id"`
	ChangeEventID string        `json:"change_event_id" db:"change_event_id"`
	MonitorID     string        `json:"monitor_id" db:"monitor_id"`
	Channel       string        `json:"channel" db:"channel"`
	Success       bool          `json:"success" db:"success"`
	Error         *string       `json:"error,omitempty" db:"error"`
	Duration      time.Duration `json:"duration" db:"duration"`
	AttemptedAt   time.Time     `json:"attempted_at" db:"attempted_at"`
}
