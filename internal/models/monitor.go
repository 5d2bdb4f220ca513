// File: internal/models/monitor.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Priority controls how often a monitor is rechecked
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Interval returns the base recheck interval for the priority
func (p Priority) Interval() time.Duration {
	switch p {
	case PriorityCritical:
		return 500 * time.Millisecond
	case PriorityHigh:
		return 1 * time.Second
	case PriorityMedium:
		return 5 * time.Second
	case PriorityLow:
		return 30 * time.Second
	default:
		return 10 * time.Second
	}
}

// Rank returns the scheduling rank of the priority, higher runs first
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether the priority is a known level
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// HealthState describes a monitor's failure state
type HealthState string

const (
	HealthHealthy  HealthState = "healthy"
	HealthDegraded HealthState = "degraded"
	HealthError    HealthState = "error"
)

// ErrorStateThreshold is the consecutive-failure count at which a monitor
// is surfaced as being in the error state.
const ErrorStateThreshold = 3

// DefaultAlertMinInterval is the per-(monitor, platform, listing) alert
// suppression window applied when a monitor does not configure one.
const DefaultAlertMinInterval = 15 * time.Minute

// Monitor tracks one (event, user) pairing under continuous watch
type Monitor struct {
	ID                 string          `json:"id" db:"id"`
	EventID            string          `json:"event_id" db:"event_id"`
	UserID             string          `json:"user_id" db:"user_id"`
	Active             bool            `json:"active" db:"active"`
	Priority           Priority        `json:"priority" db:"priority"`
	Platforms          []string        `json:"platforms" db:"platforms"`
	Channels           []string        `json:"channels" db:"channels"`
	PriceDropThreshold decimal.Decimal `json:"price_drop_threshold" db:"price_drop_threshold"`
	AlertMinInterval   time.Duration   `json:"alert_min_interval" db:"alert_min_interval"`
	ConsecutiveErrors  int             `json:"consecutive_errors" db:"consecutive_errors"`
	LastError          *string         `json:"last_error,omitempty" db:"last_error"`
	NextRunAt          time.Time       `json:"next_run_at" db:"next_run_at"`
	LastRunAt          *time.Time      `json:"last_run_at,omitempty" db:"last_run_at"`
	LastRunDuration    time.Duration   `json:"last_run_duration" db:"last_run_duration"`
	SuccessCount       uint64          `json:"success_count" db:"success_count"`
	FailureCount       uint64          `json:"failure_count" db:"failure_count"`
	TotalChecks        uint64          `json:"total_checks" db:"total_checks"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// IsDue reports whether the monitor is eligible to run at the given instant
func (m *Monitor) IsDue(now time.Time) bool {
	return m.Active && !m.NextRunAt.After(now)
}

// Overdue returns how far past its eligibility the monitor is
func (m *Monitor) Overdue(now time.Time) time.Duration {
	return now.Sub(m.NextRunAt)
}

// Health derives the monitor's failure state from its consecutive error count
func (m *Monitor) Health() HealthState {
	switch {
	case m.ConsecutiveErrors >= ErrorStateThreshold:
		return HealthError
	case m.ConsecutiveErrors > 0:
		return HealthDegraded
	default:
		return HealthHealthy
	}
}

// RecordSuccess updates the monitor's counters after a successful cycle
func (m *Monitor) RecordSuccess(now time.Time, duration time.Duration) {
	m.TotalChecks++
	m.SuccessCount++
	m.ConsecutiveErrors = 0
	m.LastError = nil
	m.LastRunAt = &now
	m.LastRunDuration = duration
	m.UpdatedAt = now
}

// RecordFailure updates the monitor's counters after a failed cycle
func (m *Monitor) RecordFailure(now time.Time, duration time.Duration, errMsg string) {
	m.TotalChecks++
	m.FailureCount++
	m.ConsecutiveErrors++
	m.LastError = &errMsg
	m.LastRunAt = &now
	m.LastRunDuration = duration
	m.UpdatedAt = now
}

// SuccessRate returns the percentage of successful checks
func (m *Monitor) SuccessRate() float64 {
	if m.TotalChecks == 0 {
		return 100.0
	}
	return float64(m.SuccessCount) / float64(m.TotalChecks) * 100.0
}

// MinAlertInterval returns the configured suppression window or the default
func (m *Monitor) MinAlertInterval() time.Duration {
	if m.AlertMinInterval > 0 {
		return m.AlertMinInterval
	}
	return DefaultAlertMinInterval
}

// MonitorFilter for querying monitors
type MonitorFilter struct {
	UserID   *string   `json:"user_id,omitempty"`
	EventID  *string   `json:"event_id,omitempty"`
	Active   *bool     `json:"active,omitempty"`
	Priority *Priority `json:"priority,omitempty"`
	Limit    int       `json:"limit,omitempty"`
	Offset   int       `json:"offset,omitempty"`
}
