// File: internal/scheduler/scheduler.go
package scheduler

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hdtickets/ticket-monitor/internal/models"
	"github.com/hdtickets/ticket-monitor/pkg/utils"
)

// Outcome describes how a monitor's cycle finished
type Outcome struct {
	Success  bool
	Duration time.Duration
	Error    string
}

// Scheduler selects due monitors each cycle and computes their next
// eligibility. It mutates monitor state only; it never blocks and has no
// other side effects.
type Scheduler struct {
	backoff *BackoffManager
	logger  *logrus.Logger
}

// NewScheduler creates a new priority scheduler
func NewScheduler(backoff *BackoffManager) *Scheduler {
	if backoff == nil {
		backoff = NewBackoffManager(DefaultMaxBackoff)
	}
	return &Scheduler{
		backoff: backoff,
		logger:  utils.GetLogger(),
	}
}

// SelectDue returns the active monitors eligible to run now, ordered by
// priority (critical first) then by how overdue they are, truncated to
// maxConcurrency. Overdue-ness breaks ties so no monitor is perpetually
// starved by priority ordering alone.
func (s *Scheduler) SelectDue(monitors []*models.Monitor, now time.Time, maxConcurrency int) []*models.Monitor {
	due := make([]*models.Monitor, 0, len(monitors))
	for _, monitor := range monitors {
		if monitor.IsDue(now) {
			due = append(due, monitor)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		ri, rj := due[i].Priority.Rank(), due[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return due[i].Overdue(now) > due[j].Overdue(now)
	})

	if maxConcurrency > 0 && len(due) > maxConcurrency {
		due = due[:maxConcurrency]
	}

	return due
}

// ScheduleNext records the cycle outcome on the monitor and computes its
// next eligibility: the priority-based interval on success, the escalated
// backoff delay on failure. A single success resets the failure streak.
func (s *Scheduler) ScheduleNext(monitor *models.Monitor, outcome Outcome, now time.Time) {
	if outcome.Success {
		monitor.RecordSuccess(now, outcome.Duration)
		monitor.NextRunAt = now.Add(monitor.Priority.Interval())
		return
	}

	monitor.RecordFailure(now, outcome.Duration, outcome.Error)
	delay := s.backoff.Delay(monitor.ConsecutiveErrors)
	monitor.NextRunAt = now.Add(delay)

	s.logger.Warn("Monitor cycle failed, backing off",
		"monitor_id", monitor.ID,
		"consecutive_errors", monitor.ConsecutiveErrors,
		"state", monitor.Health(),
		"retry_in", delay)
}
