// File: internal/cache/feed.go
package cache

import (
	"sync"

	"github.com/hdtickets/ticket-monitor/internal/models"
)

// ChangeFeed retains the most recent change events in memory, newest
// first, so the API can serve a live activity feed without touching
// storage.
type ChangeFeed struct {
	mu     sync.RWMutex
	events []*models.ChangeEvent
	size   int
}

// NewChangeFeed creates a feed that retains up to size events
func NewChangeFeed(size int) *ChangeFeed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &ChangeFeed{
		events: make([]*models.ChangeEvent, 0, size),
		size:   size,
	}
}

// Add pushes events onto the feed, evicting the oldest past capacity
func (f *ChangeFeed) Add(events ...*models.ChangeEvent) {
	if len(events) == 0 {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, event := range events {
		f.events = append(f.events, event)
	}
	if overflow := len(f.events) - f.size; overflow > 0 {
		f.events = f.events[overflow:]
	}
}

// Recent returns up to limit events, newest first. A non-positive limit
// returns the whole feed.
func (f *ChangeFeed) Recent(limit int) []*models.ChangeEvent {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if limit <= 0 || limit > len(f.events) {
		limit = len(f.events)
	}

	recent := make([]*models.ChangeEvent, 0, limit)
	for i := len(f.events) - 1; i >= len(f.events)-limit; i-- {
		recent = append(recent, f.events[i])
	}
	return recent
}

// Len returns the number of retained events
func (f *ChangeFeed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.events)
}
