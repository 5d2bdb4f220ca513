// File: internal/cache/cache.go
package cache

import (
	"sync"
	"time"

	"github.com/hdtickets/ticket-monitor/internal/metrics"
	"github.com/hdtickets/ticket-monitor/internal/models"
)

const (
	// DefaultSummaryTTL bounds how stale a cached summary may be served
	DefaultSummaryTTL = 60 * time.Second

	// DefaultFeedSize is the number of recent change events retained
	DefaultFeedSize = 50
)

// summaryEntry is one cached event summary with its expiry
type summaryEntry struct {
	summary   *models.EventSummary
	expiresAt time.Time
}

// SummaryCache holds the freshest per-event summaries for fast reads.
// Entries expire after the TTL and are replaced whenever a monitoring
// cycle produces new data, so API reads never trigger a platform fetch.
type SummaryCache struct {
	mu      sync.RWMutex
	entries map[string]summaryEntry
	ttl     time.Duration

	metricsManager *metrics.Manager
}

// NewSummaryCache creates a summary cache with the given TTL
func NewSummaryCache(ttl time.Duration, metricsManager *metrics.Manager) *SummaryCache {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	return &SummaryCache{
		entries:        make(map[string]summaryEntry),
		ttl:            ttl,
		metricsManager: metricsManager,
	}
}

// Put stores the summary for an event, resetting its TTL
func (c *SummaryCache) Put(eventID string, summary *models.EventSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[eventID] = summaryEntry{
		summary:   summary,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Get returns the cached summary for an event, or nil if absent or expired
func (c *SummaryCache) Get(eventID string) *models.EventSummary {
	c.mu.RLock()
	entry, ok := c.entries[eventID]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		c.recordMiss()
		return nil
	}

	c.recordHit()
	return entry.summary
}

// Invalidate drops the cached summary for an event
func (c *SummaryCache) Invalidate(eventID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, eventID)
}

// Prune removes expired entries. Called periodically by the service loop.
func (c *SummaryCache) Prune() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for eventID, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, eventID)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries, including any not yet pruned
func (c *SummaryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *SummaryCache) recordHit() {
	if c.metricsManager != nil {
		c.metricsManager.GetPrometheusMetrics().RecordCacheHit("summary")
	}
}

func (c *SummaryCache) recordMiss() {
	if c.metricsManager != nil {
		c.metricsManager.GetPrometheusMetrics().RecordCacheMiss("summary")
	}
}
