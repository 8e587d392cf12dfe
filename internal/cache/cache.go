// ABOUTME: In-memory caching of completed analysis reports keyed by fingerprint.
// ABOUTME: Uses per-entry TTL expiration so repeated requests skip the runner fan-out.

package cache

import (
	"sync"
	"time"

	"github.com/tbraun92/contract-sentinel/internal/types"

	"github.com/sirupsen/logrus"
)

// DefaultTTL applies when callers pass a non-positive TTL to Put.
const DefaultTTL = time.Hour

type entry struct {
	report    *types.AnalysisReport
	createdAt time.Time
	expiresAt time.Time
}

// ReportCache stores completed analysis reports keyed by content fingerprint.
// Safe for concurrent use by multiple in-flight analyses; for a shared
// fingerprint the entry written last wins.
type ReportCache struct {
	mutex   sync.RWMutex
	entries map[string]*entry
	logger  *logrus.Logger
}

func NewReportCache(logger *logrus.Logger) *ReportCache {
	c := &ReportCache{
		entries: make(map[string]*entry),
		logger:  logger,
	}

	go c.startCleanup()

	return c
}

// Get returns the cached report for a fingerprint, or nil when absent or
// expired. Expiry is lazy: the cleanup goroutine removes stale entries later.
func (c *ReportCache) Get(key string) *types.AnalysisReport {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, exists := c.entries[key]
	if !exists {
		return nil
	}

	if !time.Now().Before(e.expiresAt) {
		// Don't delete here to avoid a write lock in a read operation
		return nil
	}

	c.logger.WithField("fingerprint", key).Debug("Report cache hit")
	return e.report
}

// Put upserts a report under the given fingerprint. Entries are always
// replaced whole, never mutated in place.
func (c *ReportCache) Put(key string, report *types.AnalysisReport, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = &entry{
		report:    report,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}

	c.logger.WithFields(logrus.Fields{
		"fingerprint": key,
		"ttl":         ttl,
	}).Debug("Cached analysis report")
}

func (c *ReportCache) startCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

func (c *ReportCache) cleanup() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	expiredCount := 0

	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		c.logger.WithFields(logrus.Fields{
			"expired_entries":   expiredCount,
			"remaining_entries": len(c.entries),
		}).Debug("Report cache cleanup completed")
	}
}

// Stats returns the total and expired entry counts.
func (c *ReportCache) Stats() (total int, expired int) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	now := time.Now()
	total = len(c.entries)

	for _, e := range c.entries {
		if now.After(e.expiresAt) {
			expired++
		}
	}

	return total, expired
}
