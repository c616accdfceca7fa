package usecase

import (
	"strings"
	"sync"
	"time"

	"aviratoDash/internal/modules/reservations/domain"
)

const cacheDelimiter = ":"

// snapshotCache keeps enriched listings per site and window for the
// lifetime of the session. Nothing is persisted.
type snapshotCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]map[string]*snapshotCacheEntry
}

type snapshotCacheEntry struct {
	snapshot  *Snapshot
	fetchedAt time.Time
}

func newSnapshotCache(ttl time.Duration) *snapshotCache {
	return &snapshotCache{ttl: ttl, now: time.Now, entries: make(map[string]map[string]*snapshotCacheEntry)}
}

func (c *snapshotCache) set(siteCode string, window domain.Window, snapshot *Snapshot) {
	siteCode = strings.TrimSpace(siteCode)
	if siteCode == "" || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[siteCode] == nil {
		c.entries[siteCode] = make(map[string]*snapshotCacheEntry)
	}
	c.entries[siteCode][cacheEntryKey(window)] = &snapshotCacheEntry{snapshot: snapshot, fetchedAt: c.now()}
}

func (c *snapshotCache) get(siteCode string, window domain.Window) (*Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	site := c.entries[strings.TrimSpace(siteCode)]
	if site == nil {
		return nil, false
	}
	entry, ok := site[cacheEntryKey(window)]
	if !ok || c.now().Sub(entry.fetchedAt) > c.ttl {
		return nil, false
	}
	return entry.snapshot, true
}

// invalidate drops every window cached for siteCode. A blank site drops all.
func (c *snapshotCache) invalidate(siteCode string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	siteCode = strings.TrimSpace(siteCode)
	if siteCode == "" {
		n := 0
		for _, site := range c.entries {
			n += len(site)
		}
		c.entries = make(map[string]map[string]*snapshotCacheEntry)
		return n
	}
	n := len(c.entries[siteCode])
	delete(c.entries, siteCode)
	return n
}

func cacheEntryKey(window domain.Window) string {
	return window.Start.String() + cacheDelimiter + window.End.String()
}
