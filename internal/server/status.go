package server

import (
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/dan/depara/internal/dashboard"
	"github.com/dan/depara/internal/depara"
)

// ── Snapshot Cache ──────────────────────────────────────────────────────

// TenantStatus is the refresh state of one tenant database.
type TenantStatus struct {
	Tenant      string        `json:"tenant"`
	Status      string        `json:"status"` // "ready", "loading", "error"
	Error       string        `json:"error,omitempty"`
	CheckedAt   time.Time     `json:"checked_at"`
	Latency     time.Duration `json:"latency"`
	ConsecFails int           `json:"consec_fails"`
}

// snapshotCache keeps the latest snapshot and refresh status per tenant,
// safe for concurrent reads and writes.
type snapshotCache struct {
	mu        sync.RWMutex
	snapshots map[string]*depara.Snapshot
	statuses  map[string]*TenantStatus
}

func newSnapshotCache() *snapshotCache {
	return &snapshotCache{
		snapshots: make(map[string]*depara.Snapshot),
		statuses:  make(map[string]*TenantStatus),
	}
}

// Put stores a fresh snapshot and marks the tenant ready.
func (c *snapshotCache) Put(snap *depara.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[snap.Tenant] = snap
	c.statuses[snap.Tenant] = &TenantStatus{
		Tenant:    snap.Tenant,
		Status:    "ready",
		CheckedAt: snap.CollectedAt,
		Latency:   snap.Duration,
	}
}

// Fail records a failed refresh. The previous snapshot, if any, is kept.
func (c *snapshotCache) Fail(tenant string, err error) *TenantStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	fails := 1
	if prev := c.statuses[tenant]; prev != nil {
		fails = prev.ConsecFails + 1
	}
	st := &TenantStatus{
		Tenant:      tenant,
		Status:      "error",
		Error:       err.Error(),
		CheckedAt:   time.Now().UTC(),
		ConsecFails: fails,
	}
	c.statuses[tenant] = st
	return st
}

// MarkLoading flags a tenant as loading. It reports false when a load is
// already in flight.
func (c *snapshotCache) MarkLoading(tenant string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st := c.statuses[tenant]; st != nil && st.Status == "loading" {
		return false
	}
	fails := 0
	if prev := c.statuses[tenant]; prev != nil {
		fails = prev.ConsecFails
	}
	c.statuses[tenant] = &TenantStatus{
		Tenant:      tenant,
		Status:      "loading",
		CheckedAt:   time.Now().UTC(),
		ConsecFails: fails,
	}
	return true
}

// Get returns the cached snapshot of a tenant.
func (c *snapshotCache) Get(tenant string) (*depara.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.snapshots[tenant]
	return snap, ok
}

// Lookup adapts Get to a dashboard.SourceLookup.
func (c *snapshotCache) Lookup(tenant string) dashboard.SourceLookup {
	return func() (dashboard.Source, bool) {
		snap, ok := c.Get(tenant)
		if !ok {
			return nil, false
		}
		return snap, true
	}
}

// Status returns the refresh status of a tenant (nil if never refreshed).
func (c *snapshotCache) Status(tenant string) *TenantStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statuses[tenant]
}

// Statuses returns a copy of all statuses.
func (c *snapshotCache) Statuses() map[string]*TenantStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.statuses)
}

// Len is the number of cached snapshots.
func (c *snapshotCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snapshots)
}

// ── Activity Log ────────────────────────────────────────────────────────

// ActivityEvent represents a single entry in the activity log.
type ActivityEvent struct {
	Time    time.Time `json:"time"`
	Tenant  string    `json:"tenant"`
	Type    string    `json:"type"` // "info", "success", "error", "warning"
	Message string    `json:"message"`
}

// activityLog is a thread-safe ring buffer of recent events.
type activityLog struct {
	mu     sync.RWMutex
	events []ActivityEvent
	cap    int
	seq    int64 // monotonic sequence for change detection
}

func newActivityLog(capacity int) *activityLog {
	return &activityLog{
		events: make([]ActivityEvent, 0, capacity),
		cap:    capacity,
	}
}

// Add appends an event, evicting the oldest if at capacity.
func (al *activityLog) Add(e ActivityEvent) {
	al.mu.Lock()
	defer al.mu.Unlock()
	if len(al.events) >= al.cap {
		al.events = al.events[1:]
	}
	al.events = append(al.events, e)
	al.seq++
}

// Recent returns up to n most recent events (newest first).
func (al *activityLog) Recent(n int) []ActivityEvent {
	al.mu.RLock()
	defer al.mu.RUnlock()

	total := len(al.events)
	n = min(n, total)
	out := make([]ActivityEvent, n)
	for i := range n {
		out[i] = al.events[total-1-i]
	}
	return out
}

// Seq returns the current sequence number so pollers can tell whether new
// events arrived.
func (al *activityLog) Seq() int64 {
	al.mu.RLock()
	defer al.mu.RUnlock()
	return al.seq
}

// Logf creates and adds an event.
func (al *activityLog) Logf(tenant, eventType, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	al.Add(ActivityEvent{
		Time:    time.Now().UTC(),
		Tenant:  tenant,
		Type:    eventType,
		Message: msg,
	})
}
