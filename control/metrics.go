// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for driver-level monitoring.
// Counters are updated from polling goroutines and published by name.

package control

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Counter is a monotonically increasing value safe for concurrent use.
type Counter struct {
	v atomic.Uint64
}

func (c *Counter) Add(n uint64) { c.v.Add(n) }
func (c *Counter) Inc()         { c.v.Add(1) }
func (c *Counter) Load() uint64 { return c.v.Load() }

// MetricsRegistry holds named counters and point-in-time values.
type MetricsRegistry struct {
	mu       sync.RWMutex
	counters map[string]*Counter
	values   map[string]any
	updated  time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters: make(map[string]*Counter),
		values:   make(map[string]any),
	}
}

// Counter returns the counter registered under name, creating it on first
// use. Callers keep the pointer and update it without touching the registry.
func (mr *MetricsRegistry) Counter(name string) *Counter {
	mr.mu.RLock()
	c, ok := mr.counters[name]
	mr.mu.RUnlock()
	if ok {
		return c
	}
	mr.mu.Lock()
	defer mr.mu.Unlock()
	if c, ok = mr.counters[name]; !ok {
		c = &Counter{}
		mr.counters[name] = c
	}
	return c
}

// Set sets or updates a point-in-time value.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.values[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Delete drops a value and a counter registered under key.
func (mr *MetricsRegistry) Delete(key string) {
	mr.mu.Lock()
	delete(mr.values, key)
	delete(mr.counters, key)
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns the current values, counters included.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.values)+len(mr.counters))
	for k, v := range mr.values {
		out[k] = v
	}
	for k, c := range mr.counters {
		out[k] = c.Load()
	}
	return out
}

// Keys returns the sorted names present in the registry.
func (mr *MetricsRegistry) Keys() []string {
	snap := mr.GetSnapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Updated returns the time of the last Set or Delete.
func (mr *MetricsRegistry) Updated() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}
