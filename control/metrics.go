// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for stream-level monitoring.
// Exposes counters and gauges in a thread-safe map with dynamic
// registration; a registry may be shared by several streams.

package control

import (
	"sync"
	"time"
)

// Metrics holds mutable counters and gauges.
type Metrics struct {
	mu      sync.RWMutex
	values  map[string]any
	updated time.Time
}

// NewMetrics creates an empty registry.
func NewMetrics() *Metrics {
	return &Metrics{
		values: make(map[string]any),
	}
}

// Set sets or updates a gauge key.
func (m *Metrics) Set(key string, value any) {
	m.mu.Lock()
	m.values[key] = value
	m.updated = time.Now()
	m.mu.Unlock()
}

// Inc adds delta to an int64 counter key, creating it as needed.
func (m *Metrics) Inc(key string, delta int64) {
	m.mu.Lock()
	if cur, ok := m.values[key].(int64); ok {
		m.values[key] = cur + delta
	} else {
		m.values[key] = delta
	}
	m.updated = time.Now()
	m.mu.Unlock()
}

// Counter returns the current value of an int64 counter key.
func (m *Metrics) Counter(key string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, _ := m.values[key].(int64)
	return v
}

// GetSnapshot returns a copy of all current values.
func (m *Metrics) GetSnapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]any, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// Updated returns when the registry last changed.
func (m *Metrics) Updated() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updated
}
