package control_test

import (
	"sync"
	"testing"

	"github.com/momentics/twitterstream/control"
)

func TestMetricsSetAndSnapshot(t *testing.T) {
	m := control.NewMetrics()
	m.Set("state", "streaming")
	m.Inc("messages_emitted", 2)
	m.Inc("messages_emitted", 3)

	snap := m.GetSnapshot()
	if snap["state"] != "streaming" {
		t.Errorf("state = %v", snap["state"])
	}
	if m.Counter("messages_emitted") != 5 {
		t.Errorf("counter = %d", m.Counter("messages_emitted"))
	}
	if m.Updated().IsZero() {
		t.Error("updated timestamp not recorded")
	}

	// Snapshot is a copy, not a view.
	snap["state"] = "mutated"
	if m.GetSnapshot()["state"] != "streaming" {
		t.Error("snapshot mutation leaked into registry")
	}
}

func TestMetricsConcurrent(t *testing.T) {
	m := control.NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Inc("bytes_received", 1)
			}
		}()
	}
	wg.Wait()
	if got := m.Counter("bytes_received"); got != 800 {
		t.Errorf("bytes_received = %d", got)
	}
}
