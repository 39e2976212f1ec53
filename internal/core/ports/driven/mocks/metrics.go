package mocks

import (
	"context"
	"sync"
)

// MockMetricsSink records counter increments for testing
type MockMetricsSink struct {
	mu       sync.Mutex
	counters map[string]int
}

// NewMockMetricsSink creates a new MockMetricsSink
func NewMockMetricsSink() *MockMetricsSink {
	return &MockMetricsSink{counters: make(map[string]int)}
}

func (m *MockMetricsSink) Incr(ctx context.Context, counter string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[counter]++
}

// Count returns the recorded value for a counter.
func (m *MockMetricsSink) Count(counter string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[counter]
}
