package ratelimit

import (
	"context"
	"sync"
	"time"
)

type record struct {
	count int
	last  time.Time
}

// Memory is a process-local Limiter. State is lost on restart.
type Memory struct {
	policy Policy
	now    func() time.Time

	mu      sync.Mutex
	records map[string]*record
}

// MemoryOption customizes a Memory limiter.
type MemoryOption func(*Memory)

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory constructs an in-memory limiter for policy.
func NewMemory(policy Policy, opts ...MemoryOption) *Memory {
	m := &Memory{
		policy:  policy.normalized(),
		now:     time.Now,
		records: make(map[string]*record),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IsLimited evicts an expired record and reports whether the remaining
// count has reached the ceiling.
func (m *Memory) IsLimited(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return false, nil
	}
	if m.expired(rec) {
		delete(m.records, key)
		return false, nil
	}
	return rec.count >= m.policy.MaxAttempts, nil
}

// RecordAttempt increments the counter for key and refreshes its timestamp.
func (m *Memory) RecordAttempt(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	rec, ok := m.records[key]
	if !ok || m.expired(rec) {
		m.records[key] = &record{count: 1, last: now}
		return nil
	}
	rec.count++
	rec.last = now
	return nil
}

// Clear removes the record for key.
func (m *Memory) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.records, key)
	m.mu.Unlock()
	return nil
}

// Sweep evicts every expired record and returns how many were removed.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, rec := range m.records {
		if m.expired(rec) {
			delete(m.records, key)
			removed++
		}
	}
	return removed
}

// Run sweeps expired records every interval until ctx is done.
func (m *Memory) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = m.policy.Window
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Len returns the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *Memory) expired(rec *record) bool {
	return m.now().Sub(rec.last) > m.policy.Window
}
