package store

import (
	"sync"
	"time"

	"nickandperla.net/semi/internal/value"
)

// Memory is an in-memory store for testing.
type Memory struct {
	mu     sync.RWMutex
	runs   []Run
	nextID int64
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{nextID: 1}
}

// Record appends a run.
func (m *Memory) Record(run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.ID = m.nextID
	m.nextID++
	stored := *run
	stored.Variables = append([]value.Variable(nil), run.Variables...)
	m.runs = append(m.runs, stored)
	return nil
}

// Recent returns the newest runs first.
func (m *Memory) Recent(limit int) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Run
	for i := len(m.runs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		run := m.runs[i]
		run.Variables = append([]value.Variable(nil), run.Variables...)
		out = append(out, run)
	}
	return out, nil
}

// Prune deletes runs older than before.
func (m *Memory) Prune(before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.runs[:0]
	var removed int64
	for _, r := range m.runs {
		if r.At.Before(before) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	m.runs = kept
	return removed, nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error {
	return nil
}
