// =============================================================================
// Bulk PAYE - Quota State
// =============================================================================
//
// The monthly submission counter is a tiny piece of durable state:
//
//	{MonthKey: "2026-10", Counter: 2}
//
// It lives behind the Store interface so that the rollover rule can be a pure
// function and tested without timers or storage.
//
// NOTE: reads and writes are not locked. Two sessions sharing a store can
// both pass a check before either consumes. The quota is an abuse deterrent,
// not an access-control boundary, so this is accepted.
//
// =============================================================================

package quota

import (
	"context"
	"sync"
	"time"
)

// State is the persisted quota counter.
type State struct {
	MonthKey string `yaml:"month_key"`
	Counter  int    `yaml:"counter"`
}

// Store reads and writes State.
type Store interface {
	Read(ctx context.Context) (State, error)
	Write(ctx context.Context, s State) error
}

// MonthKey formats t as the calendar month it falls in, e.g. "2026-10".
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// Rollover resets the counter when s belongs to a month other than now's.
// The boolean reports whether anything changed.
func Rollover(s State, now time.Time) (State, bool) {
	key := MonthKey(now)
	if s.MonthKey == key {
		return s, false
	}
	return State{MonthKey: key, Counter: 0}, true
}

// NextReset is the first instant of the month after now, in now's location.
func NextReset(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemoryStore keeps State in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	state State
}

// NewMemoryStore returns a store seeded with s.
func NewMemoryStore(s State) *MemoryStore {
	return &MemoryStore{state: s}
}

func (m *MemoryStore) Read(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

func (m *MemoryStore) Write(ctx context.Context, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	return nil
}
