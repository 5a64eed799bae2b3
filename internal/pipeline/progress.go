package pipeline

import (
	"sync"

	"github.com/wonny/aegis-screener/internal/contracts"
)

// ProgressTracker holds the latest ProgressState of one orchestrator.
// Writers replace the whole state; readers get copies.
// ⭐ SSOT: 진행 상태는 오케스트레이터 인스턴스가 소유 (전역 없음)
type ProgressTracker struct {
	mu      sync.RWMutex
	state   contracts.ProgressState
	version uint64
	changed chan struct{}
}

// NewProgressTracker creates a tracker in the idle state
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{
		state:   contracts.IdleProgress(),
		changed: make(chan struct{}),
	}
}

// Set replaces the state and wakes every watcher
func (t *ProgressTracker) Set(state contracts.ProgressState) {
	t.mu.Lock()
	t.state = state
	t.version++
	close(t.changed)
	t.changed = make(chan struct{})
	t.mu.Unlock()
}

// Update applies fn to a copy of the current state and stores the result
func (t *ProgressTracker) Update(fn func(*contracts.ProgressState)) {
	t.mu.Lock()
	next := t.state
	fn(&next)
	t.state = next
	t.version++
	close(t.changed)
	t.changed = make(chan struct{})
	t.mu.Unlock()
}

// Snapshot returns a copy of the current state
func (t *ProgressTracker) Snapshot() contracts.ProgressState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Watch returns the current state, its version and a channel closed on
// the next change.
func (t *ProgressTracker) Watch() (contracts.ProgressState, uint64, <-chan struct{}) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state, t.version, t.changed
}

// Reset returns the tracker to idle
func (t *ProgressTracker) Reset() {
	t.Set(contracts.IdleProgress())
}
