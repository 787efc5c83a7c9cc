package protocol

import "sync"

// StageMachine tracks, for a single peer, which stages are pending,
// in_progress, or complete. Owned by exactly one SyncDriver instance and
// never consulted after that driver resolves.
type StageMachine struct {
	mu         sync.Mutex
	inProgress map[Stage]struct{}
	complete   map[Stage]struct{}
}

// NewStageMachine returns a machine with every stage absent.
func NewStageMachine() *StageMachine {
	return &StageMachine{
		inProgress: make(map[Stage]struct{}),
		complete:   make(map[Stage]struct{}),
	}
}

// Begin transitions a stage absent -> in_progress. A stage already
// complete is never re-entered: complete is monotone.
func (m *StageMachine) Begin(s Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, done := m.complete[s]; done {
		return
	}
	m.inProgress[s] = struct{}{}
}

// Complete transitions a stage in_progress -> complete.
func (m *StageMachine) Complete(s Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inProgress, s)
	m.complete[s] = struct{}{}
}

// IsInProgress reports whether s is currently in_progress.
func (m *StageMachine) IsInProgress(s Stage) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.inProgress[s]
	return ok
}

// IsComplete reports whether s has been completed.
func (m *StageMachine) IsComplete(s Stage) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.complete[s]
	return ok
}
