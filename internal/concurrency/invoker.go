// Package concurrency provides the outer-task spawn abstraction every
// peer's sync driver runs under, and the in-memory leak-safe variant
// used by tests.
package concurrency

import "sync"

// Invoker spawns a logical task. One peer's SyncDriver runs as exactly
// one Invoker.Spawn call; structured fan-out *within* a stage uses
// errgroup.Group instead, never another top-level Spawn.
type Invoker interface {
	Spawn(f func())
}

// goroutineInvoker is the production Invoker: every Spawn is a bare
// goroutine. There is nothing to join — a spawned function that needs to
// report an outcome (e.g. SyncDriver.Run's returned error) handles it
// itself, not through the Invoker.
type goroutineInvoker struct{}

var instance Invoker = goroutineInvoker{}

// Instance returns the process-wide production Invoker.
func Instance() Invoker { return instance }

func (goroutineInvoker) Spawn(f func()) { go f() }

// WaitGroupInvoker is a test Invoker that tracks every spawned task so
// tests can block until all of them have returned before asserting on
// goroutine leaks.
type WaitGroupInvoker struct {
	group sync.WaitGroup
}

// NewWaitGroupInvoker builds a fresh, empty WaitGroupInvoker.
func NewWaitGroupInvoker() *WaitGroupInvoker {
	return &WaitGroupInvoker{}
}

func (w *WaitGroupInvoker) Spawn(f func()) {
	w.group.Add(1)
	go func() {
		defer w.group.Done()
		f()
	}()
}

// Wait blocks until every task spawned through this invoker has
// returned, so a goroutine-leak check can follow it.
func (w *WaitGroupInvoker) Wait() {
	w.group.Wait()
}
