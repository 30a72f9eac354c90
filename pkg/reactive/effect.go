package reactive

import (
	"sync"
	"sync/atomic"
)

// Effect is a reactive side effect that re-runs when its dependencies
// change. The effect function runs once at creation to establish its
// subscriptions; any later write to a cell it read re-runs it
// synchronously. The subscription set is rebuilt from scratch on every
// run, so dependencies dropped by a branch change stop re-triggering it.
type Effect struct {
	id uint64

	// fn is the effect body. It may return a Cleanup that runs before
	// the next re-run and on Dispose.
	fn func() Cleanup

	// cleanup is the Cleanup from the last run.
	cleanup Cleanup

	// sources are the cells this effect currently subscribes to.
	sources   []*cellBase
	sourcesMu sync.Mutex

	// disposed marks the effect as dead; Invalidate becomes a no-op.
	disposed atomic.Bool
}

// NewEffect creates the effect and runs fn immediately.
// A panic inside fn propagates to the caller; the tracking context is
// restored on the way out.
func NewEffect(fn func() Cleanup) *Effect {
	e := &Effect{
		id: nextID(),
		fn: fn,
	}
	e.run()
	return e
}

// Invalidate re-runs the effect. Implements Computation.
// Called synchronously from Cell.Set, so a write inside an effect body
// can re-enter another effect before the write returns.
func (e *Effect) Invalidate() {
	if e.disposed.Load() {
		return
	}
	e.run()
}

// ID implements Computation.
func (e *Effect) ID() uint64 {
	return e.id
}

// run executes the effect body with tracking installed.
func (e *Effect) run() {
	if e.disposed.Load() {
		return
	}

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}

	// Drop all previous subscriptions; the run below re-tracks from
	// scratch.
	e.sourcesMu.Lock()
	for _, src := range e.sources {
		src.unsubscribe(e)
	}
	e.sources = e.sources[:0]
	e.sourcesMu.Unlock()

	old := setCurrentComputation(e)
	defer setCurrentComputation(old)

	e.cleanup = e.fn()
}

// addSource records a cell subscription for cleanup before the next run.
// Called by cells read during the effect body.
func (e *Effect) addSource(src *cellBase) {
	e.sourcesMu.Lock()
	defer e.sourcesMu.Unlock()

	for _, s := range e.sources {
		if s == src {
			return
		}
	}
	e.sources = append(e.sources, src)
}

// Dispose runs the pending cleanup and unsubscribes the effect from
// every cell it read. The effect never runs again.
func (e *Effect) Dispose() {
	if e.disposed.Swap(true) {
		return
	}

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}

	e.sourcesMu.Lock()
	for _, src := range e.sources {
		src.unsubscribe(e)
	}
	e.sources = nil
	e.sourcesMu.Unlock()
}

var _ Computation = (*Effect)(nil)
