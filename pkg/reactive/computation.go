package reactive

// Computation is anything that can be notified when a cell it read changes.
// Implemented by effects, computed values, and watchers.
type Computation interface {
	// Invalidate notifies the computation that one of its dependencies
	// has changed. Effects re-run synchronously; computed values drop
	// their cached value and recompute on the next read.
	Invalidate()

	// ID returns a unique identifier for this computation.
	// Used for deduplication during batch processing.
	ID() uint64
}

// Cleanup is a function returned by effects (or registered by watcher
// callbacks) to release resources. It runs before the owning computation
// re-runs and when the computation is disposed.
type Cleanup func()

// sourceTracker is implemented by computations that record which cells
// they subscribed to during a run, so the subscriptions can be dropped
// before the next run.
type sourceTracker interface {
	addSource(src *cellBase)
}
