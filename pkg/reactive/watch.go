package reactive

// WatchOption configures a Watcher.
type WatchOption func(*watchConfig)

type watchConfig struct {
	immediate bool
}

// WatchImmediate makes the callback fire on the first evaluation as
// well, with the zero value of T as the old value.
func WatchImmediate() WatchOption {
	return func(c *watchConfig) {
		c.immediate = true
	}
}

// OnCleanup registers a per-invocation cleanup. It runs before the next
// callback invocation and when the watcher stops. Passed to the watch
// callback so it can tie resources (timers, in-flight requests) to one
// invocation.
type OnCleanup func(Cleanup)

// Watcher re-evaluates a source function inside a computation and
// invokes a callback when the produced value changes.
type Watcher[T any] struct {
	effect  *Effect
	pending Cleanup
}

// Watch evaluates source inside a computation and calls cb with the new
// and old values whenever the result changes (by the default equality
// rules). The first evaluation establishes dependencies without calling
// cb unless WatchImmediate is given.
//
// cb receives an OnCleanup hook; a cleanup registered through it runs
// before the next cb invocation and on Stop. A re-evaluation whose
// result is equal to the previous one invokes neither cb nor the
// pending cleanup.
func Watch[T any](source func() T, cb func(newVal, oldVal T, onCleanup OnCleanup), opts ...WatchOption) *Watcher[T] {
	cfg := watchConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	w := &Watcher[T]{}

	var (
		old   T
		first = true
	)

	invoke := func(newVal, oldVal T) {
		if w.pending != nil {
			w.pending()
			w.pending = nil
		}
		cb(newVal, oldVal, func(c Cleanup) {
			w.pending = c
		})
	}

	w.effect = NewEffect(func() Cleanup {
		newVal := source()

		if first {
			first = false
			old = newVal
			if cfg.immediate {
				var zero T
				invoke(newVal, zero)
			}
			return nil
		}

		if defaultEquals(old, newVal) {
			return nil
		}

		oldVal := old
		old = newVal
		invoke(newVal, oldVal)
		return nil
	})
	return w
}

// Stop disposes the watcher: the pending per-invocation cleanup runs
// and the source's cells are unsubscribed.
func (w *Watcher[T]) Stop() {
	w.effect.Dispose()
	if w.pending != nil {
		w.pending()
		w.pending = nil
	}
}
