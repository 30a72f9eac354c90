package reactive

import (
	"sync"
	"sync/atomic"
)

// Computed is a cached derived value. The getter runs lazily on first
// read; a dependency change invalidates the cache (without recomputing)
// and propagates to anything subscribed to the computed value itself,
// so chains of derived values work.
//
// Reading twice without an intervening dependency write returns the
// cached value both times without re-invoking the getter.
type Computed[T any] struct {
	base cellBase

	// getter computes the value.
	getter func() T

	// value is the cached result.
	value   T
	valueMu sync.RWMutex

	// valid reports whether the cached value is current.
	valid atomic.Bool

	// sources are the cells this computed currently subscribes to.
	sources   []*cellBase
	sourcesMu sync.Mutex

	// recomputing guards against re-entrant recomputation through a
	// dependency cycle.
	recomputing atomic.Bool
}

// NewComputed creates a computed value. The getter does not run until
// the first Get.
func NewComputed[T any](getter func() T) *Computed[T] {
	return &Computed[T]{
		base: cellBase{
			id: nextID(),
		},
		getter: getter,
	}
}

// Get returns the computed value, recomputing only if a dependency has
// changed since the last read. Subscribes the running computation.
func (c *Computed[T]) Get() T {
	c.base.track()

	if !c.valid.Load() {
		c.recompute()
	}

	c.valueMu.RLock()
	value := c.value
	c.valueMu.RUnlock()
	return value
}

// Peek returns the value without subscribing. Still recomputes if the
// cached value is invalid.
func (c *Computed[T]) Peek() T {
	if !c.valid.Load() {
		c.recompute()
	}
	c.valueMu.RLock()
	value := c.value
	c.valueMu.RUnlock()
	return value
}

// Invalidate drops the cached value and propagates to subscribers.
// Implements Computation.
func (c *Computed[T]) Invalidate() {
	// CAS keeps the marking idempotent: repeated dependency writes
	// between reads propagate only once.
	if c.valid.CompareAndSwap(true, false) {
		c.base.notify()
	}
}

// ID implements Computation.
func (c *Computed[T]) ID() uint64 {
	return c.base.id
}

// Load returns the current value as an any, subscribing the running
// computation. It satisfies the type-erased loader interface the
// template evaluator uses to unwrap reactive scope values.
func (c *Computed[T]) Load() any {
	return c.Get()
}

// addSource records a cell subscription for cleanup before the next
// recompute.
func (c *Computed[T]) addSource(src *cellBase) {
	c.sourcesMu.Lock()
	defer c.sourcesMu.Unlock()

	for _, s := range c.sources {
		if s == src {
			return
		}
	}
	c.sources = append(c.sources, src)
}

// recompute runs the getter with tracking installed and refreshes the
// cache. The subscription set is rebuilt from scratch.
func (c *Computed[T]) recompute() {
	if c.recomputing.Swap(true) {
		return
	}
	defer c.recomputing.Store(false)

	c.sourcesMu.Lock()
	for _, src := range c.sources {
		src.unsubscribe(c)
	}
	c.sources = c.sources[:0]
	c.sourcesMu.Unlock()

	old := setCurrentComputation(c)
	newValue := c.getter()
	setCurrentComputation(old)

	c.valueMu.Lock()
	c.value = newValue
	c.valueMu.Unlock()

	c.valid.Store(true)
}

var _ Computation = (*Computed[int])(nil)
var _ sourceTracker = (*Computed[int])(nil)
