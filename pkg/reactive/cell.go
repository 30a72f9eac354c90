package reactive

import (
	"reflect"
	"sync"
)

// cellBase provides type-erased subscriber management.
// It is embedded in Cell[T] and Computed[T] to share subscription logic.
type cellBase struct {
	id uint64

	// subs are the computations subscribed to this cell.
	subs []Computation

	// subMu protects the subs slice.
	subMu sync.RWMutex
}

// subscribe adds a computation to this cell's subscribers.
// Deduplicates by computation ID to prevent double-subscription.
func (b *cellBase) subscribe(c Computation) {
	if c == nil {
		return
	}

	b.subMu.Lock()
	defer b.subMu.Unlock()

	cid := c.ID()
	for _, existing := range b.subs {
		if existing.ID() == cid {
			return
		}
	}

	b.subs = append(b.subs, c)
}

// unsubscribe removes a computation from this cell's subscribers.
func (b *cellBase) unsubscribe(c Computation) {
	if c == nil {
		return
	}

	b.subMu.Lock()
	defer b.subMu.Unlock()

	cid := c.ID()
	for i, existing := range b.subs {
		if existing.ID() == cid {
			b.subs[i] = b.subs[len(b.subs)-1]
			b.subs = b.subs[:len(b.subs)-1]
			return
		}
	}
}

// notify tells all subscribers that this cell changed. Subscribers are
// copied out before notification so a re-run that resubscribes does not
// deadlock against the subscriber lock. Outside a batch, notification is
// synchronous: every subscriber has re-run before notify returns.
func (b *cellBase) notify() {
	b.subMu.RLock()
	subs := make([]Computation, len(b.subs))
	copy(subs, b.subs)
	b.subMu.RUnlock()

	if batchDepth() > 0 {
		for _, sub := range subs {
			queuePending(sub)
		}
		return
	}

	for _, sub := range subs {
		sub.Invalidate()
	}
}

// track subscribes the currently running computation, if any, and records
// the subscription on the computation for cleanup before its next run.
func (b *cellBase) track() {
	c := currentComputation()
	if c == nil {
		return
	}
	b.subscribe(c)
	if t, ok := c.(sourceTracker); ok {
		t.addSource(b)
	}
}

// Cell is an observable value container. Reading a Cell's value during a
// running computation (effect body, computed getter, watcher source)
// automatically subscribes that computation to the cell.
//
// A primitive and a struct value are held the same way: the cell itself is
// the single-field box, so Get/Set is uniform across value shapes.
type Cell[T any] struct {
	base cellBase

	// value is the current cell value.
	value T

	// mu protects the value.
	mu sync.RWMutex

	// equal decides whether a write changed the value. If nil, a
	// type-switched default is used. Writes of an equal value are
	// no-ops and do not notify subscribers.
	equal func(T, T) bool
}

// NewCell creates a cell holding the given initial value.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{
		base: cellBase{
			id: nextID(),
		},
		value: initial,
	}
}

// Get returns the current value and subscribes the running computation,
// if any.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	value := c.value
	c.mu.RUnlock()

	// Track after releasing the value lock to prevent deadlock when a
	// subscriber re-runs synchronously.
	c.base.track()

	return value
}

// Peek returns the current value without subscribing.
func (c *Cell[T]) Peek() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set writes a new value and synchronously re-runs every subscriber.
// Writing a value equal to the current one (per the cell's equality
// function) is a no-op. Two successive Sets of distinct values re-run
// each subscriber twice; there is no implicit coalescing outside Batch.
func (c *Cell[T]) Set(value T) {
	c.mu.Lock()
	changed := !c.equals(c.value, value)
	if changed {
		c.value = value
	}
	c.mu.Unlock()

	if changed {
		c.base.notify()
	}
}

// Update atomically reads and rewrites the cell's value.
func (c *Cell[T]) Update(fn func(T) T) {
	c.mu.Lock()
	oldValue := c.value
	newValue := fn(oldValue)
	changed := !c.equals(oldValue, newValue)
	if changed {
		c.value = newValue
	}
	c.mu.Unlock()

	if changed {
		c.base.notify()
	}
}

// WithEquals configures a custom equality function and returns the cell.
// Useful where reflect.DeepEqual is too expensive or has the wrong
// semantics for the value type.
func (c *Cell[T]) WithEquals(fn func(T, T) bool) *Cell[T] {
	c.equal = fn
	return c
}

// ID returns the unique identifier for this cell.
func (c *Cell[T]) ID() uint64 {
	return c.base.id
}

// Load returns the current value as an any, subscribing the running
// computation. It satisfies the type-erased loader interface the
// template evaluator uses to unwrap reactive scope values.
func (c *Cell[T]) Load() any {
	return c.Get()
}

func (c *Cell[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals provides type-appropriate equality checking: == for the
// common comparable kinds, reflect.DeepEqual for everything else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return reflect.DeepEqual(a, b)
	}
}
