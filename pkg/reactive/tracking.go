package reactive

import (
	"runtime"
	"sync"
)

// trackingContext holds the reactive state for one goroutine. Keeping the
// state per goroutine (rather than in a package-level slot) means two
// goroutines rendering concurrently cannot mis-attribute subscriptions.
type trackingContext struct {
	// current is the computation currently tracking dependencies.
	// nil means reads do not create subscriptions.
	current Computation

	// batchDepth tracks nested Batch() calls. When > 0, cell writes
	// queue notifications instead of firing immediately.
	batchDepth int

	// pending accumulates computations to notify when the outermost
	// batch completes. Deduplicated by ID before notification.
	pending []Computation
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// goroutineID extracts the current goroutine's id from the runtime stack
// header ("goroutine <id> ..."). Implementation detail; never exposed.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := 10; i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// getTrackingContext returns the tracking context for the current
// goroutine, creating one if needed.
func getTrackingContext() *trackingContext {
	gid := goroutineID()

	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}

	ctx := &trackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// currentComputation returns the computation currently tracking reads,
// or nil when no tracking is active.
func currentComputation() Computation {
	return getTrackingContext().current
}

// setCurrentComputation installs c as the tracking computation and
// returns the previous one so callers can restore it.
func setCurrentComputation(c Computation) Computation {
	ctx := getTrackingContext()
	old := ctx.current
	ctx.current = c
	return old
}

func batchDepth() int {
	return getTrackingContext().batchDepth
}

func incrementBatchDepth() {
	getTrackingContext().batchDepth++
}

// decrementBatchDepth returns true when the outermost batch completed.
func decrementBatchDepth() bool {
	ctx := getTrackingContext()
	ctx.batchDepth--
	return ctx.batchDepth == 0
}

func queuePending(c Computation) {
	ctx := getTrackingContext()
	ctx.pending = append(ctx.pending, c)
}

func drainPending() []Computation {
	ctx := getTrackingContext()
	pending := ctx.pending
	ctx.pending = nil
	return pending
}

// Untracked runs fn without tracking cell reads as dependencies.
// For single reads, Cell.Peek is the clearer choice.
func Untracked(fn func()) {
	old := setCurrentComputation(nil)
	defer setCurrentComputation(old)
	fn()
}

// WithComputation runs fn with c installed as the tracking computation.
// Used internally by the renderers to establish dependency tracking.
func WithComputation(c Computation, fn func()) {
	old := setCurrentComputation(c)
	defer setCurrentComputation(old)
	fn()
}
