package reactive

// Batch groups multiple cell writes into a single notification phase.
// All writes inside fn are collected, deduplicated by computation ID,
// and the affected computations run once when the outermost batch
// completes.
//
// Batches nest; notifications fire only when the outermost batch exits.
//
// Example:
//
//	Batch(func() {
//	    first.Set("Ada")
//	    last.Set("Lovelace")
//	})
//	// Dependent effects run once with both changes visible.
func Batch(fn func()) {
	incrementBatchDepth()

	defer func() {
		if decrementBatchDepth() {
			processPending()
		}
	}()

	fn()
}

// processPending deduplicates and notifies all queued computations.
func processPending() {
	pending := drainPending()
	if len(pending) == 0 {
		return
	}

	seen := make(map[uint64]bool, len(pending))
	unique := make([]Computation, 0, len(pending))

	for _, c := range pending {
		id := c.ID()
		if !seen[id] {
			seen[id] = true
			unique = append(unique, c)
		}
	}

	for _, c := range unique {
		c.Invalidate()
	}
}
