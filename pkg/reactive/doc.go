// Package reactive implements the fine-grained reactive core of Weft.
//
// The primitives are:
//
//   - Cell[T]: an observable value container. Reads performed while a
//     computation is running subscribe that computation to the cell.
//   - Effect: a side-effecting computation that runs immediately and
//     re-runs whenever any cell it read changes.
//   - Computed[T]: a lazily cached derived value that invalidates when
//     its dependencies change and recomputes on the next read.
//   - Watcher: re-evaluates a source function and invokes a callback
//     with the new and old values when they differ.
//
// Notification is synchronous and unbatched: a Cell.Set returns only
// after every subscribed computation has re-run. Batch groups several
// writes into a single deduplicated notification phase.
//
// Dependency tracking uses a per-goroutine tracking context, so
// computations running on different goroutines never observe each
// other's tracking state.
package reactive
