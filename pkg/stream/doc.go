// Package stream implements progressive rendering of documents that
// contain suspense regions.
//
// A request walks four states: suspense nodes are collected while the
// shell renders (fallbacks inline, everything else rendered normally);
// the shell is written and flushed first; each deferred fragment
// renders concurrently and is written as a replacement chunk the
// moment it completes, in completion order; the closing markup is
// written only after every fragment has settled.
//
// Each chunk pairs an inert content holder with an activation
// instruction referencing the boundary id, so out-of-order arrival
// cannot mispair content. A fragment that fails renders an inline
// error placeholder instead of aborting the stream, and flags the
// response as non-cacheable; a dropped connection discards remaining
// output and flags the response likewise.
package stream
