// Package render implements the server-side HTML renderer.
//
// A Renderer walks a parsed template tree depth-first against a plain,
// read-only scope and produces a single markup string. Literal template
// text passes through untouched; interpolated values and bound
// attribute values are escaped. Loop iterations are instantiated into
// fresh output with a child scope per item, so iterations cannot
// observe each other.
//
// The renderer has no live-update capability: a new scope requires a
// fresh walk. Reactive rendering lives in the client package; deferred
// regions are handled by the stream package through the OnSuspense
// hook.
package render
