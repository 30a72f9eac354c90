// Package dom provides the live node tree used by the client renderer.
//
// Unlike the immutable template tree, these nodes are addressable and
// mutable: attributes and inline styles can be set, event listeners
// attached, and events dispatched. An Anchor is a mount point whose
// subtree is replaced wholesale on every re-render.
package dom
