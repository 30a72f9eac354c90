// Package client implements the live rendering target.
//
// Mount compiles a template against a scope whose values may be
// reactive cells and installs the produced node tree at an anchor. The
// build runs inside an effect, so every cell read while building
// becomes a dependency of the next re-render: any later write re-runs
// the build and replaces the mounted tree wholesale. There is no
// partial patching.
package client
