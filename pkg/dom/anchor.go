package dom

import "sync"

// Anchor is a mount point. Mount replaces the current subtree
// wholesale; there is no partial patching.
type Anchor struct {
	mu      sync.Mutex
	current *Node
}

// NewAnchor creates an empty anchor.
func NewAnchor() *Anchor {
	return &Anchor{}
}

// Mount installs n as the anchor's subtree, replacing whatever was
// mounted before. Mounting nil clears the anchor.
func (a *Anchor) Mount(n *Node) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = n
}

// Current returns the mounted subtree, or nil.
func (a *Anchor) Current() *Node {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}
