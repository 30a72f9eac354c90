package dom

import (
	"fmt"
	"sort"
	"strings"
)

// NodeKind is the node type discriminator.
type NodeKind uint8

const (
	KindElement NodeKind = iota
	KindText
	KindFragment
)

// String returns the string representation of the NodeKind.
func (k NodeKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	default:
		return "Unknown"
	}
}

// Event is a dispatched interface event.
type Event struct {
	Type    string
	Target  *Node
	Payload any
}

// Handler handles a dispatched event.
type Handler func(Event)

// Node is one live interface node.
type Node struct {
	Kind     NodeKind
	Tag      string
	Attrs    map[string]any
	Style    map[string]string
	Children []*Node
	Text     string
	Parent   *Node

	listeners map[string][]Handler
}

// Element creates an element node.
func Element(tag string, children ...*Node) *Node {
	n := &Node{Kind: KindElement, Tag: tag}
	for _, c := range children {
		n.Append(c)
	}
	return n
}

// Text creates a text node.
func Text(content string) *Node {
	return &Node{Kind: KindText, Text: content}
}

// Fragment groups children without a wrapper element.
func Fragment(children ...*Node) *Node {
	n := &Node{Kind: KindFragment}
	for _, c := range children {
		n.Append(c)
	}
	return n
}

// Append adds a child and fixes its parent pointer. nil children are
// ignored so callers can append conditional results directly.
func (n *Node) Append(c *Node) {
	if c == nil {
		return
	}
	c.Parent = n
	n.Children = append(n.Children, c)
}

// SetAttr sets an attribute. A nil value removes it.
func (n *Node) SetAttr(name string, value any) {
	if value == nil {
		delete(n.Attrs, name)
		return
	}
	if n.Attrs == nil {
		n.Attrs = make(map[string]any)
	}
	n.Attrs[name] = value
}

// Attr returns an attribute value, or nil.
func (n *Node) Attr(name string) any {
	return n.Attrs[name]
}

// SetStyle sets one inline style property.
func (n *Node) SetStyle(prop, value string) {
	if n.Style == nil {
		n.Style = make(map[string]string)
	}
	n.Style[prop] = value
}

// On attaches an event listener.
func (n *Node) On(event string, h Handler) {
	if h == nil {
		return
	}
	if n.listeners == nil {
		n.listeners = make(map[string][]Handler)
	}
	n.listeners[event] = append(n.listeners[event], h)
}

// Dispatch fires an event at this node, invoking its listeners in
// attach order.
func (n *Node) Dispatch(event string, payload any) {
	for _, h := range n.listeners[event] {
		h(Event{Type: event, Target: n, Payload: payload})
	}
}

// HasListener reports whether any listener is attached for event.
func (n *Node) HasListener(event string) bool {
	return len(n.listeners[event]) > 0
}

// Find returns the first element in the subtree with the given tag,
// depth-first, or nil.
func (n *Node) Find(tag string) *Node {
	if n == nil {
		return nil
	}
	if n.Kind == KindElement && n.Tag == tag {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(tag); found != nil {
			return found
		}
	}
	return nil
}

// TextContent concatenates all text in the subtree.
func (n *Node) TextContent() string {
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	if n == nil {
		return
	}
	if n.Kind == KindText {
		b.WriteString(n.Text)
		return
	}
	for _, c := range n.Children {
		c.writeText(b)
	}
}

// String renders a debug representation of the subtree. Attributes are
// sorted for stable output; this is for inspection and tests, not for
// serving markup.
func (n *Node) String() string {
	var b strings.Builder
	n.debugWrite(&b)
	return b.String()
}

func (n *Node) debugWrite(b *strings.Builder) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindText:
		b.WriteString(n.Text)
	case KindFragment:
		for _, c := range n.Children {
			c.debugWrite(b)
		}
	case KindElement:
		b.WriteByte('<')
		b.WriteString(n.Tag)

		keys := make([]string, 0, len(n.Attrs))
		for k := range n.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(b, " %s=%q", k, fmt.Sprintf("%v", n.Attrs[k]))
		}

		if len(n.Style) > 0 {
			props := make([]string, 0, len(n.Style))
			for p := range n.Style {
				props = append(props, p)
			}
			sort.Strings(props)
			b.WriteString(` style="`)
			for i, p := range props {
				if i > 0 {
					b.WriteByte(';')
				}
				b.WriteString(p)
				b.WriteByte(':')
				b.WriteString(n.Style[p])
			}
			b.WriteByte('"')
		}

		b.WriteByte('>')
		for _, c := range n.Children {
			c.debugWrite(b)
		}
		b.WriteString("</")
		b.WriteString(n.Tag)
		b.WriteByte('>')
	}
}
