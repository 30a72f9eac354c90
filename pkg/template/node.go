package template

// Kind is the node type discriminator.
type Kind uint8

const (
	KindText      Kind = iota // Literal text with interpolation parts
	KindElement                // <div>, <button>, etc.
	KindFragment               // Grouping without wrapper
	KindCondGroup              // A v-if / v-else-if / v-else chain
	KindSuspense               // Deferred region with fallback
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindElement:
		return "Element"
	case KindFragment:
		return "Fragment"
	case KindCondGroup:
		return "CondGroup"
	case KindSuspense:
		return "Suspense"
	default:
		return "Unknown"
	}
}

// AttrKind classifies a parsed attribute.
type AttrKind uint8

const (
	AttrStatic AttrKind = iota // plain attribute, literal value
	AttrBound                  // :prop="expr"
	AttrEvent                  // @event="handler"
)

// Attr is one attribute in source order. Bound and event attributes
// carry the parsed expression; Name is the bare name with the : or @
// prefix stripped.
type Attr struct {
	Kind  AttrKind
	Name  string
	Value string // literal value for AttrStatic, source text otherwise
	Expr  Expr   // parsed expression for AttrBound / AttrEvent
}

// TextPart is one span of a text node: either a literal or an
// interpolation expression, never both.
type TextPart struct {
	Literal string
	Expr    Expr
}

// ForClause is a parsed v-for="item in expr" (or "item, i in expr").
type ForClause struct {
	Item  string
	Index string // empty when no index variable was declared
	Seq   Expr
}

// CondBranch is one branch of a conditional chain. Cond is nil for the
// trailing v-else branch.
type CondBranch struct {
	Cond Expr
	Node *Node
}

// Node is one node of a parsed template. Immutable after Parse; both
// renderers instantiate fresh output per walk instead of mutating the
// template.
type Node struct {
	Kind Kind

	// Element fields.
	Tag      string
	Attrs    []Attr
	Children []*Node

	// For is set when the element carried v-for.
	For *ForClause

	// Show is set when the element carried v-show.
	Show Expr

	// Text fields.
	Text  string
	Parts []TextPart

	// CondGroup branches, in source order.
	Branches []CondBranch

	// Suspense fields: Fallback renders into the shell, Content is the
	// deferred region.
	Fallback []*Node
	Content  []*Node
}

// HasDirectives reports whether any element in the subtree carries a
// loop, show, binding, or event directive, or the tree contains a
// conditional group or suspense region.
func (n *Node) HasDirectives() bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case KindCondGroup, KindSuspense:
		return true
	case KindText:
		for _, p := range n.Parts {
			if p.Expr != nil {
				return true
			}
		}
		return false
	}
	if n.For != nil || n.Show != nil {
		return true
	}
	for _, a := range n.Attrs {
		if a.Kind != AttrStatic {
			return true
		}
	}
	for _, c := range n.Children {
		if c.HasDirectives() {
			return true
		}
	}
	return false
}
