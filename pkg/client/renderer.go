package client

import (
	"fmt"

	"github.com/weft-dev/weft/pkg/dom"
	"github.com/weft-dev/weft/pkg/reactive"
	"github.com/weft-dev/weft/pkg/template"
)

// Instance is one mounted template. Disposing it stops re-renders and
// clears the anchor.
type Instance struct {
	effect *reactive.Effect
	anchor *dom.Anchor

	// renders counts completed builds, for tests and diagnostics.
	renders int
}

// Mount builds the template against the scope and installs the result
// at the anchor. Cells read during the build subscribe the renderer;
// any later write rebuilds the whole tree and replaces the mounted
// subtree. An error during the initial build is returned; a panic
// during a re-render propagates to the writer that triggered it, and
// the previously mounted tree stays in place.
func Mount(tmpl *template.Node, scope *template.Scope, anchor *dom.Anchor) (*Instance, error) {
	inst := &Instance{anchor: anchor}

	var initialErr error
	initial := true

	inst.effect = reactive.NewEffect(func() reactive.Cleanup {
		if initial {
			// The first build converts a panic into an error so Mount
			// has a normal failure path.
			defer func() {
				initial = false
				if r := recover(); r != nil {
					initialErr = fmt.Errorf("weft: mount failed: %v", r)
				}
			}()
		}

		tree := buildNodes(tmpl, scope)

		// The anchor is only touched after a complete successful
		// build, so an aborted re-render leaves the old tree mounted.
		root := &dom.Node{Kind: dom.KindFragment}
		for _, n := range tree {
			root.Append(n)
		}
		anchor.Mount(root)
		inst.renders++
		return nil
	})

	if initialErr != nil {
		inst.effect.Dispose()
		return nil, initialErr
	}
	return inst, nil
}

// Renders returns the number of completed builds.
func (i *Instance) Renders() int {
	return i.renders
}

// Unmount stops re-rendering and clears the anchor.
func (i *Instance) Unmount() {
	i.effect.Dispose()
	i.anchor.Mount(nil)
}

// buildNodes builds the live nodes for one template node. A node can
// expand to zero or more output nodes (loops, fragments, conditionals).
func buildNodes(n *template.Node, scope *template.Scope) []*dom.Node {
	if n == nil {
		return nil
	}

	switch n.Kind {
	case template.KindText:
		return buildText(n, scope)

	case template.KindFragment:
		var out []*dom.Node
		for _, c := range n.Children {
			out = append(out, buildNodes(c, scope)...)
		}
		return out

	case template.KindCondGroup:
		for _, b := range n.Branches {
			if b.Cond == nil || template.Truthy(scope.Eval(b.Cond)) {
				return buildNodes(b.Node, scope)
			}
		}
		return nil

	case template.KindSuspense:
		// The live target has no streaming; deferred content renders
		// directly.
		var out []*dom.Node
		for _, c := range n.Content {
			out = append(out, buildNodes(c, scope)...)
		}
		return out

	case template.KindElement:
		return buildElement(n, scope)
	}
	return nil
}

func buildElement(n *template.Node, scope *template.Scope) []*dom.Node {
	if n.For != nil {
		items := template.Sequence(scope.Eval(n.For.Seq))
		var out []*dom.Node
		for i, item := range items {
			vars := map[string]any{n.For.Item: item}
			if n.For.Index != "" {
				vars[n.For.Index] = i
			}
			out = append(out, buildOneElement(n, scope.Child(vars)))
		}
		return out
	}
	return []*dom.Node{buildOneElement(n, scope)}
}

// buildOneElement instantiates a single element: attributes in template
// order, listeners attached, show-state applied, children built.
func buildOneElement(n *template.Node, scope *template.Scope) *dom.Node {
	el := dom.Element(n.Tag)

	for _, a := range n.Attrs {
		switch a.Kind {
		case template.AttrStatic:
			el.SetAttr(a.Name, a.Value)

		case template.AttrBound:
			v := scope.Eval(a.Expr)
			switch tv := v.(type) {
			case nil:
				// absent
			case bool:
				// Booleans toggle presence.
				if tv {
					el.SetAttr(a.Name, true)
				}
			default:
				// Non-boolean results become the live property value,
				// unstringified.
				el.SetAttr(a.Name, v)
			}

		case template.AttrEvent:
			if h := asHandler(scope.Eval(a.Expr)); h != nil {
				el.On(a.Name, h)
			}
		}
	}

	if n.Show != nil && !template.Truthy(scope.Eval(n.Show)) {
		el.SetStyle("display", "none")
	}

	for _, c := range n.Children {
		for _, child := range buildNodes(c, scope) {
			el.Append(child)
		}
	}
	return el
}

// buildText builds text parts, splicing node-valued interpolations
// into the surrounding text position. Anything that is neither a
// primitive nor a node (or node list) is coerced to its string form.
func buildText(n *template.Node, scope *template.Scope) []*dom.Node {
	var out []*dom.Node
	for _, part := range n.Parts {
		if part.Expr == nil {
			out = append(out, dom.Text(part.Literal))
			continue
		}

		switch v := scope.Eval(part.Expr).(type) {
		case nil:
			// empty
		case *dom.Node:
			out = append(out, v)
		case []*dom.Node:
			out = append(out, v...)
		case []any:
			for _, item := range v {
				if node, ok := item.(*dom.Node); ok {
					out = append(out, node)
				} else {
					out = append(out, dom.Text(template.Stringify(item)))
				}
			}
		default:
			out = append(out, dom.Text(template.Stringify(v)))
		}
	}
	return out
}

// asHandler adapts the handler shapes accepted in scopes to a dom
// Handler.
func asHandler(v any) dom.Handler {
	switch h := v.(type) {
	case nil:
		return nil
	case dom.Handler:
		return h
	case func(dom.Event):
		return h
	case func():
		return func(dom.Event) { h() }
	}
	return nil
}
