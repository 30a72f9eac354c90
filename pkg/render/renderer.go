package render

import (
	"bytes"
	"fmt"
	"io"
	"reflect"

	"github.com/weft-dev/weft/pkg/template"
)

// SuspenseFunc handles a suspense node reached during a walk. The
// stream package installs one to defer the node's content; when nil,
// deferred content renders inline and fallbacks are ignored.
type SuspenseFunc func(w io.Writer, n *template.Node, scope *template.Scope) error

// Config configures the HTML renderer.
type Config struct {
	// OnSuspense intercepts suspense nodes. nil renders their content
	// inline.
	OnSuspense SuspenseFunc
}

// Renderer renders parsed template trees to HTML.
// A Renderer is stateless and safe for concurrent use.
type Renderer struct {
	config Config
}

// New creates a Renderer with the given configuration.
func New(config Config) *Renderer {
	return &Renderer{config: config}
}

// RenderToString renders a template tree against a scope.
func (r *Renderer) RenderToString(n *template.Node, scope *template.Scope) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToWriter(&buf, n, scope); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToWriter streams the rendered markup to w.
func (r *Renderer) RenderToWriter(w io.Writer, n *template.Node, scope *template.Scope) error {
	return r.renderNode(w, n, scope)
}

// renderNode dispatches on node kind.
func (r *Renderer) renderNode(w io.Writer, n *template.Node, scope *template.Scope) error {
	if n == nil {
		return nil
	}

	switch n.Kind {
	case template.KindText:
		return r.renderText(w, n, scope)
	case template.KindElement:
		return r.renderElement(w, n, scope, false)
	case template.KindFragment:
		return r.renderChildren(w, n.Children, scope)
	case template.KindCondGroup:
		return r.renderCondGroup(w, n, scope)
	case template.KindSuspense:
		if r.config.OnSuspense != nil {
			return r.config.OnSuspense(w, n, scope)
		}
		return r.renderChildren(w, n.Content, scope)
	default:
		return fmt.Errorf("unknown node kind: %d", n.Kind)
	}
}

func (r *Renderer) renderChildren(w io.Writer, children []*template.Node, scope *template.Scope) error {
	for _, c := range children {
		if err := r.renderNode(w, c, scope); err != nil {
			return err
		}
	}
	return nil
}

// renderText writes literal parts verbatim and interpolated values
// escaped. Slice-valued interpolations are spliced in element order.
func (r *Renderer) renderText(w io.Writer, n *template.Node, scope *template.Scope) error {
	for _, part := range n.Parts {
		if part.Expr == nil {
			if _, err := io.WriteString(w, part.Literal); err != nil {
				return err
			}
			continue
		}

		v := scope.Eval(part.Expr)
		if err := writeInterpolated(w, v); err != nil {
			return err
		}
	}
	return nil
}

func writeInterpolated(w io.Writer, v any) error {
	switch v.(type) {
	case nil, string, bool, int, int64, float64:
		_, err := io.WriteString(w, escapeHTML(template.Stringify(v)))
		return err
	}

	// Slice results splice into the text position, in element order.
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			if _, err := io.WriteString(w, escapeHTML(template.Stringify(rv.Index(i).Interface()))); err != nil {
				return err
			}
		}
		return nil
	}

	_, err := io.WriteString(w, escapeHTML(template.Stringify(v)))
	return err
}

// renderCondGroup renders the first truthy branch; an else branch
// (nil condition) always matches. Chain state lives here in the walk,
// never on the nodes.
func (r *Renderer) renderCondGroup(w io.Writer, n *template.Node, scope *template.Scope) error {
	for _, b := range n.Branches {
		if b.Cond == nil || template.Truthy(scope.Eval(b.Cond)) {
			return r.renderNode(w, b.Node, scope)
		}
	}
	return nil
}

// renderElement renders one element. When the element carries v-for and
// expanded is false, it is instantiated once per sequence item with a
// child scope; each instantiation is fresh output, so iterations share
// nothing.
func (r *Renderer) renderElement(w io.Writer, n *template.Node, scope *template.Scope, expanded bool) error {
	if n.For != nil && !expanded {
		items := template.Sequence(scope.Eval(n.For.Seq))
		for i, item := range items {
			vars := map[string]any{n.For.Item: item}
			if n.For.Index != "" {
				vars[n.For.Index] = i
			}
			if err := r.renderElement(w, n, scope.Child(vars), true); err != nil {
				return err
			}
		}
		return nil
	}

	if _, err := fmt.Fprintf(w, "<%s", n.Tag); err != nil {
		return err
	}
	if err := r.renderAttrs(w, n, scope); err != nil {
		return err
	}
	if _, err := w.Write([]byte{'>'}); err != nil {
		return err
	}

	if template.IsVoidElement(n.Tag) {
		return nil
	}

	if err := r.renderChildren(w, n.Children, scope); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "</%s>", n.Tag)
	return err
}

// renderAttrs writes attributes in template order. Bound attributes
// with boolean results toggle presence; other results serialize into
// the attribute value. Event attributes are stripped on the server.
// A falsy v-show merges display:none into the style attribute.
func (r *Renderer) renderAttrs(w io.Writer, n *template.Node, scope *template.Scope) error {
	hidden := n.Show != nil && !template.Truthy(scope.Eval(n.Show))
	styleWritten := false

	for _, a := range n.Attrs {
		switch a.Kind {
		case template.AttrEvent:
			continue

		case template.AttrStatic:
			value := a.Value
			if a.Name == "style" && hidden {
				value = mergeHidden(value)
				styleWritten = true
			}
			if value == "" && a.Name != "style" {
				if _, err := fmt.Fprintf(w, " %s", a.Name); err != nil {
					return err
				}
				continue
			}
			if _, err := fmt.Fprintf(w, ` %s="%s"`, a.Name, escapeAttr(value)); err != nil {
				return err
			}

		case template.AttrBound:
			v := scope.Eval(a.Expr)
			switch tv := v.(type) {
			case nil:
				continue
			case bool:
				if tv {
					if _, err := fmt.Fprintf(w, " %s", a.Name); err != nil {
						return err
					}
				}
			default:
				value := template.Stringify(v)
				if a.Name == "style" && hidden {
					value = mergeHidden(value)
					styleWritten = true
				}
				if _, err := fmt.Fprintf(w, ` %s="%s"`, a.Name, escapeAttr(value)); err != nil {
					return err
				}
			}
		}
	}

	if hidden && !styleWritten {
		if _, err := io.WriteString(w, ` style="display:none"`); err != nil {
			return err
		}
	}
	return nil
}

// mergeHidden appends display:none to an existing style value.
func mergeHidden(style string) string {
	if style == "" {
		return "display:none"
	}
	if style[len(style)-1] != ';' {
		style += ";"
	}
	return style + "display:none"
}
