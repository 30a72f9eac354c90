package template

import (
	"fmt"
	"strings"

	"github.com/weft-dev/weft/internal/errors"
)

// SuspenseTag is the element name that opens a deferred region.
// Its direct <fallback> child supplies the shell placeholder content.
const SuspenseTag = "suspense"

// fallbackTag wraps the fallback content inside a suspense element.
const fallbackTag = "fallback"

// Parse parses template source into an immutable node tree.
// The root is a fragment unless the source is a single top-level node.
func Parse(src string) (*Node, error) {
	p := &parser{src: src}
	children, err := p.parseNodes("")
	if err != nil {
		return nil, err
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return &Node{Kind: KindFragment, Children: children}, nil
}

// MustParse is Parse for statically known templates; it panics on error.
func MustParse(src string) *Node {
	n, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return n
}

type parser struct {
	src string
	pos int
}

// rawChild carries a parsed sibling plus its conditional-chain marker
// before grouping.
type rawChild struct {
	node *Node
	cond string // "", "if", "else-if", "else"
	expr Expr   // nil for "else"
}

// parseNodes parses siblings until </closeTag> (consumed) or EOF when
// closeTag is empty, then folds conditional chains into CondGroup nodes.
func (p *parser) parseNodes(closeTag string) ([]*Node, error) {
	var raw []rawChild

	for p.pos < len(p.src) {
		if strings.HasPrefix(p.src[p.pos:], "</") {
			end := strings.IndexByte(p.src[p.pos:], '>')
			if end < 0 {
				return nil, p.errorf("E101", "unterminated closing tag")
			}
			name := strings.TrimSpace(p.src[p.pos+2 : p.pos+end])
			if closeTag == "" {
				return nil, p.errorf("E102", "unexpected closing tag </%s>", name)
			}
			if !strings.EqualFold(name, closeTag) {
				return nil, p.errorf("E103", "mismatched closing tag </%s>, want </%s>", name, closeTag)
			}
			p.pos += end + 1
			return p.groupConditionals(raw)
		}

		if strings.HasPrefix(p.src[p.pos:], "<!--") {
			end := strings.Index(p.src[p.pos:], "-->")
			if end < 0 {
				return nil, p.errorf("E104", "unterminated comment")
			}
			p.pos += end + 3
			continue
		}

		if p.src[p.pos] == '<' && p.pos+1 < len(p.src) && isIdentStart(p.src[p.pos+1]) {
			child, err := p.parseElement()
			if err != nil {
				return nil, err
			}
			raw = append(raw, child)
			continue
		}

		text, err := p.parseText()
		if err != nil {
			return nil, err
		}
		if text != nil {
			raw = append(raw, rawChild{node: text})
		}
	}

	if closeTag != "" {
		return nil, p.errorf("E105", "missing closing tag </%s>", closeTag)
	}
	return p.groupConditionals(raw)
}

// parseText consumes up to the next tag and splits interpolation spans.
// Returns nil for empty input.
func (p *parser) parseText() (*Node, error) {
	start := p.pos
	if p.pos < len(p.src) && p.src[p.pos] == '<' {
		// A '<' that did not open a tag is literal text.
		p.pos++
	}
	for p.pos < len(p.src) && p.src[p.pos] != '<' {
		p.pos++
	}
	src := p.src[start:p.pos]
	if src == "" {
		return nil, nil
	}

	parts, err := p.splitInterpolation(src)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindText, Text: src, Parts: parts}, nil
}

// splitInterpolation splits text into literal and {{expr}} parts.
func (p *parser) splitInterpolation(src string) ([]TextPart, error) {
	var parts []TextPart
	for len(src) > 0 {
		open := strings.Index(src, "{{")
		if open < 0 {
			parts = append(parts, TextPart{Literal: src})
			break
		}
		if open > 0 {
			parts = append(parts, TextPart{Literal: src[:open]})
		}
		rest := src[open+2:]
		close := strings.Index(rest, "}}")
		if close < 0 {
			return nil, p.errorf("E106", "unterminated interpolation")
		}
		exprSrc := strings.TrimSpace(rest[:close])
		expr, err := ParseExpr(exprSrc)
		if err != nil {
			return nil, err
		}
		parts = append(parts, TextPart{Expr: expr})
		src = rest[close+2:]
	}
	return parts, nil
}

// parseElement parses one element (and its subtree) starting at '<'.
func (p *parser) parseElement() (rawChild, error) {
	p.pos++ // consume '<'
	start := p.pos
	for p.pos < len(p.src) && (isIdentPart(p.src[p.pos]) || p.src[p.pos] == '-') {
		p.pos++
	}
	tag := strings.ToLower(p.src[start:p.pos])

	node := &Node{Kind: KindElement, Tag: tag}
	child := rawChild{node: node}

	selfClosed, err := p.parseAttrs(node, &child)
	if err != nil {
		return rawChild{}, err
	}

	if selfClosed || IsVoidElement(tag) {
		return p.finishElement(node, child)
	}

	if IsRawTextElement(tag) {
		text, err := p.parseRawText(tag)
		if err != nil {
			return rawChild{}, err
		}
		if text != "" {
			node.Children = []*Node{{Kind: KindText, Text: text, Parts: []TextPart{{Literal: text}}}}
		}
		return p.finishElement(node, child)
	}

	children, err := p.parseNodes(tag)
	if err != nil {
		return rawChild{}, err
	}
	node.Children = children

	return p.finishElement(node, child)
}

// finishElement converts suspense elements into Suspense nodes after
// children are in place.
func (p *parser) finishElement(node *Node, child rawChild) (rawChild, error) {
	if node.Tag != SuspenseTag {
		return child, nil
	}

	susp := &Node{Kind: KindSuspense}
	for _, c := range node.Children {
		if c.Kind == KindElement && c.Tag == fallbackTag {
			susp.Fallback = append(susp.Fallback, c.Children...)
			continue
		}
		susp.Content = append(susp.Content, c)
	}
	child.node = susp
	if child.cond != "" {
		return rawChild{}, p.errorf("E107", "conditional directives are not supported on <%s>", SuspenseTag)
	}
	return child, nil
}

// parseRawText consumes literal content up to </tag> for script/style.
func (p *parser) parseRawText(tag string) (string, error) {
	lower := strings.ToLower(p.src[p.pos:])
	end := strings.Index(lower, "</"+tag)
	if end < 0 {
		return "", p.errorf("E105", "missing closing tag </%s>", tag)
	}
	text := p.src[p.pos : p.pos+end]
	p.pos += end
	gt := strings.IndexByte(p.src[p.pos:], '>')
	if gt < 0 {
		return "", p.errorf("E101", "unterminated closing tag")
	}
	p.pos += gt + 1
	return text, nil
}

// parseAttrs parses attributes up to '>' and compiles directives.
// Returns whether the tag was self-closed.
func (p *parser) parseAttrs(node *Node, child *rawChild) (bool, error) {
	for {
		for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
			p.pos++
		}
		if p.pos >= len(p.src) {
			return false, p.errorf("E108", "unterminated tag <%s>", node.Tag)
		}

		if p.src[p.pos] == '>' {
			p.pos++
			return false, nil
		}
		if strings.HasPrefix(p.src[p.pos:], "/>") {
			p.pos += 2
			return true, nil
		}

		name, value, hasValue, err := p.parseAttr(node.Tag)
		if err != nil {
			return false, err
		}
		if err := p.compileAttr(node, child, name, value, hasValue); err != nil {
			return false, err
		}
	}
}

// parseAttr reads one name[=value] pair.
func (p *parser) parseAttr(tag string) (name, value string, hasValue bool, err error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if isSpace(c) || c == '=' || c == '>' || (c == '/' && strings.HasPrefix(p.src[p.pos:], "/>")) {
			break
		}
		p.pos++
	}
	name = p.src[start:p.pos]
	if name == "" {
		return "", "", false, p.errorf("E109", "malformed attribute in <%s>", tag)
	}

	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
	if p.pos >= len(p.src) || p.src[p.pos] != '=' {
		return name, "", false, nil
	}
	p.pos++ // consume '='
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
	if p.pos >= len(p.src) {
		return "", "", false, p.errorf("E108", "unterminated tag <%s>", tag)
	}

	if q := p.src[p.pos]; q == '"' || q == '\'' {
		p.pos++
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] != q {
			p.pos++
		}
		if p.pos >= len(p.src) {
			return "", "", false, p.errorf("E110", "unterminated attribute value in <%s>", tag)
		}
		value = p.src[start:p.pos]
		p.pos++
		return name, value, true, nil
	}

	start = p.pos
	for p.pos < len(p.src) && !isSpace(p.src[p.pos]) && p.src[p.pos] != '>' {
		p.pos++
	}
	return name, p.src[start:p.pos], true, nil
}

// compileAttr routes one parsed attribute to its directive slot or to
// the static attribute list. Conditional markers are recorded on the
// rawChild for chain grouping by the caller.
func (p *parser) compileAttr(node *Node, child *rawChild, name, value string, hasValue bool) error {
	switch {
	case name == "v-if", name == "v-else-if":
		expr, err := ParseExpr(value)
		if err != nil {
			return err
		}
		if child.cond != "" {
			return p.errorf("E111", "element has more than one conditional directive")
		}
		if name == "v-if" {
			child.cond = "if"
		} else {
			child.cond = "else-if"
		}
		child.expr = expr
		return nil

	case name == "v-else":
		if child.cond != "" {
			return p.errorf("E111", "element has more than one conditional directive")
		}
		child.cond = "else"
		return nil

	case name == "v-for":
		clause, err := parseForClause(value)
		if err != nil {
			return err
		}
		node.For = clause
		return nil

	case name == "v-show":
		expr, err := ParseExpr(value)
		if err != nil {
			return err
		}
		node.Show = expr
		return nil

	case strings.HasPrefix(name, ":"):
		expr, err := ParseExpr(value)
		if err != nil {
			return err
		}
		node.Attrs = append(node.Attrs, Attr{Kind: AttrBound, Name: name[1:], Value: value, Expr: expr})
		return nil

	case strings.HasPrefix(name, "@"):
		expr, err := ParseExpr(value)
		if err != nil {
			return err
		}
		node.Attrs = append(node.Attrs, Attr{Kind: AttrEvent, Name: name[1:], Value: value, Expr: expr})
		return nil
	}

	if !hasValue {
		// Bare attribute, e.g. disabled.
		node.Attrs = append(node.Attrs, Attr{Kind: AttrStatic, Name: name, Value: ""})
		return nil
	}
	node.Attrs = append(node.Attrs, Attr{Kind: AttrStatic, Name: name, Value: value})
	return nil
}

// parseForClause parses "item in expr" or "item, i in expr".
func parseForClause(src string) (*ForClause, error) {
	idx := strings.Index(src, " in ")
	if idx < 0 {
		return nil, errors.New(errors.CategoryParse, "E112",
			fmt.Sprintf("v-for %q must have the form \"item in expr\"", src))
	}

	vars := strings.TrimSpace(src[:idx])
	seqSrc := strings.TrimSpace(src[idx+4:])

	clause := &ForClause{}
	if comma := strings.IndexByte(vars, ','); comma >= 0 {
		clause.Item = strings.TrimSpace(vars[:comma])
		clause.Index = strings.TrimSpace(vars[comma+1:])
	} else {
		clause.Item = vars
	}
	if clause.Item == "" {
		return nil, errors.New(errors.CategoryParse, "E112",
			fmt.Sprintf("v-for %q is missing the item variable", src))
	}

	seq, err := ParseExpr(seqSrc)
	if err != nil {
		return nil, err
	}
	clause.Seq = seq
	return clause, nil
}

// groupConditionals folds v-if chains over adjacent siblings into
// CondGroup nodes. Whitespace-only text between chain members is
// dropped; anything else ends the chain. A v-else-if or v-else without
// a preceding branch is an error.
func (p *parser) groupConditionals(raw []rawChild) ([]*Node, error) {
	var out []*Node

	for i := 0; i < len(raw); i++ {
		c := raw[i]

		switch c.cond {
		case "":
			out = append(out, c.node)

		case "if":
			group := &Node{Kind: KindCondGroup}
			group.Branches = append(group.Branches, CondBranch{Cond: c.expr, Node: c.node})

			for i+1 < len(raw) {
				j := i + 1
				// Skip whitespace-only text separating chain members.
				skipped := 0
				for j < len(raw) && raw[j].cond == "" && isBlankText(raw[j].node) {
					j++
					skipped++
				}
				if j >= len(raw) || (raw[j].cond != "else-if" && raw[j].cond != "else") {
					break
				}
				next := raw[j]
				group.Branches = append(group.Branches, CondBranch{Cond: next.expr, Node: next.node})
				i = j
				if next.cond == "else" {
					break
				}
			}
			out = append(out, group)

		default:
			return nil, p.errorf("E113", "v-%s without a preceding v-if", c.cond)
		}
	}
	return out, nil
}

func isBlankText(n *Node) bool {
	return n.Kind == KindText && strings.TrimSpace(n.Text) == ""
}

func (p *parser) errorf(code, format string, args ...any) error {
	return errors.New(errors.CategoryParse, code, fmt.Sprintf(format, args...))
}
