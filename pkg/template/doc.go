// Package template implements the directive template language shared by
// the live client renderer and the HTML server renderer.
//
// A template is ordinary markup annotated with directives:
//
//	v-if / v-else-if / v-else   conditional chains on adjacent siblings
//	v-for="item in expr"        per-item instantiation of the element
//	v-show="expr"               keep the element, hide it when falsy
//	:prop="expr"                bound attribute / property
//	@event="handler"            event listener (client targets only)
//	{{expr}}                    text interpolation
//
// Parse produces an immutable node tree. Directives are compiled away at
// parse time: conditional chains become a single CondGroup node with
// ordered branches, loop and show clauses become parsed expressions on
// the element, and interpolation spans become pre-parsed text parts.
// Both renderers therefore walk the same structure and cannot disagree
// about chain adjacency or attribute processing order.
//
// Expressions are parsed into a small AST (literals, identifiers, member
// and index access, arithmetic, comparison, boolean operators, ternary,
// calls) and interpreted against a read-only Scope. There is no dynamic
// code execution, and an expression that fails to evaluate yields a zero
// value rather than aborting the surrounding render.
package template
