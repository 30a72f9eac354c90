package template

import (
	"fmt"
	"reflect"
	"strconv"
)

// Scope is a read-only key-value lookup for expression evaluation.
// Child scopes chain to their parent, which is how loop variables shadow
// outer names without mutating anything.
type Scope struct {
	vars   map[string]any
	parent *Scope
}

// NewScope creates a root scope over the given values. The map is not
// copied; callers must not mutate it during a render.
func NewScope(vars map[string]any) *Scope {
	return &Scope{vars: vars}
}

// Child creates a scope layered over s. Lookups check the child first.
func (s *Scope) Child(vars map[string]any) *Scope {
	return &Scope{vars: vars, parent: s}
}

// Lookup resolves a name through the scope chain.
func (s *Scope) Lookup(name string) (any, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.vars != nil {
			if v, ok := cur.vars[name]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

// Eval evaluates an expression against the scope and unwraps a
// reactive result. Expression failures yield nil.
func (s *Scope) Eval(e Expr) any {
	if e == nil {
		return nil
	}
	return deref(e.Eval(s))
}

// Loader is implemented by reactive values placed in a scope. Load
// returns the current value; a reactive implementation subscribes the
// running computation as a side effect, which is what ties a client
// render to its cells.
type Loader interface {
	Load() any
}

// deref unwraps reactive scope values.
func deref(v any) any {
	if l, ok := v.(Loader); ok {
		return l.Load()
	}
	return v
}

// Truthy reports whether a value counts as true in directive position:
// nil, false, zero numbers, empty strings, and empty slices/maps/arrays
// are falsy.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// Stringify renders a value for text interpolation. nil becomes the
// empty string.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprintf("%v", v)
}

// Sequence coerces a v-for source into an ordered []any.
// Non-sequence values yield nil, which renders zero iterations.
func Sequence(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []int:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = n
		}
		return out
	case int:
		// A bare count iterates 1..n, matching range shorthand.
		out := make([]any, 0, t)
		for i := 1; i <= t; i++ {
			out = append(out, i)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return nil
}

// member resolves obj.name against maps and structs. Missing members
// yield nil.
func member(obj any, name string) any {
	if obj == nil {
		return nil
	}

	if m, ok := obj.(map[string]any); ok {
		return m[name]
	}

	rv := reflect.ValueOf(obj)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		v := rv.MapIndex(reflect.ValueOf(name))
		if !v.IsValid() {
			return nil
		}
		return v.Interface()
	}

	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		f := rv.FieldByName(name)
		if f.IsValid() && f.CanInterface() {
			return f.Interface()
		}
	}
	return nil
}

// index resolves obj[idx] for slices, arrays, and maps. Out-of-range
// access yields nil.
func index(obj, idx any) any {
	if obj == nil {
		return nil
	}

	if s, ok := idx.(string); ok {
		return member(obj, s)
	}

	i, ok := toFloat(idx)
	if !ok {
		return nil
	}
	n := int(i)

	rv := reflect.ValueOf(obj)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.String:
		if n < 0 || n >= rv.Len() {
			return nil
		}
		return rv.Index(n).Interface()
	}
	return nil
}

// call invokes a scope function. Arity or type mismatches yield nil;
// a panic inside the callee is recovered to nil per the expression
// recovery rule.
func call(fn any, args []any) (result any) {
	defer func() {
		if recover() != nil {
			result = nil
		}
	}()

	switch f := fn.(type) {
	case nil:
		return nil
	case func() any:
		return f()
	case func(any) any:
		if len(args) != 1 {
			return nil
		}
		return f(args[0])
	case func(...any) any:
		return f(args...)
	}

	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return nil
	}
	rt := rv.Type()
	if rt.NumIn() != len(args) || rt.IsVariadic() {
		return nil
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		if a == nil {
			in[i] = reflect.Zero(rt.In(i))
			continue
		}
		av := reflect.ValueOf(a)
		if !av.Type().AssignableTo(rt.In(i)) {
			if av.Type().ConvertibleTo(rt.In(i)) {
				av = av.Convert(rt.In(i))
			} else {
				return nil
			}
		}
		in[i] = av
	}

	out := rv.Call(in)
	if len(out) == 0 {
		return nil
	}
	return out[0].Interface()
}

// toFloat coerces numeric values for arithmetic and comparison.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

// normalizeNumber collapses whole-valued floats back to int so that
// arithmetic over ints stays int-shaped in output.
func normalizeNumber(f float64) any {
	if f == float64(int(f)) {
		return int(f)
	}
	return f
}

// looseEquals compares across numeric kinds, otherwise by DeepEqual.
func looseEquals(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			_, aIsStr := a.(string)
			_, bIsStr := b.(string)
			if !aIsStr || !bIsStr {
				return af == bf
			}
		}
	}
	return reflect.DeepEqual(a, b)
}
