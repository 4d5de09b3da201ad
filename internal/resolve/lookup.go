package resolve

import (
	"reflect"
	"strings"

	"github.com/goliatone/go-mustache/pkg/scope"
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// path is a cached resolution outcome: which scope won, how its value was
// accessed, and the guards that must still hold for the outcome to be
// replayed. scopeIdx is -1 for a guarded miss.
type path struct {
	depth    int
	guards   []guard // one per inspected scope, innermost first
	scopeIdx int
	steps    []step // head access plus one step per remaining segment
}

// guard pins the shape of one inspected scope: its dynamic type, and for
// map scopes whether the head key was present. Struct fields and methods
// are type-determined, so the type check alone covers them; map content is
// not, hence the presence bit.
type guard struct {
	typ    reflect.Type
	hasKey bool
}

func guardFor(v any, head string) guard {
	g := guard{}
	if v == nil {
		return g
	}
	g.typ = reflect.TypeOf(v)
	if rv := indirectValue(reflect.ValueOf(v)); rv.IsValid() && rv.Kind() == reflect.Map {
		g.hasKey = mapHasKey(rv, head)
	}
	return g
}

// replay validates every guard against the current stack and, when they all
// hold, re-applies the recorded access steps. ok=false means the caller
// must fall back to a full search.
func (p *path) replay(stack scope.Stack, head string) (any, bool) {
	if len(stack) != p.depth {
		return nil, false
	}
	for i, g := range p.guards {
		v := stack[len(stack)-1-i]
		var t reflect.Type
		if v != nil {
			t = reflect.TypeOf(v)
		}
		if t != g.typ {
			return nil, false
		}
		if t == nil {
			continue
		}
		if rv := indirectValue(reflect.ValueOf(v)); rv.IsValid() && rv.Kind() == reflect.Map {
			if mapHasKey(rv, head) != g.hasKey {
				return nil, false
			}
		}
	}
	if p.scopeIdx < 0 {
		return nil, true
	}

	cur := stack[p.scopeIdx]
	for _, s := range p.steps {
		var ok bool
		if cur, ok = s.apply(cur); !ok {
			return nil, false
		}
	}
	return cur, true
}

type stepKind int

const (
	stepMap stepKind = iota
	stepMethod
	stepField
)

// step is one recorded access: a map lookup, a no-arg method call, or a
// struct field read. typ pins the type the step was recorded against so a
// replay on a different interior type falls back instead of misfiring.
type step struct {
	kind  stepKind
	typ   reflect.Type
	key   reflect.Value
	mIdx  int
	index []int
}

func (s step) apply(v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	switch s.kind {
	case stepMethod:
		rv := reflect.ValueOf(v)
		if rv.Type() != s.typ {
			return nil, false
		}
		return callMethod(rv.Method(s.mIdx)), true
	case stepMap:
		rv := indirectValue(reflect.ValueOf(v))
		if !rv.IsValid() || rv.Type() != s.typ {
			return nil, false
		}
		out := rv.MapIndex(s.key)
		if !out.IsValid() {
			return nil, false
		}
		return out.Interface(), true
	case stepField:
		rv := indirectValue(reflect.ValueOf(v))
		if !rv.IsValid() || rv.Type() != s.typ {
			return nil, false
		}
		f, ok := fieldByIndex(rv, s.index)
		if !ok {
			return nil, false
		}
		return f.Interface(), true
	}
	return nil, false
}

// access resolves one name segment inside one value. Lookup order: map key,
// no-arg method (exact exported name, then unique case-insensitive fold),
// exported struct field (exact first, then unique fold; an ambiguous fold
// does not match). A found name with an errored accessor still counts as
// found, with an absent value.
func access(v any, name string) (any, step, bool) {
	if v == nil {
		return nil, step{}, false
	}
	orig := reflect.ValueOf(v)
	rv := indirectValue(orig)
	if !rv.IsValid() {
		return nil, step{}, false
	}

	if rv.Kind() == reflect.Map {
		if key, ok := mapKey(rv.Type(), name); ok {
			if out := rv.MapIndex(key); out.IsValid() {
				return out.Interface(), step{kind: stepMap, typ: rv.Type(), key: key}, true
			}
		}
	}

	if idx, ok := methodIndex(orig.Type(), name); ok {
		return callMethod(orig.Method(idx)), step{kind: stepMethod, typ: orig.Type(), mIdx: idx}, true
	}

	if rv.Kind() == reflect.Struct {
		f, ok := rv.Type().FieldByName(name)
		if !ok || !f.IsExported() {
			f, ok = rv.Type().FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, name) })
		}
		if ok && f.IsExported() {
			if out, ok := fieldByIndex(rv, f.Index); ok {
				return out.Interface(), step{kind: stepField, typ: rv.Type(), index: f.Index}, true
			}
		}
	}
	return nil, step{}, false
}

// methodIndex finds a callable no-arg method returning T or (T, error),
// preferring an exact name match over a unique fold match.
func methodIndex(t reflect.Type, name string) (int, bool) {
	if m, ok := t.MethodByName(name); ok && callable(m) {
		return m.Index, true
	}
	found, count := -1, 0
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if m.IsExported() && strings.EqualFold(m.Name, name) && callable(m) {
			found = i
			count++
		}
	}
	if count == 1 {
		return found, true
	}
	return -1, false
}

func callable(m reflect.Method) bool {
	if !m.IsExported() || m.Type.NumIn() != 1 {
		return false
	}
	switch m.Type.NumOut() {
	case 1:
		return true
	case 2:
		return m.Type.Out(1) == errType
	}
	return false
}

// callMethod invokes a no-arg accessor. A non-nil error result yields an
// absent value, never a render failure.
func callMethod(m reflect.Value) any {
	out := m.Call(nil)
	if len(out) == 2 {
		if err, ok := out[1].Interface().(error); ok && err != nil {
			return nil
		}
	}
	return out[0].Interface()
}

// mapKey prepares name as a key for a map type whose keys are
// string-compatible: a string kind or the empty interface.
func mapKey(t reflect.Type, name string) (reflect.Value, bool) {
	kt := t.Key()
	key := reflect.ValueOf(name)
	switch {
	case kt.Kind() == reflect.String:
		if kt != key.Type() {
			key = key.Convert(kt)
		}
		return key, true
	case kt.Kind() == reflect.Interface && kt.NumMethod() == 0:
		return key, true
	}
	return reflect.Value{}, false
}

func mapHasKey(rv reflect.Value, name string) bool {
	key, ok := mapKey(rv.Type(), name)
	if !ok {
		return false
	}
	return rv.MapIndex(key).IsValid()
}

// fieldByIndex walks an embedded-field index, stopping at nil embedded
// pointers instead of panicking.
func fieldByIndex(rv reflect.Value, index []int) (reflect.Value, bool) {
	for _, i := range index {
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return reflect.Value{}, false
			}
			rv = rv.Elem()
		}
		rv = rv.Field(i)
	}
	return rv, true
}

func indirectValue(rv reflect.Value) reflect.Value {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}
