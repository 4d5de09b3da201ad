// Package scope defines the runtime context stack a compiled template is
// rendered against, plus the narrow contracts through which nodes resolve
// names to values. The production resolver lives in internal/resolve; tests
// and embedders can supply their own Binder to change lookup semantics
// without touching the node tree.
package scope

// Absent is the canonical "no value" result. Resolution that finds nothing
// reports untyped nil rather than an error, and extending a stack with nil is
// a no-op, so missing data degrades to empty output instead of aborting a
// render.
//
// Absent exists so call sites can write scope.Absent instead of a bare nil
// literal; the two are interchangeable.
var Absent any = nil

// Stack is an ordered sequence of evaluation contexts, outermost first.
// Name resolution walks it innermost (last) to outermost (first).
//
// A Stack is treated as immutable by everything that receives one: nodes may
// derive an extended stack for their children via Extend but never modify the
// caller's slice in place.
type Stack []any

// NewStack builds a stack from the given contexts, outermost first. It is the
// conventional way to wrap a single render context.
func NewStack(values ...any) Stack {
	if len(values) == 0 {
		return Stack{}
	}
	out := make(Stack, len(values))
	copy(out, values)
	return out
}

// Top returns the innermost context, or nil for an empty stack.
func (s Stack) Top() any {
	if len(s) == 0 {
		return nil
	}
	return s[len(s)-1]
}

// Extend returns a stack with v appended as the new innermost context,
// leaving the receiver untouched. Extending with nil returns the receiver
// unchanged: entering an absent context must not grow the stack.
func (s Stack) Extend(v any) Stack {
	if v == nil {
		return s
	}
	out := make(Stack, len(s)+1)
	copy(out, s)
	out[len(s)] = v
	return out
}

// Binder creates bindings for names found in template tags. A Binder is
// consulted once per tag at compile time; the returned Binding carries any
// per-name state (such as a resolution cache) and is invoked on every render.
type Binder interface {
	Bind(name string) Binding
}

// Binding resolves its bound name against a stack. Implementations must be
// safe for concurrent use: one compiled tree renders from many goroutines at
// once. A nil result means the name is absent from every scope.
type Binding interface {
	Resolve(stack Stack) any
}

// BinderFunc adapts a function to the Binder interface.
type BinderFunc func(name string) Binding

// Bind calls f(name).
func (f BinderFunc) Bind(name string) Binding { return f(name) }

// BindingFunc adapts a function to the Binding interface.
type BindingFunc func(stack Stack) any

// Resolve calls f(stack).
func (f BindingFunc) Resolve(stack Stack) any { return f(stack) }
