// Package resolve implements the production value binder: reflection-based
// name lookup over a scope stack, with a per-binding cache that remembers the
// last successful resolution path and re-validates it against the current
// stack's shape before reuse.
package resolve

import (
	"strings"
	"sync/atomic"

	"github.com/goliatone/go-mustache/pkg/scope"
)

// Handler is a scope.Binder that resolves names through map keys, no-arg
// methods, and exported struct fields. The zero value is ready to use.
type Handler struct{}

// New returns a reflection-backed binder.
func New() *Handler { return &Handler{} }

// Bind returns a binding for name. Dotted names resolve their head segment
// against the stack and descend the remaining segments inside the found
// value only, with no fallback to outer scopes mid-path.
func (h *Handler) Bind(name string) scope.Binding {
	return &binding{name: name, segments: strings.Split(name, ".")}
}

type binding struct {
	name     string
	segments []string

	// cache holds the last resolution path, hit or miss. Swapped whole via
	// the atomic pointer so concurrent renders never observe a partially
	// written path.
	cache atomic.Pointer[path]
}

// Resolve returns the value for the bound name, or nil when no scope
// exposes it. The cached path is replayed only after every guard it
// recorded still holds; any mismatch falls back to a full search whose
// result replaces the cache.
func (b *binding) Resolve(stack scope.Stack) any {
	if p := b.cache.Load(); p != nil {
		if v, ok := p.replay(stack, b.segments[0]); ok {
			return v
		}
	}
	v, p := b.search(stack)
	if p != nil {
		b.cache.Store(p)
	}
	return v
}

// search walks the stack innermost to outermost looking for the head
// segment, then descends the remaining segments inside the found value. It
// returns the resolved value and the path to cache; a nil path means the
// outcome is not safely cacheable (a miss inside an interior container,
// whose shape the guards do not cover).
func (b *binding) search(stack scope.Stack) (any, *path) {
	p := &path{depth: len(stack), scopeIdx: -1}
	head := b.segments[0]

	var cur any
	for i := len(stack) - 1; i >= 0; i-- {
		v := stack[i]
		g := guardFor(v, head)
		p.guards = append(p.guards, g)

		val, st, ok := access(v, head)
		if ok {
			p.scopeIdx = i
			p.steps = append(p.steps, st)
			cur = val
			break
		}
	}
	if p.scopeIdx < 0 {
		return nil, p
	}

	for _, seg := range b.segments[1:] {
		val, st, ok := access(cur, seg)
		if !ok {
			return nil, nil
		}
		p.steps = append(p.steps, st)
		cur = val
	}
	return cur, p
}
