package node

import "sync"

// Root is the anonymous container node: the compiled template itself, and
// the subtree type for sections and partials. It owns the child slice and
// enforces the "sealed after init" transition that makes the tree safe for
// concurrent execution.
type Root struct {
	Base

	mu       sync.Mutex
	sealed   bool
	children []Node
}

// NewRoot returns an empty, unsealed tree compiled under the given
// delimiters.
func NewRoot(delims Delims) *Root {
	r := &Root{Base: newBase(Config{}, "", KindRoot, "", "", delims, nil)}
	r.Base.tree = r
	return r
}

// Children returns the subtree in document order.
func (r *Root) Children() []Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.children
}

// SetChildren replaces the subtree. It is an initialization-phase gate:
// calling it after Init has sealed the tree panics, since renders may
// already be traversing the children concurrently.
func (r *Root) SetChildren(children []Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		panic("node: SetChildren on a sealed tree")
	}
	r.children = children
}

// Init seals the tree and recursively initializes every child, exactly once.
func (r *Root) Init() error {
	return r.guard.do(func() error {
		r.mu.Lock()
		r.sealed = true
		children := r.children
		r.mu.Unlock()

		for _, child := range children {
			if err := child.Init(); err != nil {
				return err
			}
		}
		return nil
	})
}

// Clone returns a shallow duplicate sharing the child tree; scalar fields
// (trailing text included) diverge independently from the source.
func (r *Root) Clone() Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	dup := &Root{
		Base:     r.Base,
		sealed:   r.sealed,
		children: r.children,
	}
	dup.Base.tree = dup
	return dup
}

// Text is an anonymous leaf holding a literal run that precedes any
// structural node in its subtree. Literal runs after a node attach to that
// node via Append instead.
type Text struct {
	Base
}

// NewText returns a literal node carrying text.
func NewText(text string, delims Delims) *Text {
	t := &Text{Base: newBase(Config{}, "", KindText, "", "", delims, nil)}
	t.Append(text)
	return t
}

// Clone returns a shallow duplicate of the literal node.
func (t *Text) Clone() Node {
	dup := *t
	return &dup
}
