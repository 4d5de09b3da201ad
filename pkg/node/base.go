package node

import (
	"fmt"
	"io"
	"sync"

	"github.com/goliatone/go-mustache/pkg/scope"
)

// Base carries the behavior every node kind shares: trailing-text
// accumulation, child execution in document order, tag reconstruction, name
// resolution with the self-reference short-circuit, and the guarded one-time
// initialization pass. Specializations embed Base and override only what
// differs.
type Base struct {
	name    string
	kind    Kind
	sigil   string
	suffix  string
	delims  Delims
	self    bool
	binding scope.Binding
	tree    Tree
	guard   *initGuard

	// Literal source text immediately after this node, written verbatim
	// once children finish. Mutated only during compilation.
	trailing string
}

// newBase wires the shared fields. A binding is acquired unless the binder
// is absent (root and literal nodes) or the name is the self-reference,
// which Get short-circuits without ever resolving.
func newBase(cfg Config, name string, kind Kind, sigil, suffix string, delims Delims, tree Tree) Base {
	b := Base{
		name:   name,
		kind:   kind,
		sigil:  sigil,
		suffix: suffix,
		delims: delims,
		self:   name == SelfName,
		tree:   tree,
		guard:  &initGuard{},
	}
	if cfg.Binder != nil && name != "" && !b.self {
		b.binding = cfg.Binder.Bind(name)
	}
	return b
}

// Name returns the identifier inside the node's tag, empty for anonymous
// nodes.
func (b *Base) Name() string { return b.name }

// Kind returns the tag-type discriminator.
func (b *Base) Kind() Kind { return b.kind }

// Delims returns the delimiter pair in effect when this node was compiled.
func (b *Base) Delims() Delims { return b.delims }

// Children returns the node's subtree in document order, or nil for leaf
// nodes.
func (b *Base) Children() []Node {
	if b.tree == nil {
		return nil
	}
	return b.tree.Children()
}

// Init runs the recursive setup pass over the subtree. It executes its work
// at most once; repeat calls return the first call's error and re-entrant
// calls (a recursive partial reaching back into a tree mid-initialization)
// return immediately.
func (b *Base) Init() error {
	return b.guard.do(b.initChildren)
}

func (b *Base) initChildren() error {
	for _, child := range b.Children() {
		if err := child.Init(); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs every child against the same stack in document order, then
// writes the trailing text. The returned writer is whatever the last child
// handed back, so wrapped writers propagate through the rest of the render.
func (b *Base) Execute(w io.Writer, stack scope.Stack) (io.Writer, error) {
	w, err := b.runChildren(w, stack)
	if err != nil {
		return w, err
	}
	return b.appendTrailing(w)
}

func (b *Base) runChildren(w io.Writer, stack scope.Stack) (io.Writer, error) {
	var err error
	for _, child := range b.Children() {
		if w, err = child.Execute(w, stack); err != nil {
			return w, err
		}
	}
	return w, nil
}

// Identity regenerates the source markup for this node and its subtree: the
// open tag, each child's identity, the close tag when a subtree exists, then
// the trailing text. Anonymous nodes emit no tags.
func (b *Base) Identity(w io.Writer) error {
	if b.name != "" {
		if err := b.writeTag(w, b.sigil, b.suffix); err != nil {
			return err
		}
		if b.tree != nil {
			for _, child := range b.Children() {
				if err := child.Identity(w); err != nil {
					return err
				}
			}
			if err := b.writeTag(w, "/", ""); err != nil {
				return err
			}
		}
	}
	_, err := b.appendTrailing(w)
	return err
}

func (b *Base) writeTag(w io.Writer, marker, suffix string) error {
	if _, err := io.WriteString(w, b.delims.Open+marker+b.name+suffix+b.delims.Close); err != nil {
		return fmt.Errorf("node: write tag %q: %w", b.name, err)
	}
	return nil
}

// Append concatenates text onto the accumulated trailing literal; the first
// call establishes it. The compiler attaches literal runs to the preceding
// structural node this way instead of allocating a node per run.
func (b *Base) Append(text string) {
	b.trailing += text
}

func (b *Base) appendTrailing(w io.Writer) (io.Writer, error) {
	if b.trailing == "" {
		return w, nil
	}
	if _, err := io.WriteString(w, b.trailing); err != nil {
		return w, fmt.Errorf("node: write trailing text: %w", err)
	}
	return w, nil
}

// Get resolves the node's name against the stack. Self-reference nodes
// return the innermost scope value directly without consulting the binding;
// unbound nodes resolve to absent. Resolution failure is reported as nil,
// never an error.
func (b *Base) Get(stack scope.Stack) any {
	if b.self {
		return stack.Top()
	}
	if b.binding == nil {
		return nil
	}
	return b.binding.Resolve(stack)
}

// initGuard serializes a node's one-time initialization. The tri-state keeps
// a second sequential caller returning the recorded outcome while re-entrant
// and concurrent callers observe the pass as already underway.
type initGuard struct {
	mu    sync.Mutex
	state initState
	err   error
}

type initState int

const (
	initIdle initState = iota
	initRunning
	initDone
)

// do runs fn at most once; later sequential calls return the recorded
// outcome. A call that observes the pass underway returns nil without
// waiting, because waiting would deadlock the re-entrant case: a recursive
// partial's Init reaching back into the tree that is initializing it. That
// nil does not mean initialization finished, so a caller racing the first
// Init must sequence on the call that started it before executing the tree.
func (g *initGuard) do(fn func() error) error {
	g.mu.Lock()
	switch g.state {
	case initDone:
		err := g.err
		g.mu.Unlock()
		return err
	case initRunning:
		g.mu.Unlock()
		return nil
	}
	g.state = initRunning
	g.mu.Unlock()

	err := fn()

	g.mu.Lock()
	g.state = initDone
	g.err = err
	g.mu.Unlock()
	return err
}
