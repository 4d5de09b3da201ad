// Package node implements the execution core of the template engine: the
// tree of compiled nodes a parsed template becomes. Every node can execute
// against a scope stack, reconstruct the source markup it was compiled from,
// and compose with child nodes; the specializations in this package (text,
// variable, section, inverted, partial, comment, delimiter change) layer
// type-specific behavior over the shared Base defaults.
//
// A tree is built once by internal/parse, initialized once via Init, and is
// read-only afterwards, so any number of renders may execute it concurrently
// against independent stacks.
package node

import (
	"errors"
	"io"

	"github.com/goliatone/go-mustache/pkg/scope"
)

// SelfName is the reserved tag name denoting the innermost scope value
// itself. Nodes named SelfName never consult a binding.
const SelfName = "."

// ErrMissingValue marks a variable that resolved to nothing while the engine
// runs in strict-missing mode. Callers branch on it with errors.Is.
var ErrMissingValue = errors.New("node: missing value")

// Kind discriminates the tag type a node was compiled from.
type Kind string

// The node kinds produced by the compiler.
const (
	KindRoot     Kind = "root"
	KindText     Kind = "text"
	KindVariable Kind = "variable"
	KindSection  Kind = "section"
	KindInverted Kind = "inverted"
	KindPartial  Kind = "partial"
	KindComment  Kind = "comment"
	KindDelims   Kind = "delims"
)

// Delims is a tag delimiter pair. Each node records the pair in effect when
// it was compiled, which is what makes reconstruction exact across
// mid-template delimiter changes.
type Delims struct {
	Open  string
	Close string
}

// DefaultDelims is the standard mustache delimiter pair.
var DefaultDelims = Delims{Open: "{{", Close: "}}"}

// Node is the unit of compiled template structure.
//
// Execute writes the node's rendered output to w and returns the writer
// subsequent siblings should use, allowing a node to substitute a wrapped
// writer for the rest of the render. Identity regenerates the original
// source markup instead of evaluating data. Init performs the one-time
// recursive setup pass and must complete before the first Execute; it is
// idempotent and safe to invoke defensively. An Init that finds the pass
// already underway returns nil without waiting for it, so execution must be
// sequenced on the call that started the pass, not on any nil return.
type Node interface {
	Init() error
	Execute(w io.Writer, stack scope.Stack) (io.Writer, error)
	Identity(w io.Writer) error
	Append(text string)
	Get(stack scope.Stack) any
	Name() string
	Kind() Kind
	Children() []Node
	Clone() Node
}

// Tree is the child-tree provider: the mutable container a subtree's nodes
// live in during compilation. SetChildren is an initialization-phase gate;
// implementations seal on Init and panic on later mutation.
type Tree interface {
	Children() []Node
	SetChildren(children []Node)
}

// Recompiler turns template source into an executable tree. Sections and
// variables use it to expand lambda results with the delimiters in effect at
// their compile site. A nil Recompiler renders lambda results verbatim.
type Recompiler func(src string, delims Delims) (Node, error)

// Resolver loads and compiles the template a partial tag names. The engine
// supplies one backed by its partial source and compile cache; returning the
// same tree for a template that is mid-compilation is what makes recursive
// partials work.
type Resolver func(name string) (Node, error)

// Config carries the engine-level collaborators a node needs at construction
// time. The zero value is usable: no binding, no escaping, lambda results
// and partials unsupported.
type Config struct {
	// Binder creates value bindings for named tags. Nil leaves nodes
	// unbound; they resolve every name to absent.
	Binder scope.Binder

	// Escape transforms interpolated values for escaped variables. Nil
	// means no escaping.
	Escape func(string) string

	// Sanitize filters raw (unescaped) interpolations. Nil passes them
	// through untouched.
	Sanitize func(string) string

	// Strict makes a variable that resolves to absent fail the render
	// with ErrMissingValue instead of rendering empty.
	Strict bool

	// Recompile expands lambda return values.
	Recompile Recompiler

	// Partials resolves partial tags during Init.
	Partials Resolver
}
