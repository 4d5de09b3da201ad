package node

import (
	"fmt"
	"io"
	"reflect"

	"github.com/goliatone/go-mustache/pkg/scope"
)

// Section is the {{#name}}...{{/name}} block: skipped for falsey values,
// repeated per element for slices and arrays, entered once with the value
// pushed as the innermost scope for anything else truthy. A lambda value is
// called with the section's raw inner source and its result rendered with
// the section's compile-time delimiters.
type Section struct {
	Base

	inner     string
	recompile Recompiler
}

// NewSection returns a section node over subtree; inner is the raw source
// between the open and close tags, handed to lambda values.
func NewSection(cfg Config, name string, delims Delims, subtree *Root, inner string) *Section {
	return &Section{
		Base:      newBase(cfg, name, KindSection, "#", "", delims, subtree),
		inner:     inner,
		recompile: cfg.Recompile,
	}
}

// Execute evaluates the section value and runs the children accordingly,
// then writes the trailing text.
func (s *Section) Execute(w io.Writer, stack scope.Stack) (io.Writer, error) {
	val := s.Get(stack)

	if fn, ok := sectionLambda(val); ok {
		w, err := s.expand(w, fn, stack)
		if err != nil {
			return w, err
		}
		return s.appendTrailing(w)
	}

	if !truthy(val) {
		return s.appendTrailing(w)
	}

	var err error
	if rv := indirect(val); rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			if w, err = s.runChildren(w, stack.Extend(rv.Index(i).Interface())); err != nil {
				return w, err
			}
		}
		return s.appendTrailing(w)
	}

	if w, err = s.runChildren(w, stack.Extend(val)); err != nil {
		return w, err
	}
	return s.appendTrailing(w)
}

// expand calls a section lambda with the raw inner source and renders the
// result against the current stack, using the delimiters that were in
// effect where the section was compiled.
func (s *Section) expand(w io.Writer, fn func(string) (string, error), stack scope.Stack) (io.Writer, error) {
	src, err := fn(s.inner)
	if err != nil {
		return w, fmt.Errorf("node: section lambda %q: %w", s.name, err)
	}
	if s.recompile == nil {
		if _, err := io.WriteString(w, src); err != nil {
			return w, fmt.Errorf("node: section lambda %q: %w", s.name, err)
		}
		return w, nil
	}
	tree, err := s.recompile(src, s.delims)
	if err != nil {
		return w, fmt.Errorf("node: section lambda %q: %w", s.name, err)
	}
	if w, err = tree.Execute(w, stack); err != nil {
		return w, fmt.Errorf("node: section lambda %q: %w", s.name, err)
	}
	return w, nil
}

// Clone returns a shallow duplicate sharing the child tree and binding.
func (s *Section) Clone() Node {
	dup := *s
	return &dup
}

// Inverted is the {{^name}}...{{/name}} block: children run, against the
// unchanged stack, exactly when the section value is falsey.
type Inverted struct {
	Base
}

// NewInverted returns an inverted-section node over subtree.
func NewInverted(cfg Config, name string, delims Delims, subtree *Root) *Inverted {
	return &Inverted{Base: newBase(cfg, name, KindInverted, "^", "", delims, subtree)}
}

// Execute runs the children only when the value is falsey, then writes the
// trailing text.
func (n *Inverted) Execute(w io.Writer, stack scope.Stack) (io.Writer, error) {
	if !truthy(n.Get(stack)) {
		var err error
		if w, err = n.runChildren(w, stack); err != nil {
			return w, err
		}
	}
	return n.appendTrailing(w)
}

// Clone returns a shallow duplicate sharing the child tree and binding.
func (n *Inverted) Clone() Node {
	dup := *n
	return &dup
}
