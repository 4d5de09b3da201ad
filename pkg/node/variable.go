package node

import (
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-mustache/pkg/scope"
)

// VarForm distinguishes the three interpolation spellings, which differ in
// escaping and in the markup Identity must reproduce.
type VarForm int

const (
	// FormEscaped is {{name}}: output passes through the engine escaper.
	FormEscaped VarForm = iota
	// FormRaw is {{&name}}: output bypasses escaping.
	FormRaw
	// FormTriple is {{{name}}}: raw output, triple-mustache spelling.
	FormTriple
)

// Variable interpolates a resolved value. A value that is a lambda is
// invoked, its result expanded as a template against the current stack, and
// the rendered text treated as the value.
type Variable struct {
	Base

	raw       bool
	escape    func(string) string
	sanitize  func(string) string
	strict    bool
	recompile Recompiler
}

// NewVariable returns an interpolation node for name in the given form.
func NewVariable(cfg Config, name string, form VarForm, delims Delims) *Variable {
	sigil, suffix := "", ""
	switch form {
	case FormRaw:
		sigil = "&"
	case FormTriple:
		sigil, suffix = "{", "}"
	}
	return &Variable{
		Base:      newBase(cfg, name, KindVariable, sigil, suffix, delims, nil),
		raw:       form != FormEscaped,
		escape:    cfg.Escape,
		sanitize:  cfg.Sanitize,
		strict:    cfg.Strict,
		recompile: cfg.Recompile,
	}
}

// Execute resolves the variable and writes its interpolated value, then the
// trailing text. Absent values render empty, or fail with ErrMissingValue
// under strict mode.
func (v *Variable) Execute(w io.Writer, stack scope.Stack) (io.Writer, error) {
	val := v.Get(stack)
	if fn, ok := variableLambda(val); ok {
		expanded, err := v.expand(fn, stack)
		if err != nil {
			return w, err
		}
		val = expanded
	}
	if val == nil {
		if v.strict {
			return w, fmt.Errorf("node: variable %q: %w", v.name, ErrMissingValue)
		}
		return v.appendTrailing(w)
	}

	out := stringify(val)
	switch {
	case !v.raw && v.escape != nil:
		out = v.escape(out)
	case v.raw && v.sanitize != nil:
		out = v.sanitize(out)
	}
	if _, err := io.WriteString(w, out); err != nil {
		return w, fmt.Errorf("node: write variable %q: %w", v.name, err)
	}
	return v.appendTrailing(w)
}

// expand invokes an interpolation lambda and renders its result as a
// template with the default delimiters against the current stack.
func (v *Variable) expand(fn func() (string, error), stack scope.Stack) (any, error) {
	src, err := fn()
	if err != nil {
		return nil, fmt.Errorf("node: lambda %q: %w", v.name, err)
	}
	if v.recompile == nil {
		return src, nil
	}
	tree, err := v.recompile(src, DefaultDelims)
	if err != nil {
		return nil, fmt.Errorf("node: lambda %q: %w", v.name, err)
	}
	var buf strings.Builder
	if _, err := tree.Execute(&buf, stack); err != nil {
		return nil, fmt.Errorf("node: lambda %q: %w", v.name, err)
	}
	return buf.String(), nil
}

// Clone returns a shallow duplicate sharing the binding.
func (v *Variable) Clone() Node {
	dup := *v
	return &dup
}
