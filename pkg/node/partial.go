package node

import (
	"bytes"
	"fmt"
	"io"

	"github.com/goliatone/go-mustache/pkg/scope"
)

// Partial is the {{>name}} tag: the named template is resolved and compiled
// through the engine's partial loader during Init, and every render executes
// that shared tree against the caller's stack. A standalone partial keeps
// its line's leading whitespace as indentation applied to each rendered
// line.
type Partial struct {
	Base

	indent   string
	resolve  Resolver
	template Node
}

// NewPartial returns a partial node; indent is the standalone indentation,
// empty for inline partials.
func NewPartial(cfg Config, name string, delims Delims, indent string) *Partial {
	return &Partial{
		Base:    newBase(cfg, name, KindPartial, ">", "", delims, nil),
		indent:  indent,
		resolve: cfg.Partials,
	}
}

// Init resolves and initializes the named template, exactly once. For a
// recursive partial the resolver returns the tree that is mid-compilation,
// whose own Init pass is already underway.
func (p *Partial) Init() error {
	return p.guard.do(func() error {
		if p.resolve == nil {
			return fmt.Errorf("node: partial %q: no partial source configured", p.name)
		}
		template, err := p.resolve(p.name)
		if err != nil {
			return fmt.Errorf("node: partial %q: %w", p.name, err)
		}
		p.template = template
		return p.template.Init()
	})
}

// Execute renders the included template against the same stack, indenting
// each output line when the partial was standalone, then writes the
// trailing text.
func (p *Partial) Execute(w io.Writer, stack scope.Stack) (io.Writer, error) {
	if p.template == nil {
		return w, fmt.Errorf("node: partial %q executed before init", p.name)
	}
	target := w
	if p.indent != "" {
		target = &indentWriter{w: w, indent: p.indent, bol: true}
	}
	if _, err := p.template.Execute(target, stack); err != nil {
		return w, err
	}
	return p.appendTrailing(w)
}

// Identity emits the partial tag itself, never the included tree, restoring
// the standalone indentation in front of it.
func (p *Partial) Identity(w io.Writer) error {
	if p.indent != "" {
		if _, err := io.WriteString(w, p.indent); err != nil {
			return fmt.Errorf("node: write tag %q: %w", p.name, err)
		}
	}
	return p.Base.Identity(w)
}

// Clone returns a shallow duplicate sharing the resolved template.
func (p *Partial) Clone() Node {
	dup := *p
	return &dup
}

// indentWriter prefixes every line that receives output with a fixed
// indentation. A trailing newline leaves the prefix pending, so nothing
// dangles after the final line.
type indentWriter struct {
	w      io.Writer
	indent string
	bol    bool
}

func (iw *indentWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		if iw.bol {
			if _, err := io.WriteString(iw.w, iw.indent); err != nil {
				return total, err
			}
			iw.bol = false
		}
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			n, err := iw.w.Write(p)
			return total + n, err
		}
		n, err := iw.w.Write(p[:i+1])
		total += n
		if err != nil {
			return total, err
		}
		iw.bol = true
		p = p[i+1:]
	}
	return total, nil
}
