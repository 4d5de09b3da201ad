// Package mustache is a logic-less template engine. Templates compile to a
// tree of nodes (pkg/node) that renders against a stack of data scopes;
// values resolve by reflection over maps, methods, and struct fields with a
// guarded per-tag cache (internal/resolve). A compiled template is immutable
// and safe to render concurrently.
//
//	out, err := mustache.Render("Hello, {{name}}!", map[string]any{"name": "world"})
//
// Engines carry cross-cutting configuration (delimiters, partial sources,
// escaping, strict mode, logging) through functional options; see New.
package mustache

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-mustache/internal/parse"
	"github.com/goliatone/go-mustache/internal/resolve"
	"github.com/goliatone/go-mustache/pkg/node"
	"github.com/goliatone/go-mustache/pkg/scope"
)

// Aliases for the types most callers touch, so importing the root package is
// enough.
type (
	// Stack is the ordered sequence of data scopes a render resolves
	// names against, outermost first.
	Stack = scope.Stack
	// Delims is a tag delimiter pair.
	Delims = node.Delims
	// ParseError is a positional compile failure.
	ParseError = parse.Error
)

// ErrPartialNotFound marks a partial tag whose name no configured source can
// supply. It surfaces during Compile, wrapped with the partial's name.
var ErrPartialNotFound = errors.New("partial not found")

// Engine holds the configuration shared by every template it compiles, plus
// the compiled-partial cache. Construct with New; the zero value is not
// usable.
type Engine struct {
	binder   scope.Binder
	escape   func(string) string
	sanitize func(string) string
	strict   bool
	delims   node.Delims
	partials Partials
	logger   *zap.Logger

	// mu serializes partial compilation; compiled maps partial names to
	// their shared trees, registered before body parse so recursive
	// partials resolve to the tree that is mid-compilation.
	mu       sync.Mutex
	compiled map[string]*node.Root
}

// New returns an engine with the default configuration: mustache delimiters,
// HTML escaping, reflection-based resolution, lenient missing values, no
// partials, and a no-op logger.
func New(opts ...Option) *Engine {
	e := &Engine{
		binder:   resolve.New(),
		escape:   htmlEscape,
		delims:   node.DefaultDelims,
		logger:   zap.NewNop(),
		compiled: make(map[string]*node.Root),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// config assembles the node-level collaborators for a compile pass.
func (e *Engine) config() node.Config {
	return node.Config{
		Binder:    e.binder,
		Escape:    e.escape,
		Sanitize:  e.sanitize,
		Strict:    e.strict,
		Recompile: e.recompile,
		Partials:  e.loadPartial,
	}
}

// recompile expands lambda results: parse under the given delimiters,
// initialize, and hand the tree back for immediate execution.
func (e *Engine) recompile(src string, delims node.Delims) (node.Node, error) {
	root, err := parse.New(e.config(), delims).Parse("lambda", src)
	if err != nil {
		return nil, err
	}
	if err := root.Init(); err != nil {
		return nil, err
	}
	return root, nil
}

// loadPartial resolves a partial tag to its compiled tree, compiling and
// caching on first use. The placeholder registration before ParseInto is
// load-bearing: a partial that includes itself finds the placeholder in the
// cache and shares the tree being built.
func (e *Engine) loadPartial(name string) (node.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if root, ok := e.compiled[name]; ok {
		return root, nil
	}
	if e.partials == nil {
		return nil, fmt.Errorf("mustache: %q: %w", name, ErrPartialNotFound)
	}
	src, err := e.partials.Source(name)
	if err != nil {
		return nil, err
	}

	root := node.NewRoot(e.delims)
	e.compiled[name] = root
	if err := parse.New(e.config(), e.delims).ParseInto(root, name, src); err != nil {
		delete(e.compiled, name)
		return nil, err
	}
	return root, nil
}

// Compile parses and initializes src into a renderable template. Partial
// tags are resolved and compiled here, so missing partials fail Compile,
// not Render.
func (e *Engine) Compile(name, src string) (*Template, error) {
	start := time.Now()
	root, err := parse.New(e.config(), e.delims).Parse(name, src)
	if err == nil {
		err = root.Init()
	}
	if err != nil {
		e.logger.Debug("compile failed", zap.String("template", name), zap.Error(err))
		return nil, err
	}
	e.logger.Debug("compiled template",
		zap.String("template", name),
		zap.Duration("elapsed", time.Since(start)))
	return &Template{name: name, root: root, engine: e}, nil
}

// CompileReader reads all of r and compiles it.
func (e *Engine) CompileReader(name string, r io.Reader) (*Template, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("mustache: read template %q: %w", name, err)
	}
	return e.Compile(name, string(src))
}

// Render compiles src and renders it against data in one call. data values
// become the initial scope stack, outermost first.
func (e *Engine) Render(src string, data ...any) (string, error) {
	t, err := e.Compile("inline", src)
	if err != nil {
		return "", err
	}
	return t.Render(data...)
}

// Template is a compiled, initialized, immutable tree. All methods are safe
// to call concurrently.
type Template struct {
	name   string
	root   *node.Root
	engine *Engine
}

// Name returns the name the template was compiled under.
func (t *Template) Name() string { return t.name }

// Root exposes the compiled tree for host tooling.
func (t *Template) Root() *node.Root { return t.root }

// Render renders against data and returns the output as a string.
func (t *Template) Render(data ...any) (string, error) {
	var buf strings.Builder
	if _, err := t.RenderWriter(&buf, data...); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderWriter renders into w; data values become the scope stack,
// outermost first.
func (t *Template) RenderWriter(w io.Writer, data ...any) (io.Writer, error) {
	return t.RenderStack(w, scope.NewStack(data...))
}

// RenderStack renders against an explicit scope stack. It returns the
// writer the tree's execution handed back, supporting chained composition.
func (t *Template) RenderStack(w io.Writer, stack scope.Stack) (io.Writer, error) {
	start := time.Now()
	w, err := t.root.Execute(w, stack)
	if err != nil {
		t.engine.logger.Debug("render failed", zap.String("template", t.name), zap.Error(err))
		return w, fmt.Errorf("mustache: render %q: %w", t.name, err)
	}
	t.engine.logger.Debug("rendered template",
		zap.String("template", t.name),
		zap.Duration("elapsed", time.Since(start)))
	return w, nil
}

// Source writes the reconstructed template source: the markup each node was
// compiled from, independent of any data.
func (t *Template) Source(w io.Writer) error {
	if err := t.root.Identity(w); err != nil {
		return fmt.Errorf("mustache: reconstruct %q: %w", t.name, err)
	}
	return nil
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Default returns the shared default engine used by the package-level
// helpers.
func Default() *Engine {
	defaultOnce.Do(func() { defaultEngine = New() })
	return defaultEngine
}

// Compile compiles src with the default engine.
func Compile(name, src string) (*Template, error) {
	return Default().Compile(name, src)
}

// Render compiles and renders src with the default engine.
func Render(src string, data ...any) (string, error) {
	return Default().Render(src, data...)
}

// Must panics on compile failure. Useful for templates wired at init time.
func Must(t *Template, err error) *Template {
	if err != nil {
		panic(err)
	}
	return t
}
