package mustache

import (
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/goliatone/go-mustache/pkg/scope"
)

// Option customizes an Engine at construction time.
type Option func(*Engine)

// WithDelimiters sets the starting tag delimiters, "{{" and "}}" by
// default. Templates can still switch delimiters mid-source with a
// {{=<% %>=}} tag.
func WithDelimiters(open, close string) Option {
	return func(e *Engine) {
		if open != "" && close != "" {
			e.delims = Delims{Open: open, Close: close}
		}
	}
}

// WithPartials sets the source {{>name}} tags load templates from.
func WithPartials(partials Partials) Option {
	return func(e *Engine) {
		e.partials = partials
	}
}

// WithBinder replaces the reflection-based value resolver. Embedders use
// this to change lookup semantics without touching the node tree.
func WithBinder(binder scope.Binder) Option {
	return func(e *Engine) {
		if binder != nil {
			e.binder = binder
		}
	}
}

// WithEscape replaces the escaping applied to {{name}} interpolations; the
// default is HTML entity escaping. A nil fn disables escaping.
func WithEscape(fn func(string) string) Option {
	return func(e *Engine) {
		e.escape = fn
	}
}

// WithRawSanitizer filters raw interpolations ({{{name}}} and {{&name}})
// through a bluemonday policy. Raw output is unfiltered by default; pass
// DefaultRawPolicy() for a sensible user-generated-content policy.
func WithRawSanitizer(policy *bluemonday.Policy) Option {
	return func(e *Engine) {
		if policy == nil {
			e.sanitize = nil
			return
		}
		e.sanitize = policy.Sanitize
	}
}

// WithStrictMissing makes a variable that no scope resolves fail the render
// with ErrMissingValue instead of rendering empty.
func WithStrictMissing(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// WithLogger sets the logger for compile and render diagnostics, emitted at
// Debug level. The default is a no-op logger; nil restores it.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger == nil {
			logger = zap.NewNop()
		}
		e.logger = logger
	}
}
