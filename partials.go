package mustache

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"sync"
)

// Partials supplies template source for {{>name}} tags. Loading and caching
// policy stays with the implementation; the engine caches compiled trees,
// never raw source.
type Partials interface {
	Source(name string) (string, error)
}

// PartialMap serves partials from an in-memory map of name to source.
type PartialMap map[string]string

// Source returns the named source or ErrPartialNotFound.
func (m PartialMap) Source(name string) (string, error) {
	src, ok := m[name]
	if !ok {
		return "", fmt.Errorf("mustache: %q: %w", name, ErrPartialNotFound)
	}
	return src, nil
}

// PartialsFromFS serves partials from a file system, resolving a name to
// the first existing file among name and name+ext for each extension;
// ".mustache" is tried when no extensions are given.
func PartialsFromFS(fsys fs.FS, exts ...string) Partials {
	if len(exts) == 0 {
		exts = []string{".mustache"}
	}
	return &fsPartials{fsys: fsys, exts: exts}
}

type fsPartials struct {
	fsys fs.FS
	exts []string
}

func (p *fsPartials) Source(name string) (string, error) {
	candidates := make([]string, 0, len(p.exts)+1)
	candidates = append(candidates, name)
	for _, ext := range p.exts {
		candidates = append(candidates, name+ext)
	}
	for _, path := range candidates {
		src, err := fs.ReadFile(p.fsys, path)
		if err == nil {
			return string(src), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("mustache: read partial %q: %w", name, err)
		}
	}
	return "", fmt.Errorf("mustache: %q: %w", name, ErrPartialNotFound)
}

// PartialRegistry stores partial sources by name with duplicate safeguards,
// for hosts that assemble their partial set programmatically.
type PartialRegistry struct {
	mu      sync.RWMutex
	sources map[string]string
}

// NewPartialRegistry creates an empty registry.
func NewPartialRegistry() *PartialRegistry {
	return &PartialRegistry{sources: make(map[string]string)}
}

// Register adds a partial source. Duplicate names return an error.
func (r *PartialRegistry) Register(name, src string) error {
	if name == "" {
		return fmt.Errorf("mustache: partial name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[name]; exists {
		return fmt.Errorf("mustache: partial %q already registered", name)
	}
	r.sources[name] = src
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *PartialRegistry) MustRegister(name, src string) {
	if err := r.Register(name, src); err != nil {
		panic(err)
	}
}

// Source returns the named source or ErrPartialNotFound.
func (r *PartialRegistry) Source(name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src, ok := r.sources[name]
	if !ok {
		return "", fmt.Errorf("mustache: %q: %w", name, ErrPartialNotFound)
	}
	return src, nil
}

// Has reports whether a partial is registered.
func (r *PartialRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.sources[name]
	return ok
}

// List returns the sorted registered names.
func (r *PartialRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
