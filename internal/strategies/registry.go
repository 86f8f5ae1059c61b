// Package strategies provides the edition registry and the in-memory store that
// loads, caches and queries Oblique Strategies editions.
package strategies

import (
	apierrors "github.com/olgasafonova/oblique-strategies-mcp-server/internal/errors"
)

// DefaultEdition is the key of the edition used when none, or an unknown one, is requested.
const DefaultEdition = "edition-2"

// Edition maps a stable edition key to its source file name within the corpus root.
type Edition struct {
	Key    string
	Source string
}

// builtinEditions is the compiled-in registry, in listing order.
var builtinEditions = []Edition{
	{Key: "edition-1", Source: "oblique-strategies-edition-1.txt"},
	{Key: "edition-2", Source: "oblique-strategies-edition-2.txt"},
	{Key: "edition-3", Source: "oblique-strategies-edition-3.txt"},
	{Key: "edition-4", Source: "oblique-strategies-edition-4.txt"},
	{Key: "condensed", Source: "oblique-strategies-condensed.txt"},
	{Key: "programmers", Source: "prompts-for-programmers.txt"},
	{Key: "do-it", Source: "do-it-abridged.txt"},
}

// Registry is a fixed, ordered set of editions with exactly one default.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	editions   []Edition
	index      map[string]int
	defaultKey string
}

// NewRegistry validates and builds a registry. Keys must be non-empty and unique,
// sources non-empty, and defaultKey must name one of the editions.
func NewRegistry(defaultKey string, editions ...Edition) (*Registry, error) {
	r := &Registry{
		editions:   make([]Edition, 0, len(editions)),
		index:      make(map[string]int, len(editions)),
		defaultKey: defaultKey,
	}
	for _, e := range editions {
		if e.Key == "" {
			return nil, apierrors.NewValidationError("key", "", "edition key is required")
		}
		if e.Source == "" {
			return nil, apierrors.NewValidationError("source", e.Key, "edition source is required")
		}
		if _, dup := r.index[e.Key]; dup {
			return nil, apierrors.NewValidationError("key", e.Key, "duplicate edition key")
		}
		r.index[e.Key] = len(r.editions)
		r.editions = append(r.editions, e)
	}
	if _, ok := r.index[defaultKey]; !ok {
		return nil, apierrors.NewValidationError("default_edition", defaultKey, "not present in registry")
	}
	return r, nil
}

// DefaultRegistry returns the compiled-in edition registry.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultEdition, builtinEditions...)
	if err != nil {
		panic("strategies: invalid builtin registry: " + err.Error())
	}
	return r
}

// DefaultKey returns the default edition key.
func (r *Registry) DefaultKey() string {
	return r.defaultKey
}

// Has reports whether key is a registered edition.
func (r *Registry) Has(key string) bool {
	_, ok := r.index[key]
	return ok
}

// Lookup returns the edition registered under key.
func (r *Registry) Lookup(key string) (Edition, bool) {
	i, ok := r.index[key]
	if !ok {
		return Edition{}, false
	}
	return r.editions[i], true
}

// Resolve returns the edition for key, substituting the default for unknown keys.
func (r *Registry) Resolve(key string) Edition {
	if e, ok := r.Lookup(key); ok {
		return e
	}
	return r.editions[r.index[r.defaultKey]]
}

// Keys returns edition keys in registry order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.editions))
	for i, e := range r.editions {
		keys[i] = e.Key
	}
	return keys
}

// Editions returns a copy of the registered editions in registry order.
func (r *Registry) Editions() []Edition {
	out := make([]Edition, len(r.editions))
	copy(out, r.editions)
	return out
}
