// Package embedding defines the embedding provider interface and the
// registry used to select one by name. Real network providers are plugged
// in through Register; the built-ins are "none" and "mock".
package embedding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNoProvider is returned by the "none" provider and by callers that
// need embeddings when none are configured.
var ErrNoProvider = errors.New("embedding: no provider configured")

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// Options carry provider construction parameters from config.
type Options struct {
	Model      string
	Dimensions int
}

// Factory builds an Embedder from options.
type Factory func(opts Options) (Embedder, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register installs a provider factory under name. Later registrations
// replace earlier ones.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// New constructs the provider registered under name.
func New(name string, opts Options) (Embedder, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("embedding: unknown provider %q (registered: %v)", name, Providers())
	}
	return f(opts)
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("none", func(opts Options) (Embedder, error) {
		return &noneEmbedder{dimensions: opts.Dimensions}, nil
	})
	Register("mock", func(opts Options) (Embedder, error) {
		return NewMockEmbedder(opts.Dimensions), nil
	})
}

// noneEmbedder fails every embed call. It exists so callers can hold a
// non-nil Embedder and decide at call sites whether to fall back to
// keyword-only behavior.
type noneEmbedder struct {
	dimensions int
}

func (e *noneEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, ErrNoProvider
}

func (e *noneEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, ErrNoProvider
}

func (e *noneEmbedder) Dimensions() int { return e.dimensions }

func (e *noneEmbedder) Close() error { return nil }

// Enabled reports whether embedder can actually produce vectors.
func Enabled(e Embedder) bool {
	if e == nil {
		return false
	}
	_, isNone := e.(*noneEmbedder)
	if isNone {
		return false
	}
	if c, ok := e.(*CachedEmbedder); ok {
		return Enabled(c.inner)
	}
	return true
}
