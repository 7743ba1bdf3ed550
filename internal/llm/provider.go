// Package llm defines the answer-generation provider interface used by
// ask, and the registry used to select one by name. The only built-in is
// "none": retrieval still works and ask returns context without an answer.
package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNoProvider is returned by the "none" provider.
var ErrNoProvider = errors.New("llm: no provider configured")

// Provider generates an answer from a question and assembled context.
type Provider interface {
	Answer(ctx context.Context, question, contextText string) (string, error)
	Close() error
}

// Options carry provider construction parameters from config.
type Options struct {
	Model string
}

// Factory builds a Provider from options.
type Factory func(opts Options) (Provider, error)

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
func New(name string, opts Options) (Provider, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("llm: unknown provider %q (registered: %v)", name, Providers())
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
	Register("none", func(opts Options) (Provider, error) {
		return noneProvider{}, nil
	})
}

type noneProvider struct{}

func (noneProvider) Answer(ctx context.Context, question, contextText string) (string, error) {
	return "", ErrNoProvider
}

func (noneProvider) Close() error { return nil }

// Enabled reports whether p can actually generate answers.
func Enabled(p Provider) bool {
	if p == nil {
		return false
	}
	_, isNone := p.(noneProvider)
	return !isNone
}
