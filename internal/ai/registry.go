package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ProviderFactory builds a Provider for one model. The factory runs on
// every Get so a provider can pick up per-call model overrides.
type ProviderFactory func(ctx context.Context, model string) (Provider, error)

// Registry maps provider names to factories. The binaries register the
// OpenAI-compatible provider under "openai" and select it through the
// AI_PROVIDER setting; the indirection keeps the door open for a second
// upstream without touching the orchestration layer.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ProviderFactory)}
}

// Register adds or replaces the factory for name. Names are
// case-insensitive.
func (r *Registry) Register(name string, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[normalize(name)] = factory
}

// Get builds a provider for the given name and model.
func (r *Registry) Get(ctx context.Context, name, model string) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[normalize(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("ai: no provider registered under %q", name)
	}
	return factory(ctx, model)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
