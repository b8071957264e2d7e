package provider

import (
	"sync"

	"github.com/andrevalim/pixhub/pkg/domain"
)

// Registry holds the configured adapters keyed by slug. The orchestrator
// selects one per request; webhook routes resolve the adapter from the
// URL path.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under its slug, replacing any previous one.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Slug()] = a
}

// Get returns the adapter for slug or domain.ErrUnknownProvider.
func (r *Registry) Get(slug string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[slug]
	if !ok {
		return nil, domain.ErrUnknownProvider
	}
	return a, nil
}

// Slugs lists the registered adapter slugs.
func (r *Registry) Slugs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.adapters))
	for slug := range r.adapters {
		out = append(out, slug)
	}
	return out
}
