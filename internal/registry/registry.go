// Package registry maps content categories to the parser that handles them.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/JakeFAU/particle-harvester/internal/crawler"
)

// ErrFrozen is returned when registering after bootstrap has completed.
var ErrFrozen = errors.New("registry is frozen")

// Registry is a write-once/read-many mapping from category to Parser.
// Registration happens during bootstrap; after Freeze lookups take no lock.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]crawler.Parser
	frozen  atomic.Bool
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{parsers: make(map[string]crawler.Parser)}
}

// Register stores p under p.Category(), replacing any previous entry.
func (r *Registry) Register(p crawler.Parser) error {
	if p == nil {
		return errors.New("parser is required")
	}
	category := p.Category()
	if category == "" {
		return fmt.Errorf("parser %T has an empty category", p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return fmt.Errorf("register %q: %w", category, ErrFrozen)
	}
	r.parsers[category] = p
	return nil
}

// RegisterAll is the bootstrap entry point for a full parser set.
func (r *Registry) RegisterAll(parsers ...crawler.Parser) error {
	for _, p := range parsers {
		if err := r.Register(p); err != nil {
			return err
		}
	}
	return nil
}

// Freeze ends bootstrap. Subsequent Register calls fail with ErrFrozen.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen.Store(true)
}

// Lookup returns the parser registered for category. It never falls back to a default.
func (r *Registry) Lookup(category string) (crawler.Parser, bool) {
	if r.frozen.Load() {
		p, ok := r.parsers[category]
		return p, ok
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[category]
	return p, ok
}

// Categories lists the registered categories in sorted order.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.parsers))
	for c := range r.parsers {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
