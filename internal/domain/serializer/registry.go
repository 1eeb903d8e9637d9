package serializer

import (
	"sort"
	"sync"

	"github.com/jsamuelsen/quote-engine/internal/domain"
)

// Built-in variant names.
const (
	NameSimple           = "simple"
	NameRateCard         = "rate-card"
	NameBroadcastPattern = "broadcast-pattern"
)

// Factory builds a serializer instance.
type Factory func() (LineSerializer, error)

// Registry resolves line type serializer names to instances.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	aliases   map[string]string
}

// NewRegistry returns a registry with the built-in variants registered.
func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		aliases:   make(map[string]string),
	}

	r.Register(NameSimple, NewSimple)
	r.Register(NameRateCard, NewRateCard)
	r.Register(NameBroadcastPattern, NewBroadcastPattern)

	return r
}

// Register adds or replaces a variant.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[name] = f
}

// Alias makes alias resolve to the registered variant target. Aliases are
// not chained.
func (r *Registry) Alias(alias, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[target]; !ok {
		return domain.NewPluginResolutionError(target, "alias target is not registered")
	}

	r.aliases[alias] = target

	return nil
}

// Resolve returns a serializer for name. Unknown names and failing
// factories yield a *domain.PluginResolutionError.
func (r *Registry) Resolve(name string) (LineSerializer, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	if !ok {
		if target, aliased := r.aliases[name]; aliased {
			f, ok = r.factories[target]
		}
	}
	r.mu.RUnlock()

	if !ok {
		return nil, domain.NewPluginResolutionError(name, "")
	}

	s, err := f()
	if err != nil {
		return nil, domain.NewPluginResolutionError(name, err.Error())
	}

	if s == nil {
		return nil, domain.NewPluginResolutionError(name, "factory returned no serializer")
	}

	return s, nil
}

// Names lists the registered variants and aliases.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories)+len(r.aliases))
	for n := range r.factories {
		names = append(names, n)
	}

	for a := range r.aliases {
		names = append(names, a)
	}

	sort.Strings(names)

	return names
}
