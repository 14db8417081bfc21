package registry

import (
	"sort"
	"sync"

	"github.com/Tomas-vilte/MateGrade/internal/ai/gemini"
	"github.com/Tomas-vilte/MateGrade/internal/config"
	domainErrors "github.com/Tomas-vilte/MateGrade/internal/errors"
	"github.com/Tomas-vilte/MateGrade/internal/ports"
)

// ProviderFactory creates text generators for one AI provider.
type ProviderFactory interface {
	// CreateGenerator builds a generator from the configuration.
	CreateGenerator(cfg *config.Config) (ports.TextGenerator, error)

	// ValidateConfig validates the configuration for this provider.
	ValidateConfig(cfg *config.Config) error

	// Name returns the provider name used in ai.provider.
	Name() string
}

// ProviderRegistry maps provider names to their factories.
type ProviderRegistry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		factories: make(map[string]ProviderFactory),
	}
}

// NewDefaultRegistry returns a registry with the built-in providers.
func NewDefaultRegistry() *ProviderRegistry {
	r := NewProviderRegistry()
	_ = r.Register(gemini.ProviderName, gemini.ProviderFactory{})
	return r
}

func (r *ProviderRegistry) Register(name string, factory ProviderFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return domainErrors.ErrConfigInvalid.WithContext("provider", name).
			WithSuggestion("AI provider is already registered")
	}

	r.factories[name] = factory
	return nil
}

func (r *ProviderRegistry) Get(name string) (ProviderFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[name]
	if !exists {
		return nil, domainErrors.ErrProviderNotFound.WithContext("provider", name)
	}

	return factory, nil
}

// List returns the registered provider names, sorted.
func (r *ProviderRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]string, 0, len(r.factories))
	for name := range r.factories {
		providers = append(providers, name)
	}
	sort.Strings(providers)
	return providers
}

func (r *ProviderRegistry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[name]
	return exists
}

// CreateGenerator resolves cfg.AI.Provider and builds its generator.
func (r *ProviderRegistry) CreateGenerator(cfg *config.Config) (ports.TextGenerator, error) {
	factory, err := r.Get(cfg.AI.Provider)
	if err != nil {
		return nil, err
	}
	return factory.CreateGenerator(cfg)
}
