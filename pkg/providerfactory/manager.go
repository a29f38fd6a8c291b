package providerfactory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"mercator-hq/quill/pkg/config"
	"mercator-hq/quill/pkg/providers"
)

// ErrProviderNotFound is returned when no provider is registered under a
// name.
var ErrProviderNotFound = errors.New("provider not found")

// Manager is a thread-safe registry of named providers.
type Manager struct {
	providers map[string]providers.Provider
	mu        sync.RWMutex

	opts []Option

	// healthChecks enables background health checkers for added providers.
	healthChecks bool

	ctx    context.Context
	cancel context.CancelFunc
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithProviderOptions passes opts to every provider the manager creates.
func WithProviderOptions(opts ...Option) ManagerOption {
	return func(m *Manager) {
		m.opts = append(m.opts, opts...)
	}
}

// WithHealthChecks starts a background health checker for each provider.
func WithHealthChecks() ManagerOption {
	return func(m *Manager) {
		m.healthChecks = true
	}
}

// NewManager creates an empty manager.
func NewManager(opts ...ManagerOption) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		providers: make(map[string]providers.Provider),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddProvider creates a provider from cfg and registers it, closing any
// provider previously registered under the same name.
func (m *Manager) AddProvider(cfg providers.ProviderConfig) error {
	var (
		provider providers.Provider
		err      error
	)
	if m.healthChecks {
		provider, err = NewProviderWithHealthCheck(m.ctx, cfg, m.opts...)
	} else {
		provider, err = NewProvider(cfg, m.opts...)
	}
	if err != nil {
		return fmt.Errorf("failed to add provider %q: %w", cfg.Name, err)
	}

	m.Register(provider)
	return nil
}

// Register adds an already constructed provider.
func (m *Manager) Register(provider providers.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := provider.GetName()
	if existing, ok := m.providers[name]; ok {
		slog.Warn("replacing existing provider", "name", name)
		existing.Close()
	}
	m.providers[name] = provider

	slog.Info("provider registered",
		"name", name,
		"type", provider.GetType(),
		"total_providers", len(m.providers),
	)
}

// RemoveProvider closes and unregisters a provider.
func (m *Manager) RemoveProvider(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	provider, ok := m.providers[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	if err := provider.Close(); err != nil {
		slog.Error("error closing provider", "name", name, "error", err)
	}
	delete(m.providers, name)

	slog.Info("provider removed", "name", name, "remaining_providers", len(m.providers))
	return nil
}

// GetProvider returns a provider by name.
func (m *Manager) GetProvider(name string) (providers.Provider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	provider, ok := m.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	return provider, nil
}

// GetProviderNames returns the registered names in sorted order.
func (m *Manager) GetProviderNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetHealthyProviders returns a copy of the healthy subset.
func (m *Manager) GetHealthyProviders() map[string]providers.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()

	healthy := make(map[string]providers.Provider)
	for name, provider := range m.providers {
		if provider.IsHealthy() {
			healthy[name] = provider
		}
	}
	return healthy
}

// ProviderCount returns the number of registered providers.
func (m *Manager) ProviderCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.providers)
}

// LoadFromConfig adds every configured provider. Failures are logged and
// joined into the returned error; the remaining providers are still added.
func (m *Manager) LoadFromConfig(configs map[string]config.ProviderConfig) error {
	var errs []error
	for _, name := range sortedNames(configs) {
		if err := m.AddProvider(FromConfig(name, configs[name])); err != nil {
			slog.Error("failed to load provider", "name", name, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Reload makes the registry match configs: configured providers are
// (re)created and providers no longer configured are removed.
func (m *Manager) Reload(configs map[string]config.ProviderConfig) error {
	for _, name := range m.GetProviderNames() {
		if _, ok := configs[name]; !ok {
			_ = m.RemoveProvider(name)
		}
	}
	return m.LoadFromConfig(configs)
}

// Close stops health checkers and closes every provider.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancel()

	var errs []error
	for name, provider := range m.providers {
		if err := provider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close provider %q: %w", name, err))
		}
	}
	m.providers = make(map[string]providers.Provider)

	return errors.Join(errs...)
}

// HealthSummary is an overview of provider health.
type HealthSummary struct {
	Total     int                                 `json:"total"`
	Healthy   int                                 `json:"healthy"`
	Unhealthy int                                 `json:"unhealthy"`
	Details   map[string]providers.ProviderHealth `json:"-"`
}

// GetHealthSummary summarizes provider health.
func (m *Manager) GetHealthSummary() HealthSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := HealthSummary{
		Total:   len(m.providers),
		Details: make(map[string]providers.ProviderHealth, len(m.providers)),
	}
	for name, provider := range m.providers {
		health := provider.GetHealth()
		summary.Details[name] = health
		if health.IsHealthy {
			summary.Healthy++
		}
	}
	summary.Unhealthy = summary.Total - summary.Healthy
	return summary
}

func sortedNames(configs map[string]config.ProviderConfig) []string {
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
