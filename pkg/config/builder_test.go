package config

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg *Config
}

// NewTestConfig creates a new ConfigBuilder with sensible defaults for testing.
// The resulting configuration is valid and can be used immediately.
func NewTestConfig() *ConfigBuilder {
	cfg := Default()
	cfg.Providers["openai"] = ProviderConfig{
		Type:       "openai",
		BaseURL:    "https://api.openai.com/v1",
		APIKey:     "test-key",
		Model:      "gpt-4o-mini",
		Timeout:    DefaultProviderTimeout,
		MaxRetries: DefaultProviderMaxRetries,
	}
	cfg.Generation.DefaultProvider = "openai"
	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return b.cfg
}

// WithListenAddress sets the server listen address.
func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Server.ListenAddress = addr
	return b
}

// WithProvider adds or updates a provider configuration.
func (b *ConfigBuilder) WithProvider(name string, provider ProviderConfig) *ConfigBuilder {
	b.cfg.Providers[name] = provider
	return b
}

// WithStorageBackend sets the storage backend.
func (b *ConfigBuilder) WithStorageBackend(backend string) *ConfigBuilder {
	b.cfg.Storage.Backend = backend
	return b
}
