package providerfactory

import (
	"context"
	"fmt"
	"log/slog"

	"mercator-hq/quill/pkg/config"
	"mercator-hq/quill/pkg/providers"
	"mercator-hq/quill/pkg/providers/anthropic"
	"mercator-hq/quill/pkg/providers/bedrock"
	"mercator-hq/quill/pkg/providers/gemini"
	"mercator-hq/quill/pkg/providers/openai"
)

// Option configures provider construction.
type Option func(*options)

type options struct {
	onSign func(service string)
}

// WithSignObserver is passed to adapters that sign requests.
func WithSignObserver(fn func(service string)) Option {
	return func(o *options) {
		o.onSign = fn
	}
}

// FromConfig converts a configured provider entry into the adapter
// configuration.
func FromConfig(name string, cfg config.ProviderConfig) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:            name,
		Type:            cfg.Type,
		BaseURL:         cfg.BaseURL,
		APIKey:          cfg.APIKey,
		Model:           cfg.Model,
		Region:          cfg.Region,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		Timeout:         cfg.Timeout,
		MaxRetries:      cfg.MaxRetries,
	}
}

// NewProvider creates the adapter selected by config.Type, inferring the
// type from the name when it is empty.
//
// Supported types: openai, anthropic, gemini, bedrock.
func NewProvider(cfg providers.ProviderConfig, opts ...Option) (providers.Provider, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.Type == "" {
		cfg.Type = config.InferProviderType(cfg.Name)
	}

	slog.Debug("creating provider", "provider", cfg)

	var (
		provider providers.Provider
		err      error
	)
	switch cfg.Type {
	case providers.TypeOpenAI:
		provider, err = openai.NewProvider(cfg)
	case providers.TypeAnthropic:
		provider, err = anthropic.NewProvider(cfg)
	case providers.TypeGemini:
		provider, err = gemini.NewProvider(cfg)
	case providers.TypeBedrock:
		var bedrockOpts []bedrock.Option
		if o.onSign != nil {
			bedrockOpts = append(bedrockOpts, bedrock.WithSignObserver(o.onSign))
		}
		provider, err = bedrock.NewProvider(cfg, bedrockOpts...)
	default:
		return nil, &providers.ConfigError{
			Provider: cfg.Name,
			Field:    "type",
			Message:  fmt.Sprintf("unsupported provider type: %q (supported: openai, anthropic, gemini, bedrock)", cfg.Type),
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create provider %q: %w", cfg.Name, err)
	}

	return provider, nil
}

// NewProviderWithHealthCheck creates a provider and starts its background
// health checker, bound to ctx.
func NewProviderWithHealthCheck(ctx context.Context, cfg providers.ProviderConfig, opts ...Option) (providers.Provider, error) {
	provider, err := NewProvider(cfg, opts...)
	if err != nil {
		return nil, err
	}

	type healthCheckStarter interface {
		StartHealthChecker(context.Context)
	}
	if hcs, ok := provider.(healthCheckStarter); ok {
		hcs.StartHealthChecker(ctx)
	}

	return provider, nil
}
