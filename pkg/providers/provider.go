package providers

import "context"

// Provider is implemented by every model provider adapter (OpenAI,
// Anthropic, Gemini, Bedrock). Adapters translate the provider-agnostic
// CompletionRequest into the provider's wire format and normalize the reply.
//
// All methods that perform I/O accept a context.Context and must return
// promptly once it is cancelled.
//
//	resp, err := provider.SendCompletion(ctx, &providers.CompletionRequest{
//	    Model:    "gpt-4o-mini",
//	    Messages: []providers.Message{{Role: providers.RoleUser, Content: "Hello"}},
//	})
type Provider interface {
	// SendCompletion sends a single, non-streaming completion request.
	// Transient failures (5xx, network errors) are retried with exponential
	// backoff; authentication, validation and rate limit errors are not.
	SendCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// HealthCheck probes the provider and returns nil when it is reachable.
	HealthCheck(ctx context.Context) error

	// GetName returns the configured provider name.
	GetName() string

	// GetType returns the adapter type ("openai", "anthropic", "gemini", "bedrock").
	GetType() string

	// GetConfig returns the provider configuration.
	GetConfig() ProviderConfig

	// IsHealthy reports the current health status.
	IsHealthy() bool

	// GetHealth returns detailed health information.
	GetHealth() ProviderHealth

	// Close releases connections and stops any background health checker.
	Close() error
}
