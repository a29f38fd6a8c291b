// Package providers is the model provider abstraction used by the
// generation service.
//
// # Architecture
//
//  1. Provider: the interface every adapter implements.
//  2. HTTPProvider: shared HTTP plumbing (connection pooling, retries via
//     retry-go with exponential backoff, health accounting, background
//     health checks).
//  3. Adapters in subpackages: openai, anthropic, gemini and bedrock.
//     Only the bedrock adapter signs requests (AWS Signature Version 4).
//
// Providers are built from configuration by the providerfactory package.
//
// # Usage
//
//	provider, err := openai.NewProvider(providers.ProviderConfig{
//	    Name:    "openai",
//	    Type:    providers.TypeOpenAI,
//	    BaseURL: "https://api.openai.com/v1",
//	    APIKey:  os.Getenv("OPENAI_API_KEY"),
//	    Model:   "gpt-4o-mini",
//	    Timeout: 60 * time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
//
//	resp, err := provider.SendCompletion(ctx, &providers.CompletionRequest{
//	    Messages: []providers.Message{{Role: providers.RoleUser, Content: "Hello"}},
//	})
//
// # Errors
//
// Failures are typed: AuthError (401/403), RateLimitError (429),
// TimeoutError, ParseError, ValidationError, ConfigError and ProviderError
// for everything else. ErrorType maps any of them to a short label for
// metrics and API responses. Only 5xx responses and transport errors are
// retried.
package providers
