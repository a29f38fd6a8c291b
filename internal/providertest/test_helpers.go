package providertest

import (
	"context"
	"sync"
	"time"

	"mercator-hq/quill/pkg/providers"
)

// Config returns an adapter configuration suitable for tests: short
// timeouts and millisecond retry delays.
func Config(name, providerType string) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:                name,
		Type:                providerType,
		BaseURL:             "http://localhost:8080",
		APIKey:              "test-key",
		Model:               "test-model",
		Timeout:             5 * time.Second,
		MaxRetries:          2,
		RetryDelay:          time.Millisecond,
		HealthCheckInterval: time.Second,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     30 * time.Second,
	}
}

// ConfigWithURL returns Config pointed at baseURL.
func ConfigWithURL(name, providerType, baseURL string) providers.ProviderConfig {
	config := Config(name, providerType)
	config.BaseURL = baseURL
	return config
}

// UserRequest builds a single-message completion request.
func UserRequest(model, content string) *providers.CompletionRequest {
	return &providers.CompletionRequest{
		Model:       model,
		Messages:    []providers.Message{{Role: providers.RoleUser, Content: content}},
		Temperature: 0.2,
		MaxTokens:   256,
	}
}

// StubProvider is an in-memory providers.Provider returning a fixed reply
// or error. It records the requests it receives.
type StubProvider struct {
	Name    string
	Type    string
	Model   string
	Reply   string
	Err     error
	Healthy bool

	mu       sync.Mutex
	requests []*providers.CompletionRequest
	closed   bool
}

// NewStubProvider returns a healthy stub replying with reply.
func NewStubProvider(name, reply string) *StubProvider {
	return &StubProvider{
		Name:    name,
		Type:    providers.TypeOpenAI,
		Model:   "stub-model",
		Reply:   reply,
		Healthy: true,
	}
}

// SendCompletion implements providers.Provider.
func (s *StubProvider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	model := req.Model
	if model == "" {
		model = s.Model
	}
	return &providers.CompletionResponse{
		ID:           "stub-1",
		Model:        model,
		Content:      s.Reply,
		FinishReason: providers.FinishReasonStop,
		Usage:        providers.TokenUsage{PromptTokens: 5, CompletionTokens: 7, TotalTokens: 12},
	}, nil
}

// Requests returns the received requests.
func (s *StubProvider) Requests() []*providers.CompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*providers.CompletionRequest(nil), s.requests...)
}

// HealthCheck implements providers.Provider.
func (s *StubProvider) HealthCheck(ctx context.Context) error { return nil }

// GetName implements providers.Provider.
func (s *StubProvider) GetName() string { return s.Name }

// GetType implements providers.Provider.
func (s *StubProvider) GetType() string { return s.Type }

// GetConfig implements providers.Provider.
func (s *StubProvider) GetConfig() providers.ProviderConfig {
	return providers.ProviderConfig{Name: s.Name, Type: s.Type, Model: s.Model}
}

// IsHealthy implements providers.Provider.
func (s *StubProvider) IsHealthy() bool { return s.Healthy }

// GetHealth implements providers.Provider.
func (s *StubProvider) GetHealth() providers.ProviderHealth {
	return providers.ProviderHealth{IsHealthy: s.Healthy}
}

// Close implements providers.Provider.
func (s *StubProvider) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *StubProvider) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
