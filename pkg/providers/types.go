package providers

import (
	"log/slog"
	"time"
)

// Message is a single conversation message.
type Message struct {
	// Role identifies the sender (system, user, assistant).
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// TokenUsage tracks token consumption for a request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionRequest is a provider-agnostic completion request.
type CompletionRequest struct {
	// Model is the model identifier. Adapters fall back to the configured
	// default model when empty.
	Model string `json:"model"`

	// Messages is the conversation, system message first when present.
	Messages []Message `json:"messages"`

	// Temperature controls randomness.
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens caps the completion length.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Stop sequences that halt generation.
	Stop []string `json:"stop,omitempty"`

	// JSONMode asks providers that support it to constrain output to a
	// JSON object. Providers without such a switch ignore it.
	JSONMode bool `json:"json_mode,omitempty"`

	// Metadata is request context that is never sent upstream.
	Metadata map[string]string `json:"-"`
}

// CompletionResponse is a provider-agnostic completion response.
type CompletionResponse struct {
	ID           string            `json:"id"`
	Model        string            `json:"model"`
	Content      string            `json:"content"`
	FinishReason string            `json:"finish_reason"`
	Usage        TokenUsage        `json:"usage"`
	Created      int64             `json:"created"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ProviderHealth tracks the health status of a provider.
type ProviderHealth struct {
	IsHealthy             bool
	LastCheck             time.Time
	LastError             error
	ConsecutiveFailures   int
	LastSuccessfulRequest time.Time
	TotalRequests         int64
	FailedRequests        int64
}

// ProviderConfig is the adapter-level view of a configured provider.
type ProviderConfig struct {
	// Name is the configured provider name.
	Name string

	// Type selects the adapter.
	Type string

	// BaseURL is the API endpoint base URL. Unused by Bedrock, whose
	// endpoint is derived from Region.
	BaseURL string

	// APIKey authenticates OpenAI, Anthropic and Gemini requests.
	APIKey string

	// Model is the default model used when a request names none.
	Model string

	// Region and the access key pair are used for Bedrock request signing.
	Region          string
	AccessKeyID     string
	SecretAccessKey string

	Timeout             time.Duration
	MaxRetries          int
	RetryDelay          time.Duration
	HealthCheckInterval time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

// LogValue keeps credentials out of logs.
func (c ProviderConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", c.Name),
		slog.String("type", c.Type),
		slog.String("base_url", c.BaseURL),
		slog.String("model", c.Model),
		slog.String("region", c.Region),
		slog.Duration("timeout", c.Timeout),
		slog.Int("max_retries", c.MaxRetries),
	)
}

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Finish reason constants
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonContentFilter = "content_filter"
)

// Adapter type constants
const (
	TypeOpenAI    = "openai"
	TypeAnthropic = "anthropic"
	TypeGemini    = "gemini"
	TypeBedrock   = "bedrock"
)

// SplitSystem separates the system prompt from the conversation messages.
// Multiple system messages are joined with a blank line.
func SplitSystem(messages []Message) (string, []Message) {
	var system string
	rest := make([]Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
			continue
		}
		rest = append(rest, msg)
	}
	return system, rest
}

// ValidateRequest checks the fields every adapter requires.
func ValidateRequest(req *CompletionRequest) error {
	if req == nil {
		return &ValidationError{Field: "request", Message: "request cannot be nil"}
	}
	if req.Model == "" {
		return &ValidationError{Field: "model", Message: "model is required"}
	}
	if len(req.Messages) == 0 {
		return &ValidationError{Field: "messages", Message: "at least one message is required"}
	}
	return nil
}
