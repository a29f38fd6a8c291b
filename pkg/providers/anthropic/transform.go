package anthropic

import (
	"fmt"

	"mercator-hq/quill/pkg/providers"
)

// DefaultMaxTokens is sent when the request sets no limit; the Messages API
// requires one.
const DefaultMaxTokens = 4096

// MessagesRequest is a Messages API request. Bedrock's Anthropic models
// take the same body with Model omitted and AnthropicVersion set.
type MessagesRequest struct {
	AnthropicVersion string    `json:"anthropic_version,omitempty"`
	Model            string    `json:"model,omitempty"`
	Messages         []Message `json:"messages"`
	System           string    `json:"system,omitempty"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float64   `json:"temperature,omitempty"`
	StopSequences    []string  `json:"stop_sequences,omitempty"`
}

// Message is a message in Messages API format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ContentBlock is a response content block.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// MessagesResponse is a Messages API response.
type MessagesResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   string         `json:"stop_reason"`
	StopSequence string         `json:"stop_sequence,omitempty"`
	Usage        Usage          `json:"usage"`
}

// Usage is token usage in Messages API format.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// BuildRequest converts a provider-agnostic request to the Messages API
// shape. System messages move to the top-level system field.
func BuildRequest(req *providers.CompletionRequest) (*MessagesRequest, error) {
	system, rest := providers.SplitSystem(req.Messages)

	out := &MessagesRequest{
		Model:         req.Model,
		Messages:      make([]Message, 0, len(rest)),
		System:        system,
		MaxTokens:     req.MaxTokens,
		Temperature:   req.Temperature,
		StopSequences: req.Stop,
	}
	if out.MaxTokens == 0 {
		out.MaxTokens = DefaultMaxTokens
	}
	for _, msg := range rest {
		out.Messages = append(out.Messages, Message{Role: msg.Role, Content: msg.Content})
	}

	if err := validateMessageSequence(out.Messages); err != nil {
		return nil, err
	}
	return out, nil
}

// validateMessageSequence enforces the Messages API rule that the
// conversation starts with the user and alternates roles.
func validateMessageSequence(messages []Message) error {
	if len(messages) == 0 {
		return &providers.ValidationError{
			Field:   "messages",
			Message: "at least one non-system message is required",
		}
	}
	if messages[0].Role != providers.RoleUser {
		return &providers.ValidationError{
			Field:   "messages",
			Message: "first message must be from user",
		}
	}
	for i := 1; i < len(messages); i++ {
		if messages[i-1].Role == messages[i].Role {
			return &providers.ValidationError{
				Field:   "messages",
				Message: fmt.Sprintf("messages must alternate between user and assistant, found consecutive %s messages at index %d", messages[i].Role, i),
			}
		}
	}
	return nil
}

// ToCompletion converts a Messages API response to the provider-agnostic
// form, concatenating its text blocks.
func ToCompletion(resp *MessagesResponse) (*providers.CompletionResponse, error) {
	var content string
	var sawText bool
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
			sawText = true
		}
	}
	if !sawText {
		return nil, fmt.Errorf("response contains no text content")
	}

	return &providers.CompletionResponse{
		ID:           resp.ID,
		Model:        resp.Model,
		Content:      content,
		FinishReason: normalizeStopReason(resp.StopReason),
		Usage: providers.TokenUsage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}

func normalizeStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return providers.FinishReasonStop
	case "max_tokens":
		return providers.FinishReasonLength
	default:
		return reason
	}
}
