package gemini

import (
	"fmt"
	"strings"

	"mercator-hq/quill/pkg/providers"
)

// GenerateRequest is a generateContent request body.
type GenerateRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// Content is a turn in the conversation.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a content part. Only text parts are used.
type Part struct {
	Text string `json:"text"`
}

// GenerationConfig holds sampling parameters.
type GenerationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	StopSequences    []string `json:"stopSequences,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

// GenerateResponse is a generateContent response body.
type GenerateResponse struct {
	Candidates    []Candidate   `json:"candidates"`
	UsageMetadata UsageMetadata `json:"usageMetadata"`
	ModelVersion  string        `json:"modelVersion"`
	ResponseID    string        `json:"responseId"`
}

// Candidate is a generated candidate.
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

// UsageMetadata is token usage in Gemini format.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// Gemini names the assistant role "model".
const roleModel = "model"

func transformRequest(req *providers.CompletionRequest) *GenerateRequest {
	system, rest := providers.SplitSystem(req.Messages)

	out := &GenerateRequest{
		Contents: make([]Content, 0, len(rest)),
	}
	if system != "" {
		out.SystemInstruction = &Content{Parts: []Part{{Text: system}}}
	}
	for _, msg := range rest {
		role := msg.Role
		if role == providers.RoleAssistant {
			role = roleModel
		}
		out.Contents = append(out.Contents, Content{Role: role, Parts: []Part{{Text: msg.Content}}})
	}

	cfg := &GenerationConfig{
		MaxOutputTokens: req.MaxTokens,
		StopSequences:   req.Stop,
	}
	if req.Temperature != 0 {
		temperature := req.Temperature
		cfg.Temperature = &temperature
	}
	if req.JSONMode {
		cfg.ResponseMimeType = "application/json"
	}
	if cfg.Temperature != nil || cfg.MaxOutputTokens > 0 || len(cfg.StopSequences) > 0 || cfg.ResponseMimeType != "" {
		out.GenerationConfig = cfg
	}
	return out
}

func transformResponse(resp *GenerateResponse, model string) (*providers.CompletionResponse, error) {
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("response contains no candidates")
	}
	candidate := resp.Candidates[0]

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}

	if resp.ModelVersion != "" {
		model = resp.ModelVersion
	}

	return &providers.CompletionResponse{
		ID:           resp.ResponseID,
		Model:        model,
		Content:      sb.String(),
		FinishReason: normalizeFinishReason(candidate.FinishReason),
		Usage: providers.TokenUsage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		},
	}, nil
}

func normalizeFinishReason(reason string) string {
	switch reason {
	case "STOP":
		return providers.FinishReasonStop
	case "MAX_TOKENS":
		return providers.FinishReasonLength
	case "SAFETY", "RECITATION", "BLOCKLIST", "PROHIBITED_CONTENT":
		return providers.FinishReasonContentFilter
	default:
		return strings.ToLower(reason)
	}
}
