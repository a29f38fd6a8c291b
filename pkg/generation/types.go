package generation

import (
	"time"

	"mercator-hq/quill/pkg/storage"
)

// Request is one prompt to turn into a listing.
type Request struct {
	Prompt string `json:"prompt"`

	// Provider names a registered provider. Empty uses the configured default.
	Provider string `json:"provider,omitempty"`

	// Model overrides the provider's default model.
	Model string `json:"model,omitempty"`

	UserID    string `json:"-"`
	RequestID string `json:"-"`
}

// Usage is the token accounting reported by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Generation is the API view of a stored record.
type Generation struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Prompt    string    `json:"prompt"`

	Title        string `json:"title,omitempty"`
	Specs        string `json:"specs,omitempty"`
	Confident    bool   `json:"confident"`
	RecoveryPath string `json:"recovery_path,omitempty"`

	Status    string `json:"status"`
	ErrorType string `json:"error_type,omitempty"`
	Error     string `json:"error,omitempty"`
	Preview   string `json:"preview,omitempty"`

	Usage     Usage `json:"usage"`
	LatencyMs int64 `json:"latency_ms"`
}

// FromRecord converts a stored record.
func FromRecord(r *storage.Record) *Generation {
	return &Generation{
		ID:           r.ID,
		RequestID:    r.RequestID,
		CreatedAt:    r.CreatedAt,
		Provider:     r.Provider,
		Model:        r.Model,
		Prompt:       r.Prompt,
		Title:        r.PrimaryText,
		Specs:        r.BodyText,
		Confident:    r.Confident,
		RecoveryPath: r.RecoveryPath,
		Status:       r.Status,
		ErrorType:    r.ErrorType,
		Error:        r.Error,
		Preview:      r.Preview,
		Usage: Usage{
			PromptTokens:     r.PromptTokens,
			CompletionTokens: r.CompletionTokens,
			TotalTokens:      r.TotalTokens,
		},
		LatencyMs: r.Latency.Milliseconds(),
	}
}

// ListResult is one page of generations.
type ListResult struct {
	Generations []*Generation `json:"generations"`
	Total       int64         `json:"total"`
	Limit       int           `json:"limit"`
	Offset      int           `json:"offset"`
}
