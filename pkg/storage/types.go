package storage

import (
	"time"

	"github.com/google/uuid"
)

// Record status values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Record is one persisted generation attempt.
type Record struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Provider string `json:"provider"`
	Model    string `json:"model"`
	UserID   string `json:"user_id,omitempty"`
	Prompt   string `json:"prompt"`

	// Recovered output. Empty when Status is StatusFailed.
	PrimaryText  string `json:"primary_text,omitempty"`
	BodyText     string `json:"body_text,omitempty"`
	Confident    bool   `json:"confident"`
	RecoveryPath string `json:"recovery_path,omitempty"`

	Status    string `json:"status"`
	ErrorType string `json:"error_type,omitempty"`
	Error     string `json:"error,omitempty"`
	// Preview holds the truncated model output when recovery failed.
	Preview string `json:"preview,omitempty"`

	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	TotalTokens      int           `json:"total_tokens"`
	Latency          time.Duration `json:"latency_ns"`
}

// NewID returns a fresh record ID.
func NewID() string {
	return uuid.NewString()
}

// Query filters records for List and Count. Zero values match everything.
type Query struct {
	Provider string
	Model    string
	Status   string
	UserID   string

	Since time.Time
	Until time.Time

	// Limit caps List results. 0 means no limit.
	Limit  int
	Offset int
}

// matches reports whether r satisfies the filters of q.
func (q *Query) matches(r *Record) bool {
	if q == nil {
		return true
	}
	if q.Provider != "" && r.Provider != q.Provider {
		return false
	}
	if q.Model != "" && r.Model != q.Model {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.UserID != "" && r.UserID != q.UserID {
		return false
	}
	if !q.Since.IsZero() && r.CreatedAt.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && !r.CreatedAt.Before(q.Until) {
		return false
	}
	return true
}
