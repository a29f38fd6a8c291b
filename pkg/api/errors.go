package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"mercator-hq/quill/pkg/generation"
	"mercator-hq/quill/pkg/providers"
	"mercator-hq/quill/pkg/recovery"
	"mercator-hq/quill/pkg/storage"
)

// Error types carried in the envelope.
const (
	ErrorTypeInvalidRequest  = "invalid_request_error"
	ErrorTypeAuthentication  = "authentication_error"
	ErrorTypeNotFound        = "not_found"
	ErrorTypeRequestTooLarge = "request_too_large"
	ErrorTypeRecoveryFailed  = "recovery_failed"
	ErrorTypeRateLimit       = "rate_limit_exceeded"
	ErrorTypeServerError     = "server_error"
	ErrorTypeBadGateway      = "bad_gateway"
	ErrorTypeGatewayTimeout  = "gateway_timeout"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one error.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`

	// Preview is the start of uninterpretable model output.
	Preview string `json:"preview,omitempty"`

	status     int
	retryAfter int
}

// NewError builds an envelope for status.
func NewError(status int, errType, message string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{Type: errType, Message: message, status: status}}
}

// StatusCode returns the HTTP status for the error.
func (e *ErrorResponse) StatusCode() int {
	if e.Error.status == 0 {
		return http.StatusInternalServerError
	}
	return e.Error.status
}

// requestError is a client mistake found while decoding the request.
type requestError struct {
	status  int
	errType string
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, errType: ErrorTypeInvalidRequest, message: fmt.Sprintf(format, args...)}
}

// HandleError maps an error from the generation service to an envelope.
// Provider credentials problems are reported as 502: they are the
// gateway's misconfiguration, not the caller's.
func HandleError(err error) *ErrorResponse {
	var (
		reqErr      *requestError
		recoveryErr *recovery.RecoveryFailedError
		authErr     *providers.AuthError
		rateErr     *providers.RateLimitError
		timeoutErr  *providers.TimeoutError
		parseErr    *providers.ParseError
		validErr    *providers.ValidationError
		providerErr *providers.ProviderError
		storageErr  *storage.StorageError
	)

	switch {
	case errors.As(err, &reqErr):
		return NewError(reqErr.status, reqErr.errType, reqErr.message)

	case errors.As(err, &recoveryErr):
		resp := NewError(http.StatusUnprocessableEntity, ErrorTypeRecoveryFailed, recovery.ErrRecoveryFailed.Error())
		resp.Error.Preview = recoveryErr.Preview
		return resp

	case errors.Is(err, generation.ErrInvalidRequest):
		return NewError(http.StatusBadRequest, ErrorTypeInvalidRequest, err.Error())

	case errors.Is(err, generation.ErrProviderNotFound):
		return NewError(http.StatusBadRequest, ErrorTypeInvalidRequest, err.Error())

	case errors.Is(err, generation.ErrNotFound):
		return NewError(http.StatusNotFound, ErrorTypeNotFound, "generation not found")

	case errors.As(err, &authErr):
		return NewError(http.StatusBadGateway, ErrorTypeBadGateway,
			fmt.Sprintf("Provider authentication failed (%s)", authErr.Provider))

	case errors.As(err, &rateErr):
		resp := NewError(http.StatusTooManyRequests, ErrorTypeRateLimit,
			fmt.Sprintf("Provider rate limit exceeded (%s)", rateErr.Provider))
		if rateErr.RetryAfter > 0 {
			resp.Error.retryAfter = int(math.Ceil(rateErr.RetryAfter.Seconds()))
		}
		return resp

	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return NewError(http.StatusGatewayTimeout, ErrorTypeGatewayTimeout, "Provider request timed out")

	case errors.As(err, &parseErr):
		return NewError(http.StatusBadGateway, ErrorTypeBadGateway,
			fmt.Sprintf("Failed to parse provider response (%s)", parseErr.Provider))

	case errors.As(err, &validErr):
		return NewError(http.StatusBadRequest, ErrorTypeInvalidRequest, validErr.Error())

	case errors.As(err, &providerErr):
		if providerErr.StatusCode == http.StatusNotFound {
			return NewError(http.StatusBadRequest, ErrorTypeInvalidRequest,
				fmt.Sprintf("Model not found (%s)", providerErr.Provider))
		}
		return NewError(http.StatusBadGateway, ErrorTypeBadGateway,
			fmt.Sprintf("Provider error (%s)", providerErr.Provider))

	case errors.As(err, &storageErr):
		return NewError(http.StatusInternalServerError, ErrorTypeServerError, "Failed to access generation storage")

	default:
		return NewError(http.StatusInternalServerError, ErrorTypeServerError,
			"An internal error occurred. Please try again later.")
	}
}

// WriteError writes err as a JSON envelope. Server-side failures are logged.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	resp := HandleError(err)
	status := resp.StatusCode()
	if status >= 500 {
		slog.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	if resp.Error.retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(resp.Error.retryAfter))
	}
	WriteJSON(w, status, resp)
}

// WriteJSON writes v with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
