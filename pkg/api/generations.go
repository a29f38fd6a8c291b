package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"mercator-hq/quill/pkg/generation"
	"mercator-hq/quill/pkg/storage"
	"mercator-hq/quill/pkg/telemetry/logging"
)

// List paging bounds.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// GenerationService is the part of *generation.Service the handlers use.
type GenerationService interface {
	Generate(ctx context.Context, req *generation.Request) (*generation.Generation, error)
	Get(ctx context.Context, id string) (*generation.Generation, error)
	List(ctx context.Context, query *storage.Query) (*generation.ListResult, error)
}

// GenerationsHandler serves /v1/generations.
type GenerationsHandler struct {
	service      GenerationService
	maxBodyBytes int64
}

// NewGenerationsHandler creates the handler. maxBodyBytes caps request
// bodies; non-positive means no cap.
func NewGenerationsHandler(service GenerationService, maxBodyBytes int64) *GenerationsHandler {
	return &GenerationsHandler{service: service, maxBodyBytes: maxBodyBytes}
}

// Create handles POST /v1/generations.
func (h *GenerationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body io.Reader = r.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	var req generation.Request
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteError(w, r, decodeError(err))
		return
	}

	req.RequestID = logging.GetRequestID(r.Context())
	req.UserID = logging.GetUser(r.Context())

	gen, err := h.service.Generate(r.Context(), &req)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, gen)
}

// Get handles GET /v1/generations/{id}.
func (h *GenerationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	gen, err := h.service.Get(r.Context(), r.PathValue("id"), logging.GetUser(r.Context()))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, gen)
}

// List handles GET /v1/generations.
func (h *GenerationsHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	result, err := h.service.List(r.Context(), query)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func decodeError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return &requestError{
			status:  http.StatusRequestEntityTooLarge,
			errType: ErrorTypeRequestTooLarge,
			message: "request body exceeds " + strconv.FormatInt(maxErr.Limit, 10) + " bytes",
		}
	}
	if errors.Is(err, io.EOF) {
		return badRequest("request body is empty")
	}
	return badRequest("invalid JSON: %v", err)
}

// parseListQuery reads provider, model, status, since, until, limit and
// offset from the query string. Times are RFC 3339.
func parseListQuery(r *http.Request) (*storage.Query, error) {
	values := r.URL.Query()
	query := &storage.Query{
		Provider: values.Get("provider"),
		Model:    values.Get("model"),
		Status:   values.Get("status"),
		UserID:   logging.GetUser(r.Context()),
		Limit:    DefaultListLimit,
	}

	if v := values.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, badRequest("limit must be a positive integer")
		}
		query.Limit = min(n, MaxListLimit)
	}
	if v := values.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, badRequest("offset must be a non-negative integer")
		}
		query.Offset = n
	}
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"since", &query.Since}, {"until", &query.Until}} {
		v := values.Get(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, badRequest("%s must be an RFC 3339 timestamp", p.name)
		}
		*p.dst = t
	}

	return query, nil
}
