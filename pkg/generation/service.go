package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mercator-hq/quill/pkg/config"
	"mercator-hq/quill/pkg/providers"
	"mercator-hq/quill/pkg/recovery"
	"mercator-hq/quill/pkg/storage"
	"mercator-hq/quill/pkg/telemetry/metrics"
)

// ProviderSource looks up providers by name. *providerfactory.Manager
// implements it.
type ProviderSource interface {
	GetProvider(name string) (providers.Provider, error)
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records generation, recovery and storage metrics.
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Service) { s.metrics = collector }
}

// WithClock overrides the time source for record timestamps and latency.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service turns prompts into recovered, persisted listings.
type Service struct {
	config    config.GenerationConfig
	providers ProviderSource
	store     storage.Store
	parser    *recovery.Parser
	system    string
	metrics   *metrics.Collector
	now       func() time.Time
	logger    *slog.Logger
}

// NewService builds a Service. The recovery parser is configured from
// cfg.Recovery.
func NewService(cfg config.GenerationConfig, source ProviderSource, store storage.Store, opts ...Option) (*Service, error) {
	if source == nil {
		return nil, errors.New("generation: provider source is required")
	}
	if store == nil {
		return nil, errors.New("generation: store is required")
	}

	mode, err := recovery.ParseBracketMode(cfg.Recovery.BracketMode)
	if err != nil {
		return nil, err
	}

	fields := recovery.Fields{
		Primary:   cfg.Recovery.PrimaryField,
		Body:      cfg.Recovery.BodyField,
		Confident: cfg.Recovery.ConfidentField,
	}
	if fields == (recovery.Fields{}) {
		fields = recovery.DefaultFields
	}

	parserOpts := []recovery.Option{
		recovery.WithFields(fields),
		recovery.WithBracketMode(mode),
	}
	if cfg.Recovery.PreviewLength > 0 {
		parserOpts = append(parserOpts, recovery.WithPreviewLength(cfg.Recovery.PreviewLength))
	}
	parser, err := recovery.New(parserOpts...)
	if err != nil {
		return nil, fmt.Errorf("generation: %w", err)
	}

	s := &Service{
		config:    cfg,
		providers: source,
		store:     store,
		parser:    parser,
		system:    cfg.SystemPrompt,
		now:       time.Now,
		logger:    slog.Default().With("component", "generation"),
	}
	if s.system == "" {
		s.system = SystemPrompt(fields)
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Generate sends req.Prompt to a provider, recovers the listing from its
// output and persists the attempt. Failed attempts are persisted too.
//
// Errors wrap ErrInvalidRequest, ErrProviderNotFound, a provider error, or
// recovery.ErrRecoveryFailed (as *recovery.RecoveryFailedError).
func (s *Service) Generate(ctx context.Context, req *Request) (*Generation, error) {
	start := s.now()

	if req == nil {
		req = &Request{}
	}
	prompt, err := s.validate(req)
	if err != nil {
		s.metrics.RecordGeneration(req.Provider, req.Model, StatusInvalid, s.now().Sub(start))
		return nil, err
	}

	name := req.Provider
	if name == "" {
		name = s.config.DefaultProvider
	}
	if name == "" {
		s.metrics.RecordGeneration("", req.Model, StatusInvalid, s.now().Sub(start))
		return nil, fmt.Errorf("%w: no provider requested and no default configured", ErrProviderNotFound)
	}

	provider, err := s.providers.GetProvider(name)
	if err != nil {
		s.metrics.RecordGeneration(name, req.Model, StatusInvalid, s.now().Sub(start))
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}

	model := req.Model
	if model == "" {
		model = provider.GetConfig().Model
	}

	record := &storage.Record{
		ID:        storage.NewID(),
		RequestID: req.RequestID,
		CreatedAt: start.UTC(),
		Provider:  name,
		Model:     model,
		UserID:    req.UserID,
		Prompt:    prompt,
	}

	resp, err := provider.SendCompletion(ctx, &providers.CompletionRequest{
		Model:       req.Model,
		Messages:    buildMessages(s.system, prompt),
		Temperature: s.config.Temperature,
		MaxTokens:   s.config.MaxTokens,
		JSONMode:    true,
	})
	record.Latency = s.now().Sub(start)
	if err != nil {
		errType := providers.ErrorType(err)
		s.metrics.RecordProviderError(name, errType)
		s.metrics.RecordGeneration(name, model, StatusProviderError, record.Latency)

		record.Status = storage.StatusFailed
		record.ErrorType = errType
		record.Error = err.Error()
		s.persistFailure(ctx, record)

		s.logger.WarnContext(ctx, "provider call failed",
			"provider", name,
			"model", model,
			"error_type", errType,
			"error", err,
		)
		return nil, fmt.Errorf("provider %s: %w", name, err)
	}

	if resp.Model != "" {
		record.Model = resp.Model
	}
	record.PromptTokens = resp.Usage.PromptTokens
	record.CompletionTokens = resp.Usage.CompletionTokens
	record.TotalTokens = resp.Usage.TotalTokens
	s.metrics.RecordProviderLatency(name, record.Model, record.Latency)

	result, err := s.parser.Recover(resp.Content)
	if err != nil {
		s.metrics.RecordRecovery("failed")
		s.metrics.RecordGeneration(name, record.Model, StatusRecoveryFailed, record.Latency)

		record.Status = storage.StatusFailed
		record.ErrorType = ErrorTypeRecoveryFailed
		record.Error = recovery.ErrRecoveryFailed.Error()
		var rfe *recovery.RecoveryFailedError
		if errors.As(err, &rfe) {
			record.Preview = rfe.Preview
		}
		s.persistFailure(ctx, record)

		s.logger.WarnContext(ctx, "could not interpret model output",
			"provider", name,
			"model", record.Model,
			"generation_id", record.ID,
		)
		return nil, err
	}

	record.Status = storage.StatusSuccess
	record.PrimaryText = result.PrimaryText
	record.BodyText = result.BodyText
	record.Confident = result.Confident
	record.RecoveryPath = string(result.Path)
	s.metrics.RecordRecovery(string(result.Path))

	err = s.store.Save(ctx, record)
	s.metrics.RecordStorageOperation("save", err)
	if err != nil {
		s.metrics.RecordGeneration(name, record.Model, StatusStorageError, record.Latency)
		return nil, fmt.Errorf("failed to persist generation: %w", err)
	}

	s.metrics.RecordGeneration(name, record.Model, StatusSuccess, record.Latency)
	s.logger.InfoContext(ctx, "generation completed",
		"generation_id", record.ID,
		"provider", name,
		"model", record.Model,
		"recovery_path", record.RecoveryPath,
		"confident", record.Confident,
		"latency_ms", record.Latency.Milliseconds(),
	)

	return FromRecord(record), nil
}

func (s *Service) validate(req *Request) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	if max := s.config.MaxPromptLength; max > 0 && len(prompt) > max {
		return "", fmt.Errorf("%w: prompt exceeds %d bytes", ErrInvalidRequest, max)
	}
	return prompt, nil
}

// persistFailure stores a failed attempt. A storage error here is logged
// and does not replace the original failure.
func (s *Service) persistFailure(ctx context.Context, record *storage.Record) {
	err := s.store.Save(ctx, record)
	s.metrics.RecordStorageOperation("save", err)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist failed generation",
			"generation_id", record.ID,
			"error", err,
		)
	}
}

// Get returns one stored generation on behalf of userID. A record owned by
// a different user is reported as ErrNotFound.
func (s *Service) Get(ctx context.Context, id, userID string) (*Generation, error) {
	record, err := s.store.Get(ctx, id)
	s.metrics.RecordStorageOperation("get", ignoreNotFound(err))
	if err != nil {
		return nil, err
	}
	if record.UserID != "" && record.UserID != userID {
		return nil, ErrNotFound
	}
	return FromRecord(record), nil
}

// List returns a page of stored generations, newest first, and the total
// number matching query.
func (s *Service) List(ctx context.Context, query *storage.Query) (*ListResult, error) {
	if query == nil {
		query = &storage.Query{}
	}

	records, err := s.store.List(ctx, query)
	s.metrics.RecordStorageOperation("list", err)
	if err != nil {
		return nil, err
	}

	total, err := s.store.Count(ctx, query)
	s.metrics.RecordStorageOperation("count", err)
	if err != nil {
		return nil, err
	}

	out := &ListResult{
		Generations: make([]*Generation, 0, len(records)),
		Total:       total,
		Limit:       query.Limit,
		Offset:      query.Offset,
	}
	for _, r := range records {
		out.Generations = append(out.Generations, FromRecord(r))
	}
	return out, nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}
