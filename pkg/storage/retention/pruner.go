package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/quill/pkg/config"
	"mercator-hq/quill/pkg/storage"
	"mercator-hq/quill/pkg/telemetry/metrics"
)

// Prune reasons reported to metrics.
const (
	ReasonAge   = "age"
	ReasonCount = "count"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to keep records.
	// 0 keeps them forever.
	RetentionDays int

	// PruneSchedule is a standard 5-field cron expression, e.g. "0 3 * * *".
	PruneSchedule string

	// MaxRecords caps the total record count. 0 means unlimited.
	MaxRecords int64
}

// FromConfig converts the storage retention section.
func FromConfig(cfg config.RetentionConfig) *Config {
	return &Config{
		RetentionDays: cfg.Days,
		PruneSchedule: cfg.PruneSchedule,
		MaxRecords:    cfg.MaxRecords,
	}
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: config.DefaultRetentionDays,
		PruneSchedule: config.DefaultRetentionSchedule,
	}
}

// Option configures a Pruner.
type Option func(*Pruner)

// WithMetrics reports deleted record counts to collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(p *Pruner) { p.metrics = collector }
}

// WithClock overrides the time source used for the age cutoff.
func WithClock(now func() time.Time) Option {
	return func(p *Pruner) { p.now = now }
}

// Pruner enforces retention on stored generation records.
type Pruner struct {
	store     storage.Store
	config    *Config
	metrics   *metrics.Collector
	now       func() time.Time
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a new retention pruner.
func NewPruner(store storage.Store, cfg *Config, opts ...Option) *Pruner {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	p := &Pruner{
		store:  store,
		config: cfg,
		now:    time.Now,
		logger: slog.Default().With("component", "storage.retention"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.scheduler = NewScheduler(p)

	return p
}

// Prune deletes records older than the retention period, then trims the
// oldest records until at most MaxRecords remain. It returns the total
// number of records deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.RetentionDays > 0 {
		cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)
		deleted, err := p.store.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += deleted
		p.metrics.RecordPruned(ReasonAge, deleted)
		p.logger.Debug("pruned records by age",
			"deleted_count", deleted,
			"cutoff_time", cutoff,
		)
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.store.DeleteOldest(ctx, p.config.MaxRecords)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += deleted
		p.metrics.RecordPruned(ReasonCount, deleted)
		p.logger.Debug("pruned records by count",
			"deleted_count", deleted,
			"max_records", p.config.MaxRecords,
		)
	}

	if total > 0 {
		p.logger.Info("pruning completed",
			"total_deleted", total,
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	}

	return total, nil
}

// Start starts the pruning scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the pruning scheduler.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled run, or nil.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
