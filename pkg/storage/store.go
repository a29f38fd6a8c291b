package storage

import (
	"context"
	"fmt"
	"time"

	"mercator-hq/quill/pkg/config"
)

// Store persists generation records.
type Store interface {
	// Save inserts a record. A missing ID or CreatedAt is filled in.
	Save(ctx context.Context, record *Record) error

	// Get returns the record with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns matching records, newest first.
	List(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of matching records, ignoring Limit and Offset.
	Count(ctx context.Context, query *Query) (int64, error)

	// DeleteOlderThan removes records created before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteOldest removes the oldest records so that at most keep remain.
	DeleteOldest(ctx context.Context, keep int64) (int64, error)

	Close() error
}

// Open creates the backend selected by cfg.Backend.
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite", "":
		return NewSQLiteStore(&SQLiteConfig{
			Driver:       cfg.SQLite.Driver,
			Path:         cfg.SQLite.Path,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

// prepare fills in defaults before a record is written.
func prepare(record *Record) {
	if record.ID == "" {
		record.ID = NewID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
}
