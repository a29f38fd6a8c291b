package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store with an in-memory map. Records are lost on
// restart.
type MemoryStore struct {
	records map[string]*Record
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
	}
}

// Save stores a copy of record.
func (s *MemoryStore) Save(ctx context.Context, record *Record) error {
	prepare(record)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return NewStorageError("memory", "save", fmt.Errorf("duplicate id %q", record.ID))
	}

	recordCopy := *record
	s.records[record.ID] = &recordCopy
	return nil
}

// Get returns a copy of the record with the given ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	recordCopy := *record
	return &recordCopy, nil
}

// List returns copies of matching records, newest first.
func (s *MemoryStore) List(ctx context.Context, query *Query) ([]*Record, error) {
	s.mu.RLock()
	results := make([]*Record, 0, len(s.records))
	for _, record := range s.records {
		if query.matches(record) {
			recordCopy := *record
			results = append(results, &recordCopy)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(results)

	if query == nil {
		return results, nil
	}
	if query.Offset >= len(results) {
		return []*Record{}, nil
	}
	results = results[query.Offset:]
	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}
	return results, nil
}

// Count returns the number of matching records.
func (s *MemoryStore) Count(ctx context.Context, query *Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, record := range s.records {
		if query.matches(record) {
			n++
		}
	}
	return n, nil
}

// DeleteOlderThan removes records created before cutoff.
func (s *MemoryStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if record.CreatedAt.Before(cutoff) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// DeleteOldest keeps the newest keep records and removes the rest.
func (s *MemoryStore) DeleteOldest(ctx context.Context, keep int64) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if int64(len(s.records)) <= keep {
		return 0, nil
	}

	all := make([]*Record, 0, len(s.records))
	for _, record := range s.records {
		all = append(all, record)
	}
	sortNewestFirst(all)

	var deleted int64
	for _, record := range all[keep:] {
		delete(s.records, record.ID)
		deleted++
	}
	return deleted, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

// sortNewestFirst orders by CreatedAt descending, then ID for stability.
func sortNewestFirst(records []*Record) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID > records[j].ID
	})
}
