package memory

import (
	"context"
	"fmt"
	"sync"

	"custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	"custody/pkg/platform/sentinel"
)

type entry struct {
	version uint64
	data    []byte
}

// InMemoryRecordStore keeps versioned records in a map. A single mutex makes
// every commit atomic with respect to every other commit and read.
type InMemoryRecordStore struct {
	mu      sync.RWMutex
	records map[models.RecordKey]entry
}

func New() *InMemoryRecordStore {
	return &InMemoryRecordStore{
		records: make(map[models.RecordKey]entry),
	}
}

func (s *InMemoryRecordStore) Get(_ context.Context, key models.RecordKey) (*ports.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.records[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &ports.Record{Key: key, Version: e.version, Data: clone(e.data)}, nil
}

func (s *InMemoryRecordStore) Commit(ctx context.Context, records []ports.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[models.RecordKey]struct{}, len(records))
	for _, rec := range records {
		if _, dup := seen[rec.Key]; dup {
			return fmt.Errorf("record %s appears twice in commit", rec.Key)
		}
		seen[rec.Key] = struct{}{}

		current := s.records[rec.Key].version
		if current != rec.Version {
			return fmt.Errorf("record %s at version %d, expected %d: %w", rec.Key, current, rec.Version, sentinel.ErrConflict)
		}
	}

	for _, rec := range records {
		s.records[rec.Key] = entry{version: rec.Version + 1, data: clone(rec.Data)}
	}
	return nil
}

// Len reports how many records are stored.
func (s *InMemoryRecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
