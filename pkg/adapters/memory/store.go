package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/setpoint/pkg/domain"
)

// Store implements ports.RunStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.RunRecord
	mu   sync.RWMutex
}

// NewStore creates a new in-memory run journal.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.RunRecord),
	}
}

// Save persists the record in memory. RunRecord holds no references, so
// storing the value is already an isolated copy.
func (s *Store) Save(ctx context.Context, record domain.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[record.RunID] = record
	return nil
}

// Load retrieves a record from memory.
func (s *Store) Load(ctx context.Context, runID string) (domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.data[runID]
	if !ok {
		return domain.RunRecord{}, domain.ErrRunNotFound
	}
	return record, nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

// List returns the runs of axis (all runs when axis is empty), oldest first.
func (s *Store) List(ctx context.Context, axis string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.RunRecord, 0, len(s.data))
	for _, r := range s.data {
		if axis == "" || r.Axis == axis {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Started.Equal(records[j].Started) {
			return records[i].RunID < records[j].RunID
		}
		return records[i].Started.Before(records[j].Started)
	})

	runs := make([]string, len(records))
	for i, r := range records {
		runs[i] = r.RunID
	}
	return runs, nil
}
