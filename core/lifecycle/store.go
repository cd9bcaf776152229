package lifecycle

import (
	"context"
	"sort"
	"sync"

	"customs-cost/core/types"
	"customs-cost/internal/errors"
)

// Store persists calculation records. Claim is the exclusive entry point
// into processing: it must atomically move a pending record to processing
// so a record is never worked on by two workers at once.
type Store interface {
	Create(ctx context.Context, rec *types.CalculationRecord) error
	Get(ctx context.Context, id string) (*types.CalculationRecord, error)
	Update(ctx context.Context, rec *types.CalculationRecord) error

	// Claim atomically transitions pending -> processing. The boolean is
	// false when the record was not pending; the returned record reflects
	// the state after the attempt.
	Claim(ctx context.Context, id string) (*types.CalculationRecord, bool, error)
}

// MemoryStore is an in-process Store for tests and single-node runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]types.CalculationRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]types.CalculationRecord)}
}

// Create stores a new record.
func (s *MemoryStore) Create(_ context.Context, rec *types.CalculationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return errors.Newf(errors.TypeInternal, "record %s already exists", rec.ID)
	}
	s.records[rec.ID] = *rec
	return nil
}

// Get returns a copy of the record.
func (s *MemoryStore) Get(_ context.Context, id string) (*types.CalculationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, errors.NotFound("calculation", id)
	}
	return &rec, nil
}

// Update overwrites an existing record.
func (s *MemoryStore) Update(_ context.Context, rec *types.CalculationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; !ok {
		return errors.NotFound("calculation", rec.ID)
	}
	s.records[rec.ID] = *rec
	return nil
}

// ListRecent returns the most recently updated records.
func (s *MemoryStore) ListRecent(_ context.Context, limit int) ([]types.CalculationRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.CalculationRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Claim compare-and-swaps pending -> processing under the store lock.
func (s *MemoryStore) Claim(_ context.Context, id string) (*types.CalculationRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, false, errors.NotFound("calculation", id)
	}
	if rec.Status != types.StatusPending {
		return &rec, false, nil
	}
	rec.Status = types.StatusProcessing
	s.records[id] = rec
	return &rec, true, nil
}
