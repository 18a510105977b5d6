package store

import (
	"context"
	"sort"
	"sync"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// MemoryStore keeps verification history in memory. It backs unit tests and
// local development; the conflict check runs under the same lock as the
// insert so concurrent triggers behave like the Postgres store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[id.RecordID]*models.VerificationRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[id.RecordID]*models.VerificationRecord)}
}

// CreateIfNoActive inserts record unless its company already has a
// non-terminal record.
func (s *MemoryStore) CreateIfNoActive(_ context.Context, record *models.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records {
		if existing.CompanyID == record.CompanyID && !existing.Status.IsTerminal() {
			return sentinel.ErrConflict
		}
	}

	clone := cloneRecord(record)
	s.records[record.ID] = clone
	return nil
}

// Update replaces the stored state of an existing record.
func (s *MemoryStore) Update(_ context.Context, record *models.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.records[record.ID] = cloneRecord(record)
	return nil
}

// Get returns a copy of the record, tombstoned or not.
func (s *MemoryStore) Get(_ context.Context, recordID id.RecordID) (*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRecord(record), nil
}

// Latest returns the newest visible record for a company.
func (s *MemoryStore) Latest(ctx context.Context, companyID id.CompanyID) (*models.VerificationRecord, error) {
	records, err := s.ListByCompany(ctx, companyID, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return records[0], nil
}

// ListByCompany returns visible records newest first.
func (s *MemoryStore) ListByCompany(_ context.Context, companyID id.CompanyID, limit int) ([]*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.VerificationRecord
	for _, record := range s.records {
		if record.CompanyID == companyID && !record.Tombstoned {
			out = append(out, cloneRecord(record))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneRecord(r *models.VerificationRecord) *models.VerificationRecord {
	clone := *r
	if r.Overrides != nil {
		clone.Overrides = make(map[string]string, len(r.Overrides))
		for k, v := range r.Overrides {
			clone.Overrides[k] = v
		}
	}
	if r.Sources != nil {
		clone.Sources = append([]models.SourceResult(nil), r.Sources...)
	}
	if r.Breakdown != nil {
		b := *r.Breakdown
		b.Components = append([]models.RiskComponent(nil), r.Breakdown.Components...)
		clone.Breakdown = &b
	}
	return &clone
}

var _ Store = (*MemoryStore)(nil)
