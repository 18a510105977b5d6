// Package correction exposes approved data corrections to the verification engine.
//
// The correction approval workflow itself lives upstream; the engine only
// consumes corrections that reached the approved state, applying them as
// field overrides when a company is re-verified.
package correction

import (
	"context"
	"sort"
	"sync"
	"time"

	id "vouch/pkg/domain"
)

// Approved is a single approved correction of a claimed company field.
type Approved struct {
	CompanyID  id.CompanyID `json:"company_id"`
	Field      string       `json:"field"`
	NewValue   string       `json:"new_value"`
	ApprovedAt time.Time    `json:"approved_at"`
}

// Source lists approved corrections for a company, oldest first so later
// approvals win when the same field was corrected twice.
type Source interface {
	ListApproved(ctx context.Context, companyID id.CompanyID) ([]Approved, error)
}

// MemorySource is an in-memory correction source for development and tests.
type MemorySource struct {
	mu       sync.RWMutex
	approved map[id.CompanyID][]Approved
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{approved: make(map[id.CompanyID][]Approved)}
}

// Approve records an approved correction.
func (s *MemorySource) Approve(_ context.Context, c Approved) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approved[c.CompanyID] = append(s.approved[c.CompanyID], c)
}

// ListApproved returns approved corrections ordered by approval time,
// oldest first. Corrections may be recorded out of order when approvals
// arrive from different upstream queues.
func (s *MemorySource) ListApproved(_ context.Context, companyID id.CompanyID) ([]Approved, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Approved, len(s.approved[companyID]))
	copy(out, s.approved[companyID])
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ApprovedAt.Before(out[j].ApprovedAt)
	})
	return out, nil
}
