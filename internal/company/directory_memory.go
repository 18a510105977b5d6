package company

import (
	"context"
	"sync"

	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// MemoryDirectory is an in-memory company directory. It backs local development
// and tests; production deployments wire the upstream CRM instead.
type MemoryDirectory struct {
	mu        sync.RWMutex
	companies map[id.CompanyID]Company
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{companies: make(map[id.CompanyID]Company)}
}

// Put stores or replaces a company snapshot.
func (d *MemoryDirectory) Put(_ context.Context, c Company) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.companies[c.ID] = c
}

// Get returns a copy of the stored snapshot, or sentinel.ErrNotFound.
func (d *MemoryDirectory) Get(_ context.Context, companyID id.CompanyID) (*Company, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.companies[companyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}
