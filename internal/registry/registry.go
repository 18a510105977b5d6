// Package registry integrates the upstream business-registry service.
//
// The registry is an external authority for incorporation data. Lookups are
// keyed by jurisdiction and registration number; a missing record is a fact
// (sentinel.ErrNotFound), not a failure.
package registry

import "context"

// CompanyRecord is the registry's view of an incorporated entity.
type CompanyRecord struct {
	LegalName          string `json:"legal_name"`
	RegistrationNumber string `json:"registration_number"`
	Jurisdiction       string `json:"jurisdiction"`
	Status             string `json:"status"`
	RegisteredAddress  string `json:"registered_address,omitempty"`
}

// Lookup resolves registry records.
//
// Implementations return sentinel.ErrNotFound when no record exists and
// sentinel.ErrUnavailable (wrapped) when the upstream cannot be reached.
type Lookup interface {
	Lookup(ctx context.Context, jurisdiction, registrationNumber string) (*CompanyRecord, error)
}
