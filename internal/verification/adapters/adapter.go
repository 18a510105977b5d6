// Package adapters implements the verification source adapters.
//
// Each adapter evaluates one category of claimed company data and returns a
// typed partial result with a confidence indicator. Adapters never panic
// across their boundary: failures surface either inside the result (low or
// zero confidence with a note) or as a categorized SourceError the
// orchestrator converts into zero-confidence evidence.
package adapters

import (
	"context"

	"vouch/internal/company"
	"vouch/internal/verification/models"
)

// Adapter is the contract every verification source implements.
type Adapter interface {
	// Category identifies which source this adapter covers.
	Category() models.SourceCategory

	// Applicable reports whether the company snapshot carries the inputs
	// this adapter needs. Inapplicable adapters are skipped and recorded
	// as not evaluated.
	Applicable(c company.Company) bool

	// Evaluate checks the claimed data against the source. The returned
	// result carries confidence in [0,1]; an error means the source could
	// not be consulted at all.
	Evaluate(ctx context.Context, c company.Company) (models.SourceResult, error)
}

// Field keys shared between adapters and the discrepancy detector.
const (
	FieldRegistrableDomain = "registrable_domain"
	FieldARecords          = "a_records"
	FieldMXRecords         = "mx_records"
	FieldEmailDomain       = "email_domain"
	FieldLegalName         = "legal_name"
	FieldRegistryName      = "registry_name"
	FieldRegistryStatus    = "registry_status"
	FieldPostalCode        = "postal_code"
	FieldCountry           = "country"
)
