// Package company holds the read-only company snapshot consumed by verification runs.
package company

import (
	"context"
	"strings"

	id "vouch/pkg/domain"
)

// Address is the structured postal address claimed by a company.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// IsEmpty reports whether no address field was provided.
func (a Address) IsEmpty() bool {
	return a.Street == "" && a.City == "" && a.State == "" && a.Country == "" && a.PostalCode == ""
}

// Company is the snapshot of claimed company data a verification run evaluates.
// The engine never mutates companies; maintenance belongs to the upstream CRM.
type Company struct {
	ID                 id.CompanyID `json:"id"`
	LegalName          string       `json:"legal_name"`
	RegistrationNumber string       `json:"registration_number,omitempty"`
	Jurisdiction       string       `json:"jurisdiction,omitempty"`
	Domain             string       `json:"domain,omitempty"`
	Email              string       `json:"email,omitempty"`
	Phone              string       `json:"phone,omitempty"`
	Address            Address      `json:"address"`
}

// ApplyOverride replaces a single claimed field value. Unknown fields are ignored
// so stale correction records cannot break a re-verification.
func (c *Company) ApplyOverride(field, value string) bool {
	switch strings.ToLower(field) {
	case "legal_name":
		c.LegalName = value
	case "registration_number":
		c.RegistrationNumber = value
	case "jurisdiction":
		c.Jurisdiction = value
	case "domain":
		c.Domain = value
	case "email":
		c.Email = value
	case "phone":
		c.Phone = value
	case "street":
		c.Address.Street = value
	case "city":
		c.Address.City = value
	case "state":
		c.Address.State = value
	case "country":
		c.Address.Country = value
	case "postal_code":
		c.Address.PostalCode = value
	default:
		return false
	}
	return true
}

// Directory resolves company snapshots for verification runs.
type Directory interface {
	Get(ctx context.Context, companyID id.CompanyID) (*Company, error)
}
