package adapters

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"vouch/internal/company"
	"vouch/internal/verification/models"
	"vouch/pkg/requestcontext"
)

// addressVerifiedThreshold is the completeness ratio at which an address
// counts as verified.
const addressVerifiedThreshold = 0.6

var (
	postalPattern  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\s\-]{1,18}[A-Za-z0-9]$`)
	countryPattern = regexp.MustCompile(`^[A-Za-z]{2}$`)
)

// AddressAdapter scores the claimed postal address on completeness and
// field plausibility. Five fields count toward completeness: street, city,
// state, country and postal code.
type AddressAdapter struct{}

// NewAddressAdapter builds an address adapter.
func NewAddressAdapter() *AddressAdapter { return &AddressAdapter{} }

func (a *AddressAdapter) Category() models.SourceCategory { return models.SourceAddress }

func (a *AddressAdapter) Applicable(c company.Company) bool { return !c.Address.IsEmpty() }

func (a *AddressAdapter) Evaluate(ctx context.Context, c company.Company) (models.SourceResult, error) {
	now := requestcontext.Now(ctx)
	addr := c.Address

	provided := 0
	for _, v := range []string{addr.Street, addr.City, addr.State, addr.Country, addr.PostalCode} {
		if strings.TrimSpace(v) != "" {
			provided++
		}
	}
	completeness := float64(provided) / 5

	fields := map[string]string{}
	var notes []string
	validity := 1.0

	if addr.PostalCode != "" {
		fields[FieldPostalCode] = addr.PostalCode
		if !postalPattern.MatchString(addr.PostalCode) {
			validity -= 0.3
			notes = append(notes, "postal code is implausible")
		}
	}
	if addr.Country != "" {
		fields[FieldCountry] = strings.ToUpper(addr.Country)
		if !countryPattern.MatchString(addr.Country) {
			validity -= 0.3
			notes = append(notes, "country is not an ISO 3166-1 alpha-2 code")
		}
	}

	confidence := completeness * validity
	if confidence < 0 {
		confidence = 0
	}

	note := fmt.Sprintf("%d of 5 address fields provided", provided)
	if len(notes) > 0 {
		note = note + "; " + strings.Join(notes, "; ")
	}

	return models.SourceResult{
		Category:   models.SourceAddress,
		Evaluated:  true,
		Verified:   completeness >= addressVerifiedThreshold && validity == 1,
		Confidence: confidence,
		Fields:     fields,
		Note:       note,
		CheckedAt:  now,
	}, nil
}
