package adapters

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"vouch/internal/company"
	"vouch/internal/registry"
	"vouch/internal/verification/models"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/requestcontext"
)

// Confidence levels for registration evidence.
const (
	regConfidenceRegistryMatch = 0.9
	regConfidenceFormatOnly    = 0.25
	regConfidenceNotInRegistry = 0.2
	regConfidenceInvalidFormat = 0.1
)

var genericRegistrationPattern = regexp.MustCompile(`^[A-Z0-9\-/]+$`)

// jurisdictionPatterns holds format rules for jurisdictions with a known
// registration number shape. Everything else falls back to the generic rule.
var jurisdictionPatterns = map[string]*regexp.Regexp{
	"GB": regexp.MustCompile(`^(\d{8}|[A-Z]{2}\d{6})$`),
	"DE": regexp.MustCompile(`^HR[AB]\d{1,6}$`),
	"FR": regexp.MustCompile(`^\d{9}$`),
}

// ValidRegistrationNumber checks a registration number's shape for the
// given jurisdiction. The number is uppercased before matching.
func ValidRegistrationNumber(number, jurisdiction string) bool {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return false
	}
	if pattern, ok := jurisdictionPatterns[strings.ToUpper(jurisdiction)]; ok {
		return pattern.MatchString(number)
	}
	return genericRegistrationPattern.MatchString(number)
}

// RegistrationAdapter verifies the claimed registration number: first its
// format, then its presence in the upstream business registry when one is
// configured.
type RegistrationAdapter struct {
	registry registry.Lookup
}

// NewRegistrationAdapter builds a registration adapter. A nil lookup limits
// evidence to format checks.
func NewRegistrationAdapter(lookup registry.Lookup) *RegistrationAdapter {
	return &RegistrationAdapter{registry: lookup}
}

func (a *RegistrationAdapter) Category() models.SourceCategory { return models.SourceRegistration }

func (a *RegistrationAdapter) Applicable(c company.Company) bool { return c.RegistrationNumber != "" }

func (a *RegistrationAdapter) Evaluate(ctx context.Context, c company.Company) (models.SourceResult, error) {
	now := requestcontext.Now(ctx)
	number := strings.ToUpper(strings.TrimSpace(c.RegistrationNumber))

	if !ValidRegistrationNumber(number, c.Jurisdiction) {
		return models.SourceResult{
			Category:   models.SourceRegistration,
			Evaluated:  true,
			Verified:   false,
			Confidence: regConfidenceInvalidFormat,
			Note:       "registration number format is invalid for jurisdiction",
			CheckedAt:  now,
		}, nil
	}

	if a.registry == nil || c.Jurisdiction == "" {
		return models.SourceResult{
			Category:   models.SourceRegistration,
			Evaluated:  true,
			Verified:   false,
			Confidence: regConfidenceFormatOnly,
			Note:       "format check only; registry cross-reference unavailable",
			CheckedAt:  now,
		}, nil
	}

	record, err := a.registry.Lookup(ctx, c.Jurisdiction, number)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.SourceResult{
				Category:   models.SourceRegistration,
				Evaluated:  true,
				Verified:   false,
				Confidence: regConfidenceNotInRegistry,
				Note:       "registration number not present in registry",
				CheckedAt:  now,
			}, nil
		}
		if errors.Is(err, sentinel.ErrUnavailable) {
			return models.SourceResult{}, NewSourceError(FailureOutage, models.SourceRegistration, "registry unavailable", err)
		}
		return models.SourceResult{}, NewSourceError(FailureInternal, models.SourceRegistration, "registry lookup failed", err)
	}

	fields := map[string]string{
		FieldRegistryName:   record.LegalName,
		FieldRegistryStatus: record.Status,
	}
	return models.SourceResult{
		Category:   models.SourceRegistration,
		Evaluated:  true,
		Verified:   true,
		Confidence: regConfidenceRegistryMatch,
		Fields:     fields,
		Note:       "registration number found in registry",
		CheckedAt:  now,
	}, nil
}
