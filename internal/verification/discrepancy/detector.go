// Package discrepancy compares claimed company data against what the
// verification sources observed.
//
// All comparisons run on normalized values: legal names are uppercased and
// stripped of legal suffixes before word-set comparison, domains are reduced
// to their registrable form. Severity grades how far apart the values are.
package discrepancy

import (
	"strings"

	"golang.org/x/net/publicsuffix"

	"vouch/internal/company"
	"vouch/internal/verification/adapters"
	"vouch/internal/verification/models"
)

// legalSuffixes are dropped during name normalization so "Acme Inc" and
// "ACME INCORPORATED" style variants compare equal.
var legalSuffixes = map[string]struct{}{
	"INC": {}, "INCORPORATED": {}, "LLC": {}, "LTD": {}, "LIMITED": {},
	"CORP": {}, "CORPORATION": {}, "CO": {}, "COMPANY": {}, "LP": {}, "LLP": {},
	"GMBH": {}, "PLC": {}, "SA": {}, "AG": {},
}

// Similarity thresholds for grading name matches.
const (
	matchThreshold  = 0.9
	lowThreshold    = 0.7
	mediumThreshold = 0.5
)

// NormalizeName uppercases a company name, removes punctuation and legal
// suffixes, and collapses whitespace.
func NormalizeName(name string) string {
	upper := strings.ToUpper(name)
	upper = strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '&', '(', ')', '\'', '"':
			return ' '
		}
		return r
	}, upper)

	words := strings.Fields(upper)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if _, isSuffix := legalSuffixes[w]; isSuffix {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// NameSimilarity returns the Jaccard similarity of the normalized word sets
// of two company names.
func NameSimilarity(a, b string) float64 {
	wordsA := wordSet(NormalizeName(a))
	wordsB := wordSet(NormalizeName(b))
	if len(wordsA) == 0 && len(wordsB) == 0 {
		return 1
	}
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	intersection := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

// severityForSimilarity grades a name match ratio. A ratio at or above the
// match threshold is no discrepancy at all.
func severityForSimilarity(similarity float64) (models.Severity, bool) {
	switch {
	case similarity >= matchThreshold:
		return "", false
	case similarity >= lowThreshold:
		return models.SeverityLow, true
	case similarity >= mediumThreshold:
		return models.SeverityMedium, true
	default:
		return models.SeverityHigh, true
	}
}

// Penalty weights applied to consistency per discrepancy severity.
const (
	penaltyHigh   = 0.30
	penaltyMedium = 0.15
	penaltyLow    = 0.05
)

// Detector finds cross-source disagreements in a run's evidence.
type Detector struct{}

// NewDetector creates a Detector.
func NewDetector() *Detector { return &Detector{} }

// Detect compares the claimed snapshot against every evaluated source result
// and returns the discrepancies found.
func (d *Detector) Detect(c company.Company, results []models.SourceResult) []models.Discrepancy {
	byCategory := make(map[models.SourceCategory]models.SourceResult, len(results))
	for _, r := range results {
		if r.Evaluated {
			byCategory[r.Category] = r
		}
	}

	var found []models.Discrepancy
	found = append(found, d.nameDiscrepancies(c, byCategory)...)
	found = append(found, d.domainDiscrepancies(byCategory)...)
	found = append(found, d.registryStatusDiscrepancies(byCategory)...)
	return found
}

// nameDiscrepancies compares the claimed legal name with the registry's record.
func (d *Detector) nameDiscrepancies(c company.Company, byCategory map[models.SourceCategory]models.SourceResult) []models.Discrepancy {
	reg, ok := byCategory[models.SourceRegistration]
	if !ok {
		return nil
	}
	registryName := reg.Fields[adapters.FieldRegistryName]
	if registryName == "" || c.LegalName == "" {
		return nil
	}

	severity, mismatch := severityForSimilarity(NameSimilarity(c.LegalName, registryName))
	if !mismatch {
		return nil
	}
	return []models.Discrepancy{{
		Field:    "legal_name",
		Expected: c.LegalName,
		Observed: registryName,
		Source:   models.SourceRegistration,
		Severity: severity,
	}}
}

// domainDiscrepancies checks that the contact email lives under the claimed domain.
func (d *Detector) domainDiscrepancies(byCategory map[models.SourceCategory]models.SourceResult) []models.Discrepancy {
	dns, dnsOK := byCategory[models.SourceDNS]
	contact, contactOK := byCategory[models.SourceContact]
	if !dnsOK || !contactOK {
		return nil
	}

	claimed := dns.Fields[adapters.FieldRegistrableDomain]
	emailDomain := contact.Fields[adapters.FieldEmailDomain]
	if claimed == "" || emailDomain == "" {
		return nil
	}

	// Compare at the registrable level so mail@corp.acme.com matches acme.com.
	if reduced, err := publicsuffix.EffectiveTLDPlusOne(emailDomain); err == nil {
		emailDomain = reduced
	}
	if emailDomain == claimed {
		return nil
	}
	return []models.Discrepancy{{
		Field:    "domain",
		Expected: claimed,
		Observed: emailDomain,
		Source:   models.SourceContact,
		Severity: models.SeverityMedium,
	}}
}

// registryStatusDiscrepancies flags companies the registry no longer lists as active.
func (d *Detector) registryStatusDiscrepancies(byCategory map[models.SourceCategory]models.SourceResult) []models.Discrepancy {
	reg, ok := byCategory[models.SourceRegistration]
	if !ok {
		return nil
	}
	status := strings.ToLower(reg.Fields[adapters.FieldRegistryStatus])
	if status == "" || status == "active" {
		return nil
	}
	return []models.Discrepancy{{
		Field:    "registry_status",
		Expected: "active",
		Observed: status,
		Source:   models.SourceRegistration,
		Severity: models.SeverityHigh,
	}}
}

// Consistency converts discrepancies into a cross-source consistency score
// in [0,1]. Each discrepancy deducts a severity-weighted penalty.
func Consistency(discrepancies []models.Discrepancy) float64 {
	score := 1.0
	for _, disc := range discrepancies {
		switch disc.Severity {
		case models.SeverityHigh:
			score -= penaltyHigh
		case models.SeverityMedium:
			score -= penaltyMedium
		case models.SeverityLow:
			score -= penaltyLow
		}
	}
	if score < 0 {
		return 0
	}
	return score
}
