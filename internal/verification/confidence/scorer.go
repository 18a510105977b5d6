// Package confidence derives per-category confidence from gathered evidence.
//
// Confidence is a value in [0,1] per scoring category. A category whose
// source never ran scores exactly 0 and is excluded from evidence counts.
// Discrepancies reduce the confidence of the source that produced the
// conflicting observation.
package confidence

import (
	"vouch/internal/verification/discrepancy"
	"vouch/internal/verification/models"
)

// Scoring category names shared with the risk calculator.
const (
	CategoryDNS                = "dns"
	CategoryRegistration       = "registration"
	CategoryContact            = "contact"
	CategoryDomainAuthenticity = "domain_authenticity"
	CategoryCrossSource        = "cross_source"
)

// Scores holds per-category confidence plus the raw consistency score.
type Scores struct {
	DNS                float64
	Registration       float64
	Contact            float64
	DomainAuthenticity float64
	CrossSource        float64

	// Consistency is the severity-weighted agreement across sources,
	// before coverage scaling.
	Consistency float64

	// EvidenceCount is how many sources actually ran.
	EvidenceCount int
}

// ByCategory returns the confidence for a scoring category name.
func (s Scores) ByCategory(category string) float64 {
	switch category {
	case CategoryDNS:
		return s.DNS
	case CategoryRegistration:
		return s.Registration
	case CategoryContact:
		return s.Contact
	case CategoryDomainAuthenticity:
		return s.DomainAuthenticity
	case CategoryCrossSource:
		return s.CrossSource
	default:
		return 0
	}
}

// Scorer computes confidence scores from source results and discrepancies.
type Scorer struct{}

// NewScorer creates a Scorer.
func NewScorer() *Scorer { return &Scorer{} }

// Score derives the five scoring-category confidences.
//
// Direct categories (dns, registration, contact) take their adapter's
// confidence, reduced by penalties for discrepancies that source produced.
// Domain authenticity blends DNS and registration evidence and is halved
// when the contact email contradicts the claimed domain. Cross-source is
// consistency scaled by evidence coverage, and needs at least two evaluated
// sources to corroborate anything.
func (s *Scorer) Score(results []models.SourceResult, discrepancies []models.Discrepancy) Scores {
	byCategory := make(map[models.SourceCategory]models.SourceResult, len(results))
	evidenceCount := 0
	for _, r := range results {
		if r.Evaluated {
			byCategory[r.Category] = r
			evidenceCount++
		}
	}

	penalties := penaltiesBySource(discrepancies)

	scores := Scores{
		DNS:           adjusted(byCategory, models.SourceDNS, penalties),
		Registration:  adjusted(byCategory, models.SourceRegistration, penalties),
		Contact:       adjusted(byCategory, models.SourceContact, penalties),
		Consistency:   discrepancy.Consistency(discrepancies),
		EvidenceCount: evidenceCount,
	}

	scores.DomainAuthenticity = s.domainAuthenticity(byCategory, discrepancies)

	if evidenceCount >= 2 {
		coverage := float64(evidenceCount) / float64(len(models.AllSources))
		scores.CrossSource = scores.Consistency * coverage
	}

	return scores
}

// domainAuthenticity estimates how likely the claimed domain genuinely
// belongs to the claimed legal entity.
func (s *Scorer) domainAuthenticity(byCategory map[models.SourceCategory]models.SourceResult, discrepancies []models.Discrepancy) float64 {
	dns, dnsOK := byCategory[models.SourceDNS]
	reg, regOK := byCategory[models.SourceRegistration]
	if !dnsOK && !regOK {
		return 0
	}

	var score float64
	switch {
	case dnsOK && regOK:
		score = 0.6*dns.Confidence + 0.4*reg.Confidence
	case dnsOK:
		score = 0.6 * dns.Confidence
	default:
		score = 0.4 * reg.Confidence
	}

	for _, disc := range discrepancies {
		if disc.Field == "domain" {
			score *= 0.5
			break
		}
	}
	return clamp(score)
}

func penaltiesBySource(discrepancies []models.Discrepancy) map[models.SourceCategory]float64 {
	penalties := make(map[models.SourceCategory]float64)
	for _, disc := range discrepancies {
		switch disc.Severity {
		case models.SeverityHigh:
			penalties[disc.Source] += 0.30
		case models.SeverityMedium:
			penalties[disc.Source] += 0.15
		case models.SeverityLow:
			penalties[disc.Source] += 0.05
		}
	}
	return penalties
}

func adjusted(byCategory map[models.SourceCategory]models.SourceResult, cat models.SourceCategory, penalties map[models.SourceCategory]float64) float64 {
	result, ok := byCategory[cat]
	if !ok {
		return 0
	}
	return clamp(result.Confidence - penalties[cat])
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
