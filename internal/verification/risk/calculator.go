// Package risk turns per-category confidence into a banded 0-100 risk score.
package risk

import (
	"math"

	"vouch/internal/verification/confidence"
	"vouch/internal/verification/models"
)

// Category weights, fixed by the risk model. They sum to 100 and are part of
// the engine's external contract: downstream consumers interpret breakdowns
// against these exact weights.
const (
	WeightDNS                = 25
	WeightRegistration       = 25
	WeightContact            = 20
	WeightDomainAuthenticity = 15
	WeightCrossSource        = 15
)

// weightedCategories fixes the breakdown ordering.
var weightedCategories = []struct {
	name   string
	weight int
}{
	{confidence.CategoryDNS, WeightDNS},
	{confidence.CategoryRegistration, WeightRegistration},
	{confidence.CategoryContact, WeightContact},
	{confidence.CategoryDomainAuthenticity, WeightDomainAuthenticity},
	{confidence.CategoryCrossSource, WeightCrossSource},
}

// Calculator computes weighted risk scores.
//
// A category that was not evaluated carries confidence 0 and therefore
// contributes its full weight as risk: absence of evidence is risk, and the
// weights are deliberately not renormalized over the evaluated subset.
type Calculator struct{}

// NewCalculator creates a Calculator.
func NewCalculator() *Calculator { return &Calculator{} }

// Calculate converts confidence scores into a risk breakdown and band.
//
// Each category contributes weight × (1 − confidence). The overall score is
// the rounded sum of contributions, so the breakdown components always sum
// to the score within ±1.
func (c *Calculator) Calculate(scores confidence.Scores) (models.RiskBreakdown, models.RiskCategory) {
	components := make([]models.RiskComponent, 0, len(weightedCategories))
	total := 0.0

	for _, wc := range weightedCategories {
		conf := scores.ByCategory(wc.name)
		contribution := float64(wc.weight) * (1 - conf)
		total += contribution
		components = append(components, models.RiskComponent{
			Category:     wc.name,
			Weight:       wc.weight,
			Confidence:   conf,
			Contribution: contribution,
		})
	}

	score := int(math.Round(total))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	breakdown := models.RiskBreakdown{Components: components, Score: score}
	return breakdown, models.RiskCategoryForScore(score)
}
