package orchestrator

import (
	"context"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// trendWindow caps how many completed runs feed the trend.
const trendWindow = 10

// Slope thresholds, in score points per run, below which movement counts
// as noise rather than a direction.
const trendSlopeThreshold = 0.5

// TrendDirection summarizes where a company's risk is heading.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendStable    TrendDirection = "stable"
	TrendWorsening TrendDirection = "worsening"
)

// RiskTrend summarizes recent completed verification scores.
type RiskTrend struct {
	CompanyID id.CompanyID   `json:"company_id"`
	Direction TrendDirection `json:"direction"`
	Samples   int            `json:"samples"`
	Latest    int            `json:"latest_score"`
	Average   float64        `json:"average_score"`
	Min       int            `json:"min_score"`
	Max       int            `json:"max_score"`
	Slope     float64        `json:"slope"`
}

// Trend derives the risk trend over the company's most recent completed
// runs. Failed and tombstoned runs carry no score and are excluded.
func (s *Service) Trend(ctx context.Context, companyID id.CompanyID) (RiskTrend, error) {
	// No limit on the read: completed runs may be interleaved with failed
	// ones, so the window is applied after filtering.
	records, err := s.store.ListByCompany(ctx, companyID, 0)
	if err != nil {
		return RiskTrend{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verification records")
	}

	scores := completedScores(records)
	if len(scores) == 0 {
		return RiskTrend{}, dErrors.New(dErrors.CodeNotFound, "company has no completed verifications")
	}

	trend := RiskTrend{
		CompanyID: companyID,
		Samples:   len(scores),
		Latest:    scores[len(scores)-1],
		Min:       scores[0],
		Max:       scores[0],
		Slope:     slope(scores),
	}

	sum := 0
	for _, score := range scores {
		sum += score
		if score < trend.Min {
			trend.Min = score
		}
		if score > trend.Max {
			trend.Max = score
		}
	}
	trend.Average = float64(sum) / float64(len(scores))

	switch {
	case trend.Slope > trendSlopeThreshold:
		trend.Direction = TrendWorsening
	case trend.Slope < -trendSlopeThreshold:
		trend.Direction = TrendImproving
	default:
		trend.Direction = TrendStable
	}
	return trend, nil
}

// completedScores extracts scores of the last completed runs in
// chronological order, newest-first input assumed.
func completedScores(records []*models.VerificationRecord) []int {
	var newestFirst []int
	for _, r := range records {
		if r.Status == models.StatusCompleted && r.RiskScore != nil {
			newestFirst = append(newestFirst, *r.RiskScore)
			if len(newestFirst) == trendWindow {
				break
			}
		}
	}

	chronological := make([]int, len(newestFirst))
	for i, score := range newestFirst {
		chronological[len(newestFirst)-1-i] = score
	}
	return chronological
}

// slope fits a least-squares line through (run index, score) and returns
// its gradient in score points per run.
func slope(scores []int) float64 {
	n := len(scores)
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, score := range scores {
		x := float64(i)
		y := float64(score)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	fn := float64(n)
	denominator := fn*sumXX - sumX*sumX
	if denominator == 0 {
		return 0
	}
	return (fn*sumXY - sumX*sumY) / denominator
}
