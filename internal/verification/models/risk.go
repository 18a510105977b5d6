package models

// RiskCategory is the banded interpretation of a risk score.
type RiskCategory string

const (
	RiskLow    RiskCategory = "LOW"
	RiskMedium RiskCategory = "MEDIUM"
	RiskHigh   RiskCategory = "HIGH"
)

// RiskCategoryForScore maps a 0-100 score onto its band.
// Bands: LOW 0-30, MEDIUM 31-70, HIGH 71-100.
func RiskCategoryForScore(score int) RiskCategory {
	switch {
	case score <= 30:
		return RiskLow
	case score <= 70:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// RiskComponent is one weighted contribution to the overall score.
type RiskComponent struct {
	Category     string  `json:"category"`
	Weight       int     `json:"weight"`
	Confidence   float64 `json:"confidence"`
	Contribution float64 `json:"contribution"`
}

// RiskBreakdown decomposes a score into its weighted components.
// The component contributions sum to Score within rounding (±1).
type RiskBreakdown struct {
	Components []RiskComponent `json:"components"`
	Score      int             `json:"score"`
}
