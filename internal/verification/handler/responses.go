package handler

import (
	"time"

	"vouch/internal/verification/models"
	"vouch/internal/verification/orchestrator"
	id "vouch/pkg/domain"
)

// RecordResponse is the HTTP shape of one verification record.
type RecordResponse struct {
	ID            id.RecordID       `json:"id"`
	CompanyID     id.CompanyID      `json:"company_id"`
	Status        string            `json:"status"`
	TriggerReason string            `json:"trigger_reason,omitempty"`
	Overrides     map[string]string `json:"overrides,omitempty"`

	RiskScore        *int                `json:"risk_score,omitempty"`
	RiskCategory     *string             `json:"risk_category,omitempty"`
	Breakdown        []ComponentResponse `json:"breakdown,omitempty"`
	ConsistencyScore *float64            `json:"consistency_score,omitempty"`
	FailureReason    string              `json:"failure_reason,omitempty"`

	Sources []SourceResponse `json:"sources,omitempty"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ComponentResponse is one weighted line of the risk breakdown.
type ComponentResponse struct {
	Category     string  `json:"category"`
	Weight       int     `json:"weight"`
	Confidence   float64 `json:"confidence"`
	Contribution float64 `json:"contribution"`
}

// SourceResponse is the HTTP shape of one source result.
type SourceResponse struct {
	Category      string                `json:"category"`
	Evaluated     bool                  `json:"evaluated"`
	Verified      bool                  `json:"verified"`
	Confidence    float64               `json:"confidence"`
	Fields        map[string]string     `json:"fields,omitempty"`
	Discrepancies []DiscrepancyResponse `json:"discrepancies,omitempty"`
	Note          string                `json:"note,omitempty"`
	Attempts      int                   `json:"attempts,omitempty"`
	CheckedAt     time.Time             `json:"checked_at"`
}

// DiscrepancyResponse is the HTTP shape of one cross-source disagreement.
type DiscrepancyResponse struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Observed string `json:"observed"`
	Source   string `json:"source"`
	Severity string `json:"severity"`
}

// ListResponse wraps a history page.
type ListResponse struct {
	Records []*RecordResponse `json:"records"`
	Count   int               `json:"count"`
}

// TrendResponse is the HTTP shape of a company's risk trend.
type TrendResponse struct {
	CompanyID id.CompanyID `json:"company_id"`
	Direction string       `json:"direction"`
	Samples   int          `json:"samples"`
	Latest    int          `json:"latest_score"`
	Average   float64      `json:"average_score"`
	Min       int          `json:"min_score"`
	Max       int          `json:"max_score"`
	Slope     float64      `json:"slope"`
}

// FromRecord converts a domain record to its HTTP response.
func FromRecord(record *models.VerificationRecord) *RecordResponse {
	resp := &RecordResponse{
		ID:               record.ID,
		CompanyID:        record.CompanyID,
		Status:           string(record.Status),
		TriggerReason:    record.TriggerReason,
		Overrides:        record.Overrides,
		RiskScore:        record.RiskScore,
		ConsistencyScore: record.ConsistencyScore,
		FailureReason:    record.FailureReason,
		StartedAt:        record.StartedAt,
		CompletedAt:      record.CompletedAt,
		CreatedAt:        record.CreatedAt,
	}
	if record.RiskCategory != nil {
		category := string(*record.RiskCategory)
		resp.RiskCategory = &category
	}
	if record.Breakdown != nil {
		resp.Breakdown = make([]ComponentResponse, 0, len(record.Breakdown.Components))
		for _, component := range record.Breakdown.Components {
			resp.Breakdown = append(resp.Breakdown, ComponentResponse{
				Category:     component.Category,
				Weight:       component.Weight,
				Confidence:   component.Confidence,
				Contribution: component.Contribution,
			})
		}
	}
	for _, source := range record.Sources {
		resp.Sources = append(resp.Sources, fromSource(source))
	}
	return resp
}

// FromRecords converts a history page.
func FromRecords(records []*models.VerificationRecord) ListResponse {
	out := ListResponse{Records: make([]*RecordResponse, 0, len(records))}
	for _, record := range records {
		out.Records = append(out.Records, FromRecord(record))
	}
	out.Count = len(out.Records)
	return out
}

// FromTrend converts a domain risk trend to its HTTP response.
func FromTrend(trend orchestrator.RiskTrend) TrendResponse {
	return TrendResponse{
		CompanyID: trend.CompanyID,
		Direction: string(trend.Direction),
		Samples:   trend.Samples,
		Latest:    trend.Latest,
		Average:   trend.Average,
		Min:       trend.Min,
		Max:       trend.Max,
		Slope:     trend.Slope,
	}
}

func fromSource(source models.SourceResult) SourceResponse {
	resp := SourceResponse{
		Category:   string(source.Category),
		Evaluated:  source.Evaluated,
		Verified:   source.Verified,
		Confidence: source.Confidence,
		Fields:     source.Fields,
		Note:       source.Note,
		Attempts:   source.Attempts,
		CheckedAt:  source.CheckedAt,
	}
	for _, disc := range source.Discrepancies {
		resp.Discrepancies = append(resp.Discrepancies, DiscrepancyResponse{
			Field:    disc.Field,
			Expected: disc.Expected,
			Observed: disc.Observed,
			Source:   string(disc.Source),
			Severity: string(disc.Severity),
		})
	}
	return resp
}
