package models

import "time"

// SourceCategory identifies the verification source that produced a result.
type SourceCategory string

const (
	SourceDNS          SourceCategory = "dns"
	SourceRegistration SourceCategory = "registration"
	SourceContact      SourceCategory = "contact"
	SourceAddress      SourceCategory = "address"
)

// AllSources lists every adapter category in dispatch order.
var AllSources = []SourceCategory{SourceDNS, SourceRegistration, SourceContact, SourceAddress}

// Severity grades how badly two sources disagree about a field.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Discrepancy records a disagreement between the claimed value and what a
// source observed, after normalization.
type Discrepancy struct {
	Field    string         `json:"field"`
	Expected string         `json:"expected"`
	Observed string         `json:"observed"`
	Source   SourceCategory `json:"source"`
	Severity Severity       `json:"severity"`
}

// SourceResult is the typed partial result of one adapter evaluation.
//
// Invariants:
//   - Evaluated == false implies Confidence == 0 and no Fields
//   - Confidence is within [0, 1]
//   - A result is evidence only when Evaluated is true
type SourceResult struct {
	Category      SourceCategory    `json:"category"`
	Evaluated     bool              `json:"evaluated"`
	Verified      bool              `json:"verified"`
	Confidence    float64           `json:"confidence"`
	Fields        map[string]string `json:"fields,omitempty"`
	Discrepancies []Discrepancy     `json:"discrepancies,omitempty"`
	Note          string            `json:"note,omitempty"`
	Attempts      int               `json:"attempts,omitempty"`
	CheckedAt     time.Time         `json:"checked_at"`
}

// NotEvaluated builds the marker result for a source that never ran.
func NotEvaluated(category SourceCategory, note string, now time.Time) SourceResult {
	return SourceResult{
		Category:  category,
		Evaluated: false,
		Note:      note,
		CheckedAt: now,
	}
}
