package models

import (
	"time"

	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// VerificationRecord is the aggregate root for one verification run.
//
// Invariants:
//   - Status transitions follow the lifecycle state machine
//   - Terminal records (COMPLETED, FAILED) are immutable except for the tombstone flag
//   - Score fields are set exactly when Status is COMPLETED
//   - History is append-only: records are tombstoned, never physically deleted
type VerificationRecord struct {
	ID            id.RecordID       `json:"id"`
	CompanyID     id.CompanyID      `json:"company_id"`
	Status        Status            `json:"status"`
	TriggerReason string            `json:"trigger_reason,omitempty"`
	Overrides     map[string]string `json:"overrides,omitempty"`

	RiskScore        *int          `json:"risk_score,omitempty"`
	RiskCategory     *RiskCategory `json:"risk_category,omitempty"`
	Breakdown        *RiskBreakdown `json:"breakdown,omitempty"`
	ConsistencyScore *float64      `json:"consistency_score,omitempty"`
	FailureReason    string        `json:"failure_reason,omitempty"`

	Sources []SourceResult `json:"sources,omitempty"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Tombstoned  bool       `json:"tombstoned,omitempty"`
}

// NewRecord constructs a PENDING record for a fresh verification run.
func NewRecord(recordID id.RecordID, companyID id.CompanyID, reason string, overrides map[string]string, now time.Time) *VerificationRecord {
	return &VerificationRecord{
		ID:            recordID,
		CompanyID:     companyID,
		Status:        StatusPending,
		TriggerReason: reason,
		Overrides:     overrides,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// CanBegin checks the PENDING → IN_PROGRESS transition.
func (r *VerificationRecord) CanBegin() error {
	if !r.Status.CanTransitionTo(StatusInProgress) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot begin verification in status %s", r.Status)
	}
	return nil
}

// ApplyBegin moves the record to IN_PROGRESS and stamps the start time.
// Call CanBegin first to validate the transition.
func (r *VerificationRecord) ApplyBegin(now time.Time) {
	r.Status = StatusInProgress
	r.StartedAt = &now
	r.UpdatedAt = now
}

// Outcome carries the scored results of a finished run.
type Outcome struct {
	Sources          []SourceResult
	Breakdown        RiskBreakdown
	RiskCategory     RiskCategory
	ConsistencyScore float64
}

// CanComplete checks the IN_PROGRESS → COMPLETED transition.
func (r *VerificationRecord) CanComplete() error {
	if !r.Status.CanTransitionTo(StatusCompleted) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot complete verification in status %s", r.Status)
	}
	return nil
}

// ApplyCompletion moves the record to COMPLETED with its scored outcome.
// Call CanComplete first to validate the transition.
func (r *VerificationRecord) ApplyCompletion(outcome Outcome, now time.Time) {
	score := outcome.Breakdown.Score
	category := outcome.RiskCategory
	consistency := outcome.ConsistencyScore
	breakdown := outcome.Breakdown

	r.Status = StatusCompleted
	r.Sources = outcome.Sources
	r.RiskScore = &score
	r.RiskCategory = &category
	r.Breakdown = &breakdown
	r.ConsistencyScore = &consistency
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// CanFail checks the IN_PROGRESS → FAILED transition.
func (r *VerificationRecord) CanFail() error {
	if !r.Status.CanTransitionTo(StatusFailed) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot fail verification in status %s", r.Status)
	}
	return nil
}

// ApplyFailure moves the record to FAILED with a reason. Partial source
// results are kept as evidence of what was attempted.
// Call CanFail first to validate the transition.
func (r *VerificationRecord) ApplyFailure(reason string, sources []SourceResult, now time.Time) {
	r.Status = StatusFailed
	r.FailureReason = reason
	r.Sources = sources
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// CanTombstone checks whether the record may be tombstoned.
// Only terminal records can be tombstoned, and only once.
func (r *VerificationRecord) CanTombstone() error {
	if !r.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeInvariantViolation, "only terminal verification records can be deleted")
	}
	if r.Tombstoned {
		return dErrors.New(dErrors.CodeInvariantViolation, "verification record is already deleted")
	}
	return nil
}

// ApplyTombstone marks the record deleted without removing it from history.
// Call CanTombstone first to validate.
func (r *VerificationRecord) ApplyTombstone(now time.Time) {
	r.Tombstoned = true
	r.UpdatedAt = now
}
