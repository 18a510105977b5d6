// Package events publishes verification lifecycle signals so downstream
// consumers can react to status changes without polling the API.
package events

import (
	"context"
	"time"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
)

// Topic is the Kafka topic carrying status change events.
const Topic = "verification.status-changed"

// StatusChanged is emitted every time a verification record transitions.
type StatusChanged struct {
	CompanyID  id.CompanyID  `json:"company_id"`
	RecordID   id.RecordID   `json:"record_id"`
	OldStatus  models.Status `json:"old_status"`
	NewStatus  models.Status `json:"new_status"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Publisher delivers status change events. Publishing is best effort from
// the caller's point of view; a failed publish never fails the verification.
type Publisher interface {
	PublishStatusChanged(ctx context.Context, event StatusChanged) error
}
