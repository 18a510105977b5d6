// Package store persists verification records.
//
// History is append-only: records are created once, updated only through
// lifecycle transitions, and tombstoned instead of deleted. Stores are pure
// I/O; transition rules live on the model.
package store

import (
	"context"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
)

// Store is the verification history persistence contract.
type Store interface {
	// CreateIfNoActive inserts a new record unless the company already has
	// a non-terminal one, in which case it returns sentinel.ErrConflict.
	// The check and insert are atomic.
	CreateIfNoActive(ctx context.Context, record *models.VerificationRecord) error

	// Update persists the current state of an existing record.
	// Returns sentinel.ErrNotFound for unknown records.
	Update(ctx context.Context, record *models.VerificationRecord) error

	// Get returns a record by ID, tombstoned or not.
	// Returns sentinel.ErrNotFound for unknown records.
	Get(ctx context.Context, recordID id.RecordID) (*models.VerificationRecord, error)

	// Latest returns the newest non-tombstoned record for a company.
	// Returns sentinel.ErrNotFound when the company has no visible history.
	Latest(ctx context.Context, companyID id.CompanyID) (*models.VerificationRecord, error)

	// ListByCompany returns non-tombstoned records newest first, up to limit.
	// A non-positive limit returns the full visible history.
	ListByCompany(ctx context.Context, companyID id.CompanyID, limit int) ([]*models.VerificationRecord, error)
}
