package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// PostgresStore persists verification records in PostgreSQL.
// This store is pure I/O; transition rules belong to the model.
//
// The one-active-record-per-company invariant is enforced by a partial
// unique index on company_id over non-terminal statuses, so concurrent
// triggers race in the database, not in application code.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed verification store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `
	id, company_id, status, trigger_reason, overrides,
	risk_score, risk_category, breakdown, consistency_score, failure_reason,
	sources, started_at, completed_at, created_at, updated_at, tombstoned
`

func (s *PostgresStore) CreateIfNoActive(ctx context.Context, record *models.VerificationRecord) error {
	overrides, sources, breakdown, err := marshalRecordJSON(record)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO verification_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(record.ID), uuid.UUID(record.CompanyID), string(record.Status),
		record.TriggerReason, overrides,
		record.RiskScore, riskCategoryString(record.RiskCategory), breakdown,
		record.ConsistencyScore, nullString(record.FailureReason),
		sources, record.StartedAt, record.CompletedAt,
		record.CreatedAt, record.UpdatedAt, record.Tombstoned,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create verification record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, record *models.VerificationRecord) error {
	overrides, sources, breakdown, err := marshalRecordJSON(record)
	if err != nil {
		return err
	}

	query := `
		UPDATE verification_records SET
			status = $2,
			trigger_reason = $3,
			overrides = $4,
			risk_score = $5,
			risk_category = $6,
			breakdown = $7,
			consistency_score = $8,
			failure_reason = $9,
			sources = $10,
			started_at = $11,
			completed_at = $12,
			updated_at = $13,
			tombstoned = $14
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(record.ID), string(record.Status),
		record.TriggerReason, overrides,
		record.RiskScore, riskCategoryString(record.RiskCategory), breakdown,
		record.ConsistencyScore, nullString(record.FailureReason),
		sources, record.StartedAt, record.CompletedAt,
		record.UpdatedAt, record.Tombstoned,
	)
	if err != nil {
		return fmt.Errorf("update verification record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update verification record rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, recordID id.RecordID) (*models.VerificationRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM verification_records WHERE id = $1`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, uuid.UUID(recordID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get verification record: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) Latest(ctx context.Context, companyID id.CompanyID) (*models.VerificationRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM verification_records
		WHERE company_id = $1 AND NOT tombstoned
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, uuid.UUID(companyID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("latest verification record: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ListByCompany(ctx context.Context, companyID id.CompanyID, limit int) ([]*models.VerificationRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM verification_records
		WHERE company_id = $1 AND NOT tombstoned
		ORDER BY created_at DESC, id DESC
	`
	args := []any{uuid.UUID(companyID)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list verification records: %w", err)
	}
	defer rows.Close()

	var out []*models.VerificationRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verification record: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification records: %w", err)
	}
	return out, nil
}

type recordRow interface {
	Scan(dest ...any) error
}

func scanRecord(row recordRow) (*models.VerificationRecord, error) {
	var (
		record       models.VerificationRecord
		recordID     uuid.UUID
		companyID    uuid.UUID
		status       string
		overrides    []byte
		riskCategory sql.NullString
		breakdown    []byte
		failure      sql.NullString
		sources      []byte
		startedAt    sql.NullTime
		completedAt  sql.NullTime
	)
	err := row.Scan(
		&recordID, &companyID, &status, &record.TriggerReason, &overrides,
		&record.RiskScore, &riskCategory, &breakdown, &record.ConsistencyScore, &failure,
		&sources, &startedAt, &completedAt, &record.CreatedAt, &record.UpdatedAt, &record.Tombstoned,
	)
	if err != nil {
		return nil, err
	}

	record.ID = id.RecordID(recordID)
	record.CompanyID = id.CompanyID(companyID)
	record.Status = models.Status(status)
	if riskCategory.Valid {
		category := models.RiskCategory(riskCategory.String)
		record.RiskCategory = &category
	}
	if failure.Valid {
		record.FailureReason = failure.String
	}
	if startedAt.Valid {
		record.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		record.CompletedAt = &completedAt.Time
	}
	if len(overrides) > 0 {
		if err := json.Unmarshal(overrides, &record.Overrides); err != nil {
			return nil, fmt.Errorf("decode overrides: %w", err)
		}
	}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &record.Breakdown); err != nil {
			return nil, fmt.Errorf("decode breakdown: %w", err)
		}
	}
	if len(sources) > 0 {
		if err := json.Unmarshal(sources, &record.Sources); err != nil {
			return nil, fmt.Errorf("decode sources: %w", err)
		}
	}
	return &record, nil
}

func marshalRecordJSON(record *models.VerificationRecord) (overrides, sources, breakdown []byte, err error) {
	if record.Overrides != nil {
		if overrides, err = json.Marshal(record.Overrides); err != nil {
			return nil, nil, nil, fmt.Errorf("encode overrides: %w", err)
		}
	}
	if record.Sources != nil {
		if sources, err = json.Marshal(record.Sources); err != nil {
			return nil, nil, nil, fmt.Errorf("encode sources: %w", err)
		}
	}
	if record.Breakdown != nil {
		if breakdown, err = json.Marshal(record.Breakdown); err != nil {
			return nil, nil, nil, fmt.Errorf("encode breakdown: %w", err)
		}
	}
	return overrides, sources, breakdown, nil
}

func riskCategoryString(category *models.RiskCategory) *string {
	if category == nil {
		return nil
	}
	s := string(*category)
	return &s
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ Store = (*PostgresStore)(nil)
