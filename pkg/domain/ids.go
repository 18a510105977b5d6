// Package domain provides typed identifiers shared across modules.
//
// IDs are distinct types over uuid.UUID so a CompanyID can never be passed
// where a RecordID is expected. Parsing enforces the invariant that IDs are
// valid, non-nil UUIDs at trust boundaries (HTTP handlers, store scans).
package domain

import (
	"github.com/google/uuid"

	dErrors "vouch/pkg/domain-errors"
)

// CompanyID identifies a company under verification.
type CompanyID uuid.UUID

// RecordID identifies a single verification record.
type RecordID uuid.UUID

// NewCompanyID returns a freshly generated company ID.
func NewCompanyID() CompanyID { return CompanyID(uuid.New()) }

// NewRecordID returns a freshly generated verification record ID.
func NewRecordID() RecordID { return RecordID(uuid.New()) }

func (id CompanyID) String() string { return uuid.UUID(id).String() }
func (id RecordID) String() string  { return uuid.UUID(id).String() }

// IsZero reports whether the ID is the nil UUID.
func (id CompanyID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// IsZero reports whether the ID is the nil UUID.
func (id RecordID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText renders the ID in canonical UUID form for JSON payloads.
func (id CompanyID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// MarshalText renders the ID in canonical UUID form for JSON payloads.
func (id RecordID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText parses the ID, enforcing the same rules as ParseCompanyID.
func (id *CompanyID) UnmarshalText(b []byte) error {
	parsed, err := ParseCompanyID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// UnmarshalText parses the ID, enforcing the same rules as ParseRecordID.
func (id *RecordID) UnmarshalText(b []byte) error {
	parsed, err := ParseRecordID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseCompanyID parses and validates a company ID from its string form.
func ParseCompanyID(s string) (CompanyID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return CompanyID{}, err
	}
	return CompanyID(u), nil
}

// ParseRecordID parses and validates a record ID from its string form.
func ParseRecordID(s string) (RecordID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return RecordID{}, err
	}
	return RecordID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}
