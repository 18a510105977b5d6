package handler

import (
	"strings"

	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// TriggerRequest is the HTTP request body for POST /v1/verifications.
type TriggerRequest struct {
	CompanyID string            `json:"company_id"`
	Reason    string            `json:"reason"`
	Overrides map[string]string `json:"overrides"`

	// Parsed values (populated by Validate)
	parsedCompanyID id.CompanyID
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *TriggerRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.CompanyID = strings.TrimSpace(r.CompanyID)
	if r.CompanyID == "" {
		return dErrors.New(dErrors.CodeValidation, "company_id is required")
	}
	companyID, err := id.ParseCompanyID(r.CompanyID)
	if err != nil {
		return err
	}
	r.parsedCompanyID = companyID

	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		r.Reason = "manual"
	}
	if len(r.Reason) > 200 {
		return dErrors.New(dErrors.CodeValidation, "reason must be at most 200 characters")
	}

	if len(r.Overrides) > 20 {
		return dErrors.New(dErrors.CodeValidation, "at most 20 overrides per trigger")
	}
	for field := range r.Overrides {
		if strings.TrimSpace(field) == "" {
			return dErrors.New(dErrors.CodeValidation, "override field names cannot be empty")
		}
	}
	return nil
}

// ParsedCompanyID returns the validated company ID.
func (r *TriggerRequest) ParsedCompanyID() id.CompanyID {
	return r.parsedCompanyID
}

// ReVerifyRequest is the optional HTTP request body for
// POST /v1/companies/{companyID}/re-verify.
type ReVerifyRequest struct {
	Reason string `json:"reason"`
}

// Validate validates the request.
func (r *ReVerifyRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if len(r.Reason) > 200 {
		return dErrors.New(dErrors.CodeValidation, "reason must be at most 200 characters")
	}
	return nil
}
