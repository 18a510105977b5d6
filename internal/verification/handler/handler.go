// Package handler exposes the verification engine over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vouch/internal/verification/models"
	"vouch/internal/verification/orchestrator"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
	"vouch/pkg/requestcontext"
)

// defaultHistoryLimit caps history reads unless the caller asks for more.
const defaultHistoryLimit = 20

// maxHistoryLimit is the hard ceiling for one history page.
const maxHistoryLimit = 100

// Service defines the verification operations the HTTP layer exposes.
type Service interface {
	Trigger(ctx context.Context, companyID id.CompanyID, reason string, overrides map[string]string) (*models.VerificationRecord, error)
	ReVerify(ctx context.Context, companyID id.CompanyID, reason string) (*models.VerificationRecord, error)
	Get(ctx context.Context, recordID id.RecordID) (*models.VerificationRecord, error)
	List(ctx context.Context, companyID id.CompanyID, limit int) ([]*models.VerificationRecord, error)
	Trend(ctx context.Context, companyID id.CompanyID) (orchestrator.RiskTrend, error)
	Delete(ctx context.Context, recordID id.RecordID) error
}

// Handler wires verification endpoints to the orchestrator.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a verification handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/verifications", h.HandleTrigger)
	r.Get("/v1/verifications/{recordID}", h.HandleGet)
	r.Delete("/v1/verifications/{recordID}", h.HandleDelete)
	r.Post("/v1/companies/{companyID}/re-verify", h.HandleReVerify)
	r.Get("/v1/companies/{companyID}/verifications", h.HandleList)
	r.Get("/v1/companies/{companyID}/risk-trend", h.HandleTrend)
}

// HandleTrigger handles POST /v1/verifications requests. The run proceeds
// asynchronously, so success is 202 with the PENDING record.
func (h *Handler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[TriggerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.Trigger(ctx, req.ParsedCompanyID(), req.Reason, req.Overrides)
	if err != nil {
		h.logger.WarnContext(ctx, "verification trigger rejected",
			"request_id", requestID,
			"company_id", req.CompanyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, FromRecord(record))
}

// HandleReVerify handles POST /v1/companies/{companyID}/re-verify requests.
// The body is optional; an omitted reason defaults to "re-verify".
func (h *Handler) HandleReVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	companyID, err := id.ParseCompanyID(chi.URLParam(r, "companyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req ReVerifyRequest
	if r.ContentLength > 0 {
		decoded, ok := httputil.DecodeAndPrepare[ReVerifyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
		if !ok {
			return
		}
		req = *decoded
	}

	record, err := h.service.ReVerify(ctx, companyID, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "re-verification rejected",
			"request_id", requestcontext.RequestID(ctx),
			"company_id", companyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, FromRecord(record))
}

// HandleGet handles GET /v1/verifications/{recordID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service.Get(ctx, recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRecord(record))
}

// HandleList handles GET /v1/companies/{companyID}/verifications requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	companyID, err := id.ParseCompanyID(chi.URLParam(r, "companyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.service.List(ctx, companyID, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRecords(records))
}

// HandleTrend handles GET /v1/companies/{companyID}/risk-trend requests.
func (h *Handler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	companyID, err := id.ParseCompanyID(chi.URLParam(r, "companyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	trend, err := h.service.Trend(ctx, companyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromTrend(trend))
}

// HandleDelete handles DELETE /v1/verifications/{recordID} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(ctx, recordID); err != nil {
		h.logger.WarnContext(ctx, "verification delete rejected",
			"request_id", requestcontext.RequestID(ctx),
			"record_id", recordID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultHistoryLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer")
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return limit, nil
}
