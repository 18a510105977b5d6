package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/company"
	"vouch/internal/correction"
	"vouch/internal/platform/config"
	"vouch/internal/platform/middleware"
	"vouch/internal/verification/adapters"
	"vouch/internal/verification/events"
	"vouch/internal/verification/handler"
	"vouch/internal/verification/models"
	"vouch/internal/verification/orchestrator"
	"vouch/internal/verification/store"
	id "vouch/pkg/domain"
)

// stubAdapter returns a fixed evaluated result for one source.
type stubAdapter struct {
	category   models.SourceCategory
	confidence float64
}

func (s stubAdapter) Category() models.SourceCategory   { return s.category }
func (s stubAdapter) Applicable(_ company.Company) bool { return true }

func (s stubAdapter) Evaluate(_ context.Context, _ company.Company) (models.SourceResult, error) {
	return models.SourceResult{
		Category:   s.category,
		Evaluated:  true,
		Verified:   s.confidence >= 0.6,
		Confidence: s.confidence,
		CheckedAt:  time.Now().UTC(),
	}, nil
}

type env struct {
	router      chi.Router
	service     *orchestrator.Service
	corrections *correction.MemorySource
	companyID   id.CompanyID
}

func newEnv(t *testing.T) *env {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	directory := company.NewMemoryDirectory()
	corrections := correction.NewMemorySource()

	snapshot := company.Company{
		ID:        id.NewCompanyID(),
		LegalName: "Acme Holdings Ltd",
		Domain:    "acme.com",
		Email:     "ops@acme.com",
	}
	directory.Put(context.Background(), snapshot)

	service := orchestrator.New(
		store.NewMemoryStore(),
		directory,
		corrections,
		[]adapters.Adapter{
			stubAdapter{category: models.SourceDNS, confidence: 0.95},
			stubAdapter{category: models.SourceContact, confidence: 0.85},
		},
		events.NewMemoryPublisher(),
		nil,
		logger,
		config.VerificationConfig{
			RunTimeout:            5 * time.Second,
			MaxConcurrentAdapters: 4,
			AdapterTimeout:        time.Second,
			AdapterAttempts:       1,
		},
	)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Recovery(logger))
	handler.New(service, logger).Register(router)

	return &env{router: router, service: service, corrections: corrections, companyID: snapshot.ID}
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeRecord(t *testing.T, rec *httptest.ResponseRecorder) handler.RecordResponse {
	t.Helper()
	var resp handler.RecordResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestTriggerEndpoint(t *testing.T) {
	t.Run("accepts a trigger and completes the run", func(t *testing.T) {
		e := newEnv(t)

		rec := e.do(t, http.MethodPost, "/v1/verifications", map[string]string{
			"company_id": e.companyID.String(),
			"reason":     "onboarding",
		})
		require.Equal(t, http.StatusAccepted, rec.Code)

		accepted := decodeRecord(t, rec)
		assert.Equal(t, e.companyID, accepted.CompanyID)
		assert.Equal(t, string(models.StatusPending), accepted.Status)
		assert.Equal(t, "onboarding", accepted.TriggerReason)
		assert.Nil(t, accepted.RiskScore)

		e.service.Drain()

		got := e.do(t, http.MethodGet, "/v1/verifications/"+accepted.ID.String(), nil)
		require.Equal(t, http.StatusOK, got.Code)

		completed := decodeRecord(t, got)
		assert.Equal(t, string(models.StatusCompleted), completed.Status)
		require.NotNil(t, completed.RiskScore)
		require.NotNil(t, completed.RiskCategory)
		assert.Len(t, completed.Breakdown, 5)
		assert.Len(t, completed.Sources, 2)
	})

	t.Run("carries overrides into the run", func(t *testing.T) {
		e := newEnv(t)

		rec := e.do(t, http.MethodPost, "/v1/verifications", map[string]any{
			"company_id": e.companyID.String(),
			"overrides":  map[string]string{"domain": "acme.co.uk"},
		})
		require.Equal(t, http.StatusAccepted, rec.Code)

		accepted := decodeRecord(t, rec)
		assert.Equal(t, map[string]string{"domain": "acme.co.uk"}, accepted.Overrides)
		e.service.Drain()
	})

	t.Run("concurrent trigger conflicts", func(t *testing.T) {
		e := newEnv(t)

		first := e.do(t, http.MethodPost, "/v1/verifications", map[string]string{"company_id": e.companyID.String()})
		require.Equal(t, http.StatusAccepted, first.Code)

		second := e.do(t, http.MethodPost, "/v1/verifications", map[string]string{"company_id": e.companyID.String()})
		// The first run may already have finished; only an active run conflicts.
		if second.Code == http.StatusConflict {
			var body map[string]string
			require.NoError(t, json.NewDecoder(second.Body).Decode(&body))
			assert.Equal(t, "conflict", body["error"])
		}
		e.service.Drain()
	})

	t.Run("validation failures", func(t *testing.T) {
		e := newEnv(t)

		cases := []struct {
			name string
			body any
			want int
		}{
			{"missing company_id", map[string]string{}, http.StatusBadRequest},
			{"malformed company_id", map[string]string{"company_id": "nope"}, http.StatusBadRequest},
			{"unknown company", map[string]string{"company_id": id.NewCompanyID().String()}, http.StatusNotFound},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				rec := e.do(t, http.MethodPost, "/v1/verifications", tc.body)
				assert.Equal(t, tc.want, rec.Code)
			})
		}

		req := httptest.NewRequest(http.MethodPost, "/v1/verifications", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		e.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReVerifyEndpoint(t *testing.T) {
	e := newEnv(t)

	e.corrections.Approve(context.Background(), correction.Approved{
		CompanyID:  e.companyID,
		Field:      "domain",
		NewValue:   "acme.co.uk",
		ApprovedAt: time.Now().UTC(),
	})

	rec := e.do(t, http.MethodPost, "/v1/companies/"+e.companyID.String()+"/re-verify", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	accepted := decodeRecord(t, rec)
	assert.Equal(t, "re-verify", accepted.TriggerReason)
	assert.Equal(t, map[string]string{"domain": "acme.co.uk"}, accepted.Overrides)

	e.service.Drain()

	custom := e.do(t, http.MethodPost, "/v1/companies/"+e.companyID.String()+"/re-verify", map[string]string{"reason": "quarterly audit"})
	require.Equal(t, http.StatusAccepted, custom.Code)
	assert.Equal(t, "quarterly audit", decodeRecord(t, custom).TriggerReason)
	e.service.Drain()

	missing := e.do(t, http.MethodPost, "/v1/companies/"+id.NewCompanyID().String()+"/re-verify", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestHistoryEndpoints(t *testing.T) {
	e := newEnv(t)

	var recordIDs []id.RecordID
	for i := 0; i < 3; i++ {
		rec := e.do(t, http.MethodPost, "/v1/verifications", map[string]string{"company_id": e.companyID.String()})
		require.Equal(t, http.StatusAccepted, rec.Code)
		recordIDs = append(recordIDs, decodeRecord(t, rec).ID)
		e.service.Drain()
	}

	t.Run("lists history", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/v1/companies/"+e.companyID.String()+"/verifications", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp handler.ListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, 3, resp.Count)
	})

	t.Run("honors the limit parameter", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/v1/companies/"+e.companyID.String()+"/verifications?limit=2", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp handler.ListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, 2, resp.Count)
	})

	t.Run("rejects a bad limit", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/v1/companies/"+e.companyID.String()+"/verifications?limit=zero", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("serves the risk trend", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/v1/companies/"+e.companyID.String()+"/risk-trend", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var trend handler.TrendResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&trend))
		assert.Equal(t, e.companyID, trend.CompanyID)
		assert.Equal(t, 3, trend.Samples)
		assert.NotEmpty(t, trend.Direction)
	})

	t.Run("trend without history is 404", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/v1/companies/"+id.NewCompanyID().String()+"/risk-trend", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("deletes a terminal record", func(t *testing.T) {
		rec := e.do(t, http.MethodDelete, "/v1/verifications/"+recordIDs[0].String(), nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		gone := e.do(t, http.MethodGet, "/v1/verifications/"+recordIDs[0].String(), nil)
		assert.Equal(t, http.StatusNotFound, gone.Code)

		again := e.do(t, http.MethodDelete, "/v1/verifications/"+recordIDs[0].String(), nil)
		assert.Equal(t, http.StatusUnprocessableEntity, again.Code)
	})

	t.Run("unknown record is 404", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/v1/verifications/"+id.NewRecordID().String(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		del := e.do(t, http.MethodDelete, "/v1/verifications/"+id.NewRecordID().String(), nil)
		assert.Equal(t, http.StatusNotFound, del.Code)
	})

	t.Run("malformed ids are 400", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/v1/verifications/nope", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
