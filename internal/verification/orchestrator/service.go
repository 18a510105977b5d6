// Package orchestrator runs the verification lifecycle.
//
// A trigger creates a PENDING record, then a detached run moves it to
// IN_PROGRESS, dispatches the source adapters in parallel, scores the
// gathered evidence, and finalizes the record as COMPLETED or FAILED.
// The trigger call returns as soon as the record exists; callers track
// progress through the record ID.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"vouch/internal/company"
	"vouch/internal/correction"
	"vouch/internal/platform/config"
	"vouch/internal/verification/adapters"
	"vouch/internal/verification/confidence"
	"vouch/internal/verification/discrepancy"
	"vouch/internal/verification/events"
	"vouch/internal/verification/metrics"
	"vouch/internal/verification/models"
	"vouch/internal/verification/risk"
	"vouch/internal/verification/store"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/requestcontext"
)

// Service coordinates verification runs over the source adapters.
type Service struct {
	store       store.Store
	directory   company.Directory
	corrections correction.Source
	adapters    []adapters.Adapter
	detector    *discrepancy.Detector
	scorer      *confidence.Scorer
	calculator  *risk.Calculator
	publisher   events.Publisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
	cfg         config.VerificationConfig
	tracer      trace.Tracer

	runs sync.WaitGroup
}

// New wires a verification service. The given adapters are wrapped with
// retry handling for transient source failures.
func New(
	st store.Store,
	directory company.Directory,
	corrections correction.Source,
	sourceAdapters []adapters.Adapter,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg config.VerificationConfig,
) *Service {
	retryCfg := adapters.DefaultRetryConfig()
	if cfg.AdapterAttempts > 0 {
		retryCfg.Attempts = cfg.AdapterAttempts
	}

	wrapped := make([]adapters.Adapter, 0, len(sourceAdapters))
	for _, a := range sourceAdapters {
		wrapped = append(wrapped, adapters.WithRetry(a, retryCfg))
	}

	return &Service{
		store:       st,
		directory:   directory,
		corrections: corrections,
		adapters:    wrapped,
		detector:    discrepancy.NewDetector(),
		scorer:      confidence.NewScorer(),
		calculator:  risk.NewCalculator(),
		publisher:   publisher,
		metrics:     m,
		logger:      logger,
		cfg:         cfg,
		tracer:      otel.Tracer("vouch/internal/verification/orchestrator"),
	}
}

// Trigger starts a verification run for a company. It returns the PENDING
// record immediately; the run itself proceeds in the background. A company
// with a run already in flight gets a conflict error. Overrides replace
// claimed fields for this run only.
func (s *Service) Trigger(ctx context.Context, companyID id.CompanyID, reason string, overrides map[string]string) (*models.VerificationRecord, error) {
	return s.trigger(ctx, companyID, reason, overrides)
}

// ReVerify starts a verification run with the company's approved corrections
// applied as field overrides. An empty reason defaults to "re-verify".
func (s *Service) ReVerify(ctx context.Context, companyID id.CompanyID, reason string) (*models.VerificationRecord, error) {
	if reason == "" {
		reason = "re-verify"
	}
	approved, err := s.corrections.ListApproved(ctx, companyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load approved corrections")
	}

	var overrides map[string]string
	if len(approved) > 0 {
		// Approval order, so a later correction of the same field wins.
		overrides = make(map[string]string, len(approved))
		for _, c := range approved {
			overrides[c.Field] = c.NewValue
		}
	}
	return s.trigger(ctx, companyID, reason, overrides)
}

func (s *Service) trigger(ctx context.Context, companyID id.CompanyID, reason string, overrides map[string]string) (*models.VerificationRecord, error) {
	snapshot, err := s.directory.Get(ctx, companyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "company not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load company")
	}

	now := requestcontext.Now(ctx)
	record := models.NewRecord(id.NewRecordID(), companyID, reason, overrides, now)

	if err := s.store.CreateIfNoActive(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementTriggerConflict()
			return nil, dErrors.New(dErrors.CodeConflict, "a verification is already in progress for this company")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create verification record")
	}

	claimed := *snapshot
	for field, value := range overrides {
		if !claimed.ApplyOverride(field, value) {
			s.logger.WarnContext(ctx, "ignoring override for unknown field",
				"company_id", companyID,
				"field", field,
			)
		}
	}

	s.logger.InfoContext(ctx, "verification triggered",
		"company_id", companyID,
		"record_id", record.ID,
		"reason", reason,
	)

	pending := *record
	s.runs.Add(1)
	go s.run(context.WithoutCancel(ctx), record, claimed)
	return &pending, nil
}

// Get returns a verification record by ID. Tombstoned records are treated
// as deleted and report not found.
func (s *Service) Get(ctx context.Context, recordID id.RecordID) (*models.VerificationRecord, error) {
	record, err := s.store.Get(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "verification record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification record")
	}
	if record.Tombstoned {
		return nil, dErrors.New(dErrors.CodeNotFound, "verification record not found")
	}
	return record, nil
}

// List returns a company's verification history, newest first.
func (s *Service) List(ctx context.Context, companyID id.CompanyID, limit int) ([]*models.VerificationRecord, error) {
	records, err := s.store.ListByCompany(ctx, companyID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verification records")
	}
	return records, nil
}

// Delete tombstones a terminal verification record. The record stays in
// storage but disappears from history reads.
func (s *Service) Delete(ctx context.Context, recordID id.RecordID) error {
	record, err := s.store.Get(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "verification record not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification record")
	}

	if err := record.CanTombstone(); err != nil {
		return err
	}
	record.ApplyTombstone(requestcontext.Now(ctx))

	if err := s.store.Update(ctx, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete verification record")
	}

	s.logger.InfoContext(ctx, "verification record deleted",
		"company_id", record.CompanyID,
		"record_id", record.ID,
	)
	return nil
}

// Drain blocks until every in-flight verification run has finalized.
func (s *Service) Drain() {
	s.runs.Wait()
}

// run executes one verification from IN_PROGRESS to a terminal state. It
// always finalizes the record: the run deadline forces completion with
// whatever evidence was gathered by then.
func (s *Service) run(ctx context.Context, record *models.VerificationRecord, claimed company.Company) {
	defer s.runs.Done()

	start := time.Now()
	s.metrics.RunStarted()
	defer func() { s.metrics.RunFinished(time.Since(start)) }()

	ctx, span := s.tracer.Start(ctx, "verification.run",
		trace.WithAttributes(
			attribute.String("company.id", record.CompanyID.String()),
			attribute.String("record.id", record.ID.String()),
		),
	)
	defer span.End()

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	if err := record.CanBegin(); err != nil {
		s.logger.ErrorContext(ctx, "refusing to begin verification", "record_id", record.ID, "error", err)
		return
	}
	record.ApplyBegin(time.Now().UTC())
	if err := s.store.Update(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "failed to mark verification in progress", "record_id", record.ID, "error", err)
		return
	}
	s.publishStatusChange(ctx, record, models.StatusPending)

	results := s.gatherEvidence(runCtx, claimed)

	if runCtx.Err() != nil {
		s.metrics.IncrementDeadlineExceeded()
		s.logger.WarnContext(ctx, "verification run hit the hard deadline",
			"record_id", record.ID,
			"deadline", s.cfg.RunTimeout,
		)
	}

	s.finalize(ctx, record, claimed, results)
}

// gatherEvidence dispatches the adapters with bounded parallelism. One
// adapter failing never cancels its siblings; a source that could not be
// consulted is recorded as not evaluated. The wait for the group races the
// run deadline, so an adapter that ignores cancellation forfeits its result
// instead of stalling finalization.
func (s *Service) gatherEvidence(ctx context.Context, claimed company.Company) []models.SourceResult {
	results := make([]models.SourceResult, len(s.adapters))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrentAdapters)

	for i, a := range s.adapters {
		i, a := i, a
		if !a.Applicable(claimed) {
			results[i] = models.NotEvaluated(a.Category(), "required inputs not provided", time.Now().UTC())
			continue
		}

		// Stands until the adapter settles; adapters still outstanding at
		// the deadline keep this placeholder.
		results[i] = models.NotEvaluated(a.Category(), "source did not finish before the run deadline", time.Now().UTC())

		g.Go(func() error {
			adapterCtx, cancel := context.WithTimeout(ctx, s.cfg.AdapterTimeout)
			defer cancel()

			evalStart := time.Now()
			result, err := a.Evaluate(adapterCtx, claimed)
			s.metrics.ObserveAdapterLatency(string(a.Category()), time.Since(evalStart))

			if err != nil {
				s.logger.WarnContext(ctx, "source adapter failed",
					"source", a.Category(),
					"kind", adapters.KindOf(err),
					"error", err,
				)
				result = models.NotEvaluated(a.Category(),
					fmt.Sprintf("source unavailable: %v", err), time.Now().UTC())
			}
			mu.Lock()
			results[i] = result
			mu.Unlock()
			return nil
		})
	}

	settled := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(settled)
	}()

	select {
	case <-settled:
	case <-ctx.Done():
	}

	// Copy under the lock: a straggler may still write after the deadline.
	mu.Lock()
	defer mu.Unlock()
	snapshot := make([]models.SourceResult, len(results))
	copy(snapshot, results)
	return snapshot
}

// finalize scores the gathered evidence and moves the record to its
// terminal state.
func (s *Service) finalize(ctx context.Context, record *models.VerificationRecord, claimed company.Company, results []models.SourceResult) {
	now := time.Now().UTC()

	evidenceCount := 0
	for _, r := range results {
		if r.Evaluated {
			evidenceCount++
		}
	}

	if evidenceCount == 0 {
		if err := record.CanFail(); err != nil {
			s.logger.ErrorContext(ctx, "cannot fail verification", "record_id", record.ID, "error", err)
			return
		}
		record.ApplyFailure("no adapter produced any evidence", results, now)
		s.persistTerminal(ctx, record)
		return
	}

	discrepancies := s.detector.Detect(claimed, results)
	attachDiscrepancies(results, discrepancies)

	scores := s.scorer.Score(results, discrepancies)
	breakdown, category := s.calculator.Calculate(scores)

	if err := record.CanComplete(); err != nil {
		s.logger.ErrorContext(ctx, "cannot complete verification", "record_id", record.ID, "error", err)
		return
	}
	record.ApplyCompletion(models.Outcome{
		Sources:          results,
		Breakdown:        breakdown,
		RiskCategory:     category,
		ConsistencyScore: scores.Consistency,
	}, now)

	s.logger.InfoContext(ctx, "verification completed",
		"company_id", record.CompanyID,
		"record_id", record.ID,
		"risk_score", breakdown.Score,
		"risk_category", category,
		"evidence_count", evidenceCount,
		"discrepancies", len(discrepancies),
	)
	s.persistTerminal(ctx, record)
}

func (s *Service) persistTerminal(ctx context.Context, record *models.VerificationRecord) {
	if err := s.store.Update(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist terminal verification state",
			"record_id", record.ID,
			"status", record.Status,
			"error", err,
		)
		return
	}

	riskCategory := ""
	if record.RiskCategory != nil {
		riskCategory = string(*record.RiskCategory)
	}
	s.metrics.IncrementOutcome(string(record.Status), riskCategory)
	s.publishStatusChange(ctx, record, models.StatusInProgress)
}

// publishStatusChange emits the transition signal. Publishing is best
// effort: a broker outage must never fail or stall a verification.
func (s *Service) publishStatusChange(ctx context.Context, record *models.VerificationRecord, old models.Status) {
	err := s.publisher.PublishStatusChanged(ctx, events.StatusChanged{
		CompanyID:  record.CompanyID,
		RecordID:   record.ID,
		OldStatus:  old,
		NewStatus:  record.Status,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish status change",
			"record_id", record.ID,
			"new_status", record.Status,
			"error", err,
		)
	}
}

// attachDiscrepancies copies each discrepancy onto the source result that
// observed it, so stored evidence is self-describing.
func attachDiscrepancies(results []models.SourceResult, discrepancies []models.Discrepancy) {
	for i := range results {
		for _, disc := range discrepancies {
			if disc.Source == results[i].Category {
				results[i].Discrepancies = append(results[i].Discrepancies, disc)
			}
		}
	}
}
