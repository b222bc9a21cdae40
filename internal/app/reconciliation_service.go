package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/clearance/internal/core/clearance"
	"github.com/example/clearance/internal/core/inspection"
	"github.com/example/clearance/internal/core/lifecycle"
	"github.com/example/clearance/internal/ports/primary"
	"github.com/example/clearance/internal/ports/secondary"
	"github.com/example/clearance/pkg/logger"
)

// ReconcileOptions tunes the reconciliation driver. Zero values fall back to
// the defaults below.
type ReconcileOptions struct {
	Interval      time.Duration
	Debounce      time.Duration
	Workers       int
	FetchAttempts int
	FetchBackoff  time.Duration
}

func (o ReconcileOptions) withDefaults() ReconcileOptions {
	if o.Interval <= 0 {
		o.Interval = time.Minute
	}
	if o.Debounce < 0 {
		o.Debounce = 0
	}
	if o.Workers < 1 {
		o.Workers = 4
	}
	if o.FetchAttempts < 1 {
		o.FetchAttempts = 3
	}
	if o.FetchBackoff <= 0 {
		o.FetchBackoff = 200 * time.Millisecond
	}
	return o
}

// ReconciliationServiceImpl implements the ReconciliationService interface.
type ReconciliationServiceImpl struct {
	gateway   secondary.FactGateway
	logWriter secondary.LogWriter
	locks     *KeyLock
	log       *logger.Logger
	opts      ReconcileOptions
	trigger   chan struct{}
}

// NewReconciliationService creates a new ReconciliationService with injected dependencies.
func NewReconciliationService(gateway secondary.FactGateway, logWriter secondary.LogWriter, locks *KeyLock, log *logger.Logger, opts ReconcileOptions) *ReconciliationServiceImpl {
	if locks == nil {
		locks = NewKeyLock()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &ReconciliationServiceImpl{
		gateway:   gateway,
		logWriter: logWriter,
		locks:     locks,
		log:       log.Named("reconcile"),
		opts:      opts.withDefaults(),
		trigger:   make(chan struct{}, 1),
	}
}

// RunPass reconciles every non-terminal request once.
func (s *ReconciliationServiceImpl) RunPass(ctx context.Context) (*primary.PassReport, error) {
	report := &primary.PassReport{
		PassID:    uuid.Must(uuid.NewV7()).String(),
		StartedAt: time.Now(),
	}
	log := s.log.With(logger.String("pass_id", report.PassID))

	requests, err := s.gateway.ListOpenRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open requests: %w", err)
	}
	report.Violations = s.reportTerminalViolations(ctx, log)
	requests, unrecognized := partitionByStatus(requests)
	for _, r := range unrecognized {
		log.Warn("request has an unrecognized status, not reconciled",
			logger.String("request_id", r.ID),
			logger.String("status", r.Status),
		)
	}
	report.Violations += len(unrecognized)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	jobs := make(chan string)

	workers := min(s.opts.Workers, len(requests))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if ctx.Err() != nil {
					continue
				}
				out, err := s.reconcile(ctx, id, log)

				mu.Lock()
				tally(ctx, report, out, err)
				mu.Unlock()

				if err != nil && ctx.Err() == nil {
					log.Warn("skipping request",
						logger.String("request_id", id),
						logger.Error(err),
					)
				}
			}
		}()
	}

feed:
	for _, r := range requests {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- r.ID:
		}
	}
	close(jobs)
	wg.Wait()

	report.Cancelled = ctx.Err() != nil
	report.FinishedAt = time.Now()

	log.Info("reconciliation pass finished",
		logger.Int("examined", report.Examined),
		logger.Int("updated", report.Updated),
		logger.Int("unchanged", report.Unchanged),
		logger.Int("conflicts", report.Conflicts),
		logger.Int("failed", report.Failed),
		logger.Int("violations", report.Violations),
		logger.Bool("cancelled", report.Cancelled),
		logger.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

// partitionByStatus separates requests whose stored status cannot be parsed.
// Those are reported once per pass rather than failing on every fetch.
func partitionByStatus(requests []*secondary.ClearanceRequestRecord) (known, unrecognized []*secondary.ClearanceRequestRecord) {
	for _, r := range requests {
		if _, err := clearance.ParseStatus(r.Status); err != nil {
			unrecognized = append(unrecognized, r)
			continue
		}
		known = append(known, r)
	}
	return known, unrecognized
}

func tally(ctx context.Context, report *primary.PassReport, out *primary.ReconcileOutcome, err error) {
	if err != nil {
		// requests interrupted by cancellation are retried next pass
		if ctx.Err() == nil {
			report.Examined++
			report.Failed++
		}
		return
	}

	report.Examined++
	switch {
	case out.Written:
		report.Updated++
		report.Changes = append(report.Changes, out)
	case out.Conflict:
		report.Conflicts++
	default:
		report.Unchanged++
	}
}

// ReconcileRequest reconciles a single request.
func (s *ReconciliationServiceImpl) ReconcileRequest(ctx context.Context, requestID string) (*primary.ReconcileOutcome, error) {
	return s.reconcile(ctx, requestID, s.log)
}

// reconcile recomputes one request's status from a single snapshot and
// writes it if it moved. A conflicting write is retried once against fresh
// facts, then left for the next pass.
func (s *ReconciliationServiceImpl) reconcile(ctx context.Context, requestID string, log *logger.Logger) (*primary.ReconcileOutcome, error) {
	unlock := s.locks.Lock(requestID)
	defer unlock()

	for attempt := 1; ; attempt++ {
		snap, err := s.fetch(ctx, requestID, log)
		if err != nil {
			return nil, err
		}

		current := snap.Facts.Request.Status
		label := inspection.Classify(snap.Facts)
		result := lifecycle.Transition(lifecycle.TransitionInput{
			Current: current,
			Label:   label,
			Facts:   snap.Facts,
		})

		out := &primary.ReconcileOutcome{
			RequestID: requestID,
			From:      string(current),
			To:        string(result.Next),
			Label:     string(label),
			Rule:      result.Rule,
		}
		if !result.Changed(current) {
			return out, nil
		}

		err = s.gateway.UpdateRequestStatus(ctx, requestID, snap.StoredStatus, string(result.Next))
		if errors.Is(err, secondary.ErrConflict) {
			if attempt < 2 {
				log.Debug("status moved underneath, retrying", logger.String("request_id", requestID))
				continue
			}
			log.Info("status conflict, leaving for next pass", logger.String("request_id", requestID))
			out.Conflict = true
			return out, nil
		}
		if err != nil {
			return nil, err
		}

		out.Written = true
		log.Info("status reconciled",
			logger.String("request_id", requestID),
			logger.String("from", out.From),
			logger.String("to", out.To),
			logger.String("label", out.Label),
			logger.String("rule", out.Rule),
		)
		if s.logWriter != nil {
			if err := s.logWriter.LogUpdate(ctx, requestEntity, requestID, statusField, snap.StoredStatus, out.To); err != nil {
				log.Warn("failed to write audit log", logger.String("request_id", requestID), logger.Error(err))
			}
		}
		return out, nil
	}
}

// fetch gathers facts, retrying transient failures with exponential backoff.
func (s *ReconciliationServiceImpl) fetch(ctx context.Context, requestID string, log *logger.Logger) (*snapshot, error) {
	delay := s.opts.FetchBackoff
	for attempt := 1; ; attempt++ {
		snap, err := gatherFacts(ctx, s.gateway, requestID)
		if err == nil {
			return snap, nil
		}
		if !retryable(err) || attempt >= s.opts.FetchAttempts {
			return nil, err
		}

		log.Debug("fact fetch failed, retrying",
			logger.String("request_id", requestID),
			logger.Int("attempt", attempt),
			logger.Duration("backoff", delay),
			logger.Error(err),
		)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, secondary.ErrNotFound), errors.Is(err, clearance.ErrUnknownValue):
		return false
	}
	return true
}

// reportTerminalViolations warns about decided requests that still have
// pending lines. They are never rewritten.
func (s *ReconciliationServiceImpl) reportTerminalViolations(ctx context.Context, log *logger.Logger) int {
	requests, err := s.gateway.ListTerminalWithPendingLines(ctx)
	if err != nil {
		log.Warn("failed to check terminal requests", logger.Error(err))
		return 0
	}
	for _, r := range requests {
		log.Warn("terminal request has pending clearance lines",
			logger.String("request_id", r.ID),
			logger.String("status", r.Status),
		)
	}
	return len(requests)
}

// Run executes a pass immediately, then on every interval tick and after
// each burst of triggers settles for the debounce window.
func (s *ReconciliationServiceImpl) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.runLogged(ctx)

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.runLogged(ctx)
		case <-s.trigger:
			if debounce == nil {
				debounce = time.After(s.opts.Debounce)
			}
		case <-debounce:
			debounce = nil
			s.runLogged(ctx)
		}
	}
}

func (s *ReconciliationServiceImpl) runLogged(ctx context.Context) {
	if _, err := s.RunPass(ctx); err != nil && ctx.Err() == nil {
		s.log.Error("reconciliation pass failed", logger.Error(err))
	}
}

// Trigger asks for a pass soon. It never blocks, so it is safe to call from
// the store's change hook.
func (s *ReconciliationServiceImpl) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Ensure ReconciliationServiceImpl implements the interface
var _ primary.ReconciliationService = (*ReconciliationServiceImpl)(nil)
