package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/example/clearance/internal/core/clearance"
	"github.com/example/clearance/internal/core/inspection"
	"github.com/example/clearance/internal/core/lifecycle"
	"github.com/example/clearance/internal/ctxutil"
	"github.com/example/clearance/internal/ports/primary"
	"github.com/example/clearance/internal/ports/secondary"
	"github.com/example/clearance/pkg/logger"
)

// ClearanceServiceImpl implements the ClearanceService interface.
type ClearanceServiceImpl struct {
	gateway   secondary.FactGateway
	logWriter secondary.LogWriter
	locks     *KeyLock
	log       *logger.Logger
}

// NewClearanceService creates a new ClearanceService with injected dependencies.
// locks must be shared with the reconciliation service so that decisions and
// reconciliation of one request never interleave in this process.
func NewClearanceService(gateway secondary.FactGateway, logWriter secondary.LogWriter, locks *KeyLock, log *logger.Logger) *ClearanceServiceImpl {
	if locks == nil {
		locks = NewKeyLock()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &ClearanceServiceImpl{
		gateway:   gateway,
		logWriter: logWriter,
		locks:     locks,
		log:       log.Named("clearance"),
	}
}

// GetRequest retrieves a clearance request by ID.
func (s *ClearanceServiceImpl) GetRequest(ctx context.Context, requestID string) (*primary.ClearanceRequest, error) {
	record, err := s.gateway.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return s.recordToRequest(record), nil
}

// ListRequests lists clearance requests with optional filters.
func (s *ClearanceServiceImpl) ListRequests(ctx context.Context, filters primary.ClearanceRequestFilters) ([]*primary.ClearanceRequest, error) {
	status := ""
	if filters.Status != "" {
		parsed, err := clearance.ParseStatus(filters.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", primary.ErrInvalidArgument, err)
		}
		status = string(parsed)
	}

	records, err := s.gateway.ListRequests(ctx, secondary.ClearanceRequestFilters{
		Status:      status,
		PersonnelID: filters.PersonnelID,
		Limit:       filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list clearance requests: %w", err)
	}

	requests := make([]*primary.ClearanceRequest, len(records))
	for i, r := range records {
		requests[i] = s.recordToRequest(r)
	}
	return requests, nil
}

// ComputeInspectionLabel classifies the request's equipment inspection.
func (s *ClearanceServiceImpl) ComputeInspectionLabel(ctx context.Context, requestID string) (*primary.Inspection, error) {
	snap, err := gatherFacts(ctx, s.gateway, requestID)
	if err != nil {
		return nil, err
	}

	result := inspection.ClassifyDetailed(snap.Facts)
	return &primary.Inspection{
		RequestID:   requestID,
		Label:       string(result.Label),
		Total:       result.Counts.Total,
		Cleared:     result.Counts.Cleared,
		Pending:     result.Counts.Pending,
		Damaged:     result.Counts.Damaged,
		Lost:        result.Counts.Lost,
		Unknown:     result.Counts.Unknown,
		Overridden:  result.Overridden,
		MissingData: result.MissingData,
	}, nil
}

// CheckEligibility evaluates whether the request may be approved right now.
func (s *ClearanceServiceImpl) CheckEligibility(ctx context.Context, requestID string) (*primary.Eligibility, error) {
	snap, err := gatherFacts(ctx, s.gateway, requestID)
	if err != nil {
		return nil, err
	}

	guard := lifecycle.CanApprove(snap.Facts)
	return &primary.Eligibility{
		RequestID:     requestID,
		CanApprove:    guard.Allowed,
		ReasonCode:    string(guard.Code),
		Reason:        guard.Reason,
		Label:         string(inspection.Classify(snap.Facts)),
		StoredStatus:  snap.StoredStatus,
		DerivedStatus: string(lifecycle.NextStatus(snap.Facts)),
	}, nil
}

// Approve approves a request. Eligibility is evaluated once against a fresh
// read and again inside the write transaction, so a settlement or status
// change that lands in between is never approved over.
func (s *ClearanceServiceImpl) Approve(ctx context.Context, requestID string) (*primary.ClearanceRequest, error) {
	actor := ctxutil.ActorFromContext(ctx)
	if actor == "" {
		return nil, fmt.Errorf("%w: an actor is required to approve clearance request %s", primary.ErrInvalidArgument, requestID)
	}

	unlock := s.locks.Lock(requestID)
	defer unlock()

	snap, err := gatherFacts(ctx, s.gateway, requestID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CanApprove(snap.Facts).Error(); err != nil {
		s.logRefusal("approve", requestID, actor, err)
		return nil, err
	}

	decision := &secondary.DecisionRecord{
		ID:         uuid.Must(uuid.NewV7()).String(),
		RequestID:  requestID,
		Outcome:    secondary.DecisionApproved,
		FromStatus: snap.StoredStatus,
		ActorID:    actor,
	}
	err = s.gateway.CommitDecision(ctx, decision, func(ctx context.Context, r secondary.FactReader) error {
		fresh, err := gatherFacts(ctx, r, requestID)
		if err != nil {
			return err
		}
		decision.FromStatus = fresh.StoredStatus
		return lifecycle.CanApprove(fresh.Facts).Error()
	})
	if err != nil {
		s.logRefusal("approve", requestID, actor, err)
		return nil, err
	}

	s.recordDecision(ctx, decision, string(clearance.StatusCompleted))
	return s.GetRequest(ctx, requestID)
}

// Reject rejects a request with a mandatory reason.
func (s *ClearanceServiceImpl) Reject(ctx context.Context, requestID, reason string) (*primary.ClearanceRequest, error) {
	actor := ctxutil.ActorFromContext(ctx)
	if actor == "" {
		return nil, fmt.Errorf("%w: an actor is required to reject clearance request %s", primary.ErrInvalidArgument, requestID)
	}
	reason = strings.TrimSpace(reason)

	unlock := s.locks.Lock(requestID)
	defer unlock()

	snap, err := gatherFacts(ctx, s.gateway, requestID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CanReject(snap.Facts, reason).Error(); err != nil {
		s.logRefusal("reject", requestID, actor, err)
		return nil, err
	}

	decision := &secondary.DecisionRecord{
		ID:         uuid.Must(uuid.NewV7()).String(),
		RequestID:  requestID,
		Outcome:    secondary.DecisionRejected,
		FromStatus: snap.StoredStatus,
		ActorID:    actor,
		Reason:     reason,
	}
	err = s.gateway.CommitDecision(ctx, decision, func(ctx context.Context, r secondary.FactReader) error {
		fresh, err := gatherFacts(ctx, r, requestID)
		if err != nil {
			return err
		}
		decision.FromStatus = fresh.StoredStatus
		return lifecycle.CanReject(fresh.Facts, reason).Error()
	})
	if err != nil {
		s.logRefusal("reject", requestID, actor, err)
		return nil, err
	}

	s.recordDecision(ctx, decision, string(clearance.StatusRejected))
	return s.GetRequest(ctx, requestID)
}

// ListDecisions lists the approve/reject history of a request.
func (s *ClearanceServiceImpl) ListDecisions(ctx context.Context, requestID string) ([]*primary.Decision, error) {
	if _, err := s.gateway.GetRequest(ctx, requestID); err != nil {
		return nil, err
	}

	records, err := s.gateway.ListDecisions(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}

	decisions := make([]*primary.Decision, len(records))
	for i, r := range records {
		decisions[i] = &primary.Decision{
			ID:        r.ID,
			RequestID: r.RequestID,
			Outcome:   r.Outcome,
			ActorID:   r.ActorID,
			Reason:    r.Reason,
			CreatedAt: r.CreatedAt,
		}
	}
	return decisions, nil
}

// Helper methods

func (s *ClearanceServiceImpl) recordDecision(ctx context.Context, d *secondary.DecisionRecord, next string) {
	s.log.Info("clearance request decided",
		logger.String("request_id", d.RequestID),
		logger.String("outcome", d.Outcome),
		logger.String("from", d.FromStatus),
		logger.String("actor", d.ActorID),
	)

	if s.logWriter == nil {
		return
	}
	if err := s.logWriter.LogUpdate(ctx, requestEntity, d.RequestID, statusField, d.FromStatus, next); err != nil {
		s.log.Warn("failed to write audit log",
			logger.String("request_id", d.RequestID),
			logger.Error(err),
		)
	}
}

func (s *ClearanceServiceImpl) logRefusal(action, requestID, actor string, err error) {
	var eligibility *lifecycle.EligibilityError
	if errors.As(err, &eligibility) {
		s.log.Info(action+" refused",
			logger.String("request_id", requestID),
			logger.String("actor", actor),
			logger.String("reason_code", string(eligibility.Code)),
		)
		return
	}
	s.log.Warn(action+" failed",
		logger.String("request_id", requestID),
		logger.String("actor", actor),
		logger.Error(err),
	)
}

func (s *ClearanceServiceImpl) recordToRequest(r *secondary.ClearanceRequestRecord) *primary.ClearanceRequest {
	return &primary.ClearanceRequest{
		ID:              r.ID,
		PersonnelID:     r.PersonnelID,
		Type:            r.Type,
		Status:          displayStatus(r.Status),
		RejectionReason: r.RejectionReason,
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// displayStatus returns the canonical spelling of a stored status, or the raw
// value when it cannot be parsed.
func displayStatus(raw string) string {
	if s, err := clearance.ParseStatus(raw); err == nil {
		return string(s)
	}
	return raw
}

// Ensure ClearanceServiceImpl implements the interface
var _ primary.ClearanceService = (*ClearanceServiceImpl)(nil)
