package lifecycle

import (
	"fmt"

	"github.com/example/clearance/internal/core/clearance"
	"github.com/example/clearance/internal/core/inspection"
)

// ReasonCode identifies why a guard refused an action. Codes are stable and
// are returned verbatim to API callers.
type ReasonCode string

const (
	ReasonAlreadyTerminal        ReasonCode = "already_terminal"
	ReasonNotPendingApproval     ReasonCode = "not_pending_approval"
	ReasonUnsettledLostEquipment ReasonCode = "unsettled_lost_equipment"
	ReasonInspectionNotPassed    ReasonCode = "inspection_not_passed"
	ReasonMissingRejectionReason ReasonCode = "missing_rejection_reason"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Code    ReasonCode
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return &EligibilityError{Code: r.Code, Reason: r.Reason}
}

// EligibilityError is returned when an approval or rejection is refused.
type EligibilityError struct {
	Code   ReasonCode
	Reason string
}

func (e *EligibilityError) Error() string {
	return e.Reason
}

func deny(code ReasonCode, format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, Code: code, Reason: fmt.Sprintf(format, args...)}
}

// CanApprove evaluates whether a request may be approved.
// Rules:
// - Completed and Rejected requests can never be approved
// - Equipment requests with an unsettled lost-equipment record are blocked
// - Equipment requests need a passing inspection label
// - The status derived from the facts must be pending or pending-for-approval
//
// The stored status is only trusted for the terminal check; everything else
// is recomputed from the facts.
func CanApprove(f clearance.Facts) GuardResult {
	req := f.Request

	if req.Status.IsTerminal() {
		return deny(ReasonAlreadyTerminal, "clearance request %s is already %s", req.ID, req.Status)
	}

	if req.Type.IsEquipmentRelated() {
		if f.HasUnsettledLost() {
			return deny(ReasonUnsettledLostEquipment,
				"clearance request %s has unsettled lost equipment", req.ID)
		}

		label := inspection.Classify(f)
		if !label.IsPassing() {
			return deny(ReasonInspectionNotPassed,
				"equipment inspection for clearance request %s has not passed (inspection: %s)", req.ID, label)
		}
	}

	derived := NextStatus(f)
	if derived != clearance.StatusPending && derived != clearance.StatusPendingForApproval {
		return deny(ReasonNotPendingApproval,
			"clearance request %s is not awaiting approval (status: %s)", req.ID, derived)
	}

	return GuardResult{Allowed: true}
}

// CanReject evaluates whether a request may be rejected.
// Rules:
// - Completed and Rejected requests can never be rejected
// - A rejection reason is required
func CanReject(f clearance.Facts, reason string) GuardResult {
	req := f.Request

	if req.Status.IsTerminal() {
		return deny(ReasonAlreadyTerminal, "clearance request %s is already %s", req.ID, req.Status)
	}

	if reason == "" {
		return deny(ReasonMissingRejectionReason, "a reason is required to reject clearance request %s", req.ID)
	}

	return GuardResult{Allowed: true}
}
