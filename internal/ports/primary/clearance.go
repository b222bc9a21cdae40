// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces the CLI and HTTP layers call into.
package primary

import "context"

// ClearanceService defines the primary port for clearance request operations.
// Every eligibility answer is recomputed from freshly fetched facts.
type ClearanceService interface {
	// GetRequest retrieves a clearance request by ID.
	GetRequest(ctx context.Context, requestID string) (*ClearanceRequest, error)

	// ListRequests lists clearance requests with optional filters.
	ListRequests(ctx context.Context, filters ClearanceRequestFilters) ([]*ClearanceRequest, error)

	// ComputeInspectionLabel classifies the request's equipment inspection.
	ComputeInspectionLabel(ctx context.Context, requestID string) (*Inspection, error)

	// CheckEligibility evaluates whether the request may be approved right now.
	CheckEligibility(ctx context.Context, requestID string) (*Eligibility, error)

	// Approve approves the request after re-checking eligibility inside the
	// write transaction. The approver is taken from the context actor.
	// Returns *lifecycle.EligibilityError when the re-check refuses.
	Approve(ctx context.Context, requestID string) (*ClearanceRequest, error)

	// Reject rejects the request with the given reason.
	Reject(ctx context.Context, requestID, reason string) (*ClearanceRequest, error)

	// ListDecisions lists the approve/reject history of a request.
	ListDecisions(ctx context.Context, requestID string) ([]*Decision, error)
}

// ClearanceRequest represents a clearance request at the port boundary.
type ClearanceRequest struct {
	ID              string
	PersonnelID     string
	Type            string
	Status          string
	RejectionReason string
	ApprovedBy      string
	ApprovedAt      string
	CreatedAt       string
	UpdatedAt       string
}

// ClearanceRequestFilters contains filter options for listing requests.
type ClearanceRequestFilters struct {
	Status      string
	PersonnelID string
	Limit       int
}

// Inspection is a request's inspection classification with its line tallies.
type Inspection struct {
	RequestID   string
	Label       string
	Total       int
	Cleared     int
	Pending     int
	Damaged     int
	Lost        int
	Unknown     int
	Overridden  bool
	MissingData bool
}

// Eligibility is the answer of the approval gate for one request.
type Eligibility struct {
	RequestID     string
	CanApprove    bool
	ReasonCode    string // Empty when CanApprove is true
	Reason        string
	Label         string
	StoredStatus  string
	DerivedStatus string
}

// Decision represents an approve/reject decision at the port boundary.
type Decision struct {
	ID        string
	RequestID string
	Outcome   string
	ActorID   string
	Reason    string
	CreatedAt string
}
