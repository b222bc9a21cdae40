// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned by conditional writes when the stored status no
	// longer matches the expected one. Another actor moved the request first.
	ErrConflict = errors.New("status conflict")
)

// FactReader is the read side of the Fact Gateway. Every method sees the same
// store state when invoked through CommitDecision's transaction.
type FactReader interface {
	// GetRequest retrieves a clearance request by its ID.
	// Returns ErrNotFound if the request does not exist.
	GetRequest(ctx context.Context, id string) (*ClearanceRequestRecord, error)

	// ListLinesForRequest retrieves the clearance lines of a request.
	ListLinesForRequest(ctx context.Context, requestID string) ([]*ClearanceLineRecord, error)

	// ListAccountabilityRecords retrieves damaged/lost claims for a
	// (personnel, request) pair.
	ListAccountabilityRecords(ctx context.Context, personnelID, requestID string) ([]*AccountabilityRecord, error)

	// GetAccountabilitySummary retrieves the settlement summary for a
	// (personnel, request) pair. Returns nil, nil when no summary exists.
	GetAccountabilitySummary(ctx context.Context, personnelID, requestID string) (*AccountabilitySummaryRecord, error)

	// ListScheduledInspections retrieves inspection schedules for the given equipment.
	ListScheduledInspections(ctx context.Context, equipmentIDs []string) ([]*InspectionScheduleRecord, error)

	// CountAssignedEquipment returns how many items are assigned to the personnel.
	// Returns ErrNotFound if the personnel record does not exist.
	CountAssignedEquipment(ctx context.Context, personnelID string) (int, error)
}

// FactGateway defines the secondary port over the clearance store.
type FactGateway interface {
	FactReader

	// ListRequests retrieves clearance requests matching the given filters.
	ListRequests(ctx context.Context, filters ClearanceRequestFilters) ([]*ClearanceRequestRecord, error)

	// ListOpenRequests retrieves every request that is not completed or rejected.
	ListOpenRequests(ctx context.Context) ([]*ClearanceRequestRecord, error)

	// ListTerminalWithPendingLines retrieves completed or rejected requests
	// that still have pending clearance lines.
	ListTerminalWithPendingLines(ctx context.Context) ([]*ClearanceRequestRecord, error)

	// UpdateRequestStatus writes next only if the stored status still equals
	// expected. Returns ErrConflict otherwise.
	UpdateRequestStatus(ctx context.Context, id, expected, next string) error

	// CommitDecision runs confirm inside a write transaction and, if it
	// succeeds, applies the decision with a conditional update on
	// decision.FromStatus and records it. confirm may set FromStatus to the
	// status it read. Returns confirm's error unchanged, or ErrConflict if
	// the status moved.
	CommitDecision(ctx context.Context, decision *DecisionRecord, confirm func(ctx context.Context, r FactReader) error) error

	// ListDecisions retrieves the approve/reject history of a request.
	ListDecisions(ctx context.Context, requestID string) ([]*DecisionRecord, error)
}

// ClearanceRequestRecord represents a clearance request as stored in persistence.
type ClearanceRequestRecord struct {
	ID              string
	PersonnelID     string
	Type            string
	Status          string
	RejectionReason string // Empty string means null
	ApprovedBy      string // Empty string means null
	ApprovedAt      string // Empty string means null
	CreatedAt       string
	UpdatedAt       string
}

// ClearanceRequestFilters contains filter options for querying requests.
type ClearanceRequestFilters struct {
	Status      string
	PersonnelID string
	Limit       int
}

// ClearanceLineRecord represents one equipment line of a request.
type ClearanceLineRecord struct {
	RequestID   string
	EquipmentID string
	Status      string
}

// AccountabilityRecord represents a damaged/lost claim as stored in persistence.
type AccountabilityRecord struct {
	ID                string
	PersonnelID       string
	RequestID         string
	RecordType        string
	IsSettled         bool
	EquipmentReturned bool
	SettlementDate    string // Empty string means null
}

// AccountabilitySummaryRecord represents the settlement subsystem's aggregate.
type AccountabilitySummaryRecord struct {
	PersonnelID          string
	RequestID            string
	AccountabilityStatus string
}

// InspectionScheduleRecord represents a scheduled inspection.
type InspectionScheduleRecord struct {
	ID          string
	EquipmentID string
	Status      string
	ScheduledAt string
}

// DecisionRecord represents an approve/reject decision.
type DecisionRecord struct {
	ID         string
	RequestID  string
	Outcome    string // approved, rejected
	FromStatus string // stored status the decision was taken against
	ActorID    string // Empty string means null
	Reason     string // Empty string means null
	CreatedAt  string
}

// Decision outcome constants.
const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)
