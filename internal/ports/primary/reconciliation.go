package primary

import (
	"context"
	"time"
)

// ReconciliationService defines the primary port for the reconciliation driver.
type ReconciliationService interface {
	// RunPass reconciles every non-terminal request once.
	// Per-request failures are reported, not returned.
	RunPass(ctx context.Context) (*PassReport, error)

	// ReconcileRequest reconciles a single request.
	ReconcileRequest(ctx context.Context, requestID string) (*ReconcileOutcome, error)

	// Run executes passes on the configured interval and whenever Trigger is
	// called, until ctx is cancelled.
	Run(ctx context.Context) error

	// Trigger asks for a pass soon. Triggers within the debounce window are
	// coalesced into one pass.
	Trigger()
}

// ReconcileOutcome describes what reconciliation did to one request.
type ReconcileOutcome struct {
	RequestID string
	From      string
	To        string
	Label     string
	Rule      string
	Written   bool
	Conflict  bool
}

// PassReport summarises one reconciliation pass.
type PassReport struct {
	PassID     string
	StartedAt  time.Time
	FinishedAt time.Time
	Examined   int
	Updated    int
	Unchanged  int
	Conflicts  int
	Failed     int
	Violations int
	Cancelled  bool
	Changes    []*ReconcileOutcome
}
