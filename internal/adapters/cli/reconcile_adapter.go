package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/example/clearance/internal/ports/primary"
)

// ReconcileAdapter is a thin adapter that translates CLI operations to ReconciliationService calls.
type ReconcileAdapter struct {
	service primary.ReconciliationService
	out     io.Writer
}

// NewReconcileAdapter creates a new ReconcileAdapter with the given service.
func NewReconcileAdapter(service primary.ReconciliationService, out io.Writer) *ReconcileAdapter {
	return &ReconcileAdapter{
		service: service,
		out:     out,
	}
}

// RunPass runs one full pass and prints its report.
func (a *ReconcileAdapter) RunPass(ctx context.Context) error {
	report, err := a.service.RunPass(ctx)
	if err != nil {
		return fmt.Errorf("reconciliation pass failed: %w", err)
	}

	fmt.Fprintf(a.out, "Pass %s\n", report.PassID)
	for _, c := range report.Changes {
		fmt.Fprintf(a.out, "  %-12s %s → %s  (%s)\n", c.RequestID, c.From, colorStatus(c.To, c.To), c.Rule)
	}
	fmt.Fprintf(a.out, "Examined %d · updated %d · unchanged %d · conflicts %d · failed %d\n",
		report.Examined, report.Updated, report.Unchanged, report.Conflicts, report.Failed)

	warn := color.New(color.FgYellow).Sprint("!")
	if report.Violations > 0 {
		fmt.Fprintf(a.out, "%s %d decided request(s) still have pending lines\n", warn, report.Violations)
	}
	if report.Cancelled {
		fmt.Fprintf(a.out, "%s pass cancelled before all requests were examined\n", warn)
	}
	return nil
}

// Reconcile reconciles one request and prints the outcome.
func (a *ReconcileAdapter) Reconcile(ctx context.Context, requestID string) error {
	out, err := a.service.ReconcileRequest(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to reconcile %s: %w", requestID, err)
	}

	switch {
	case out.Written:
		fmt.Fprintf(a.out, "✓ %s: %s → %s (%s, label %s)\n", out.RequestID, out.From, colorStatus(out.To, out.To), out.Rule, out.Label)
	case out.Conflict:
		fmt.Fprintf(a.out, "%s %s: status changed concurrently, left for the next pass\n", color.New(color.FgYellow).Sprint("!"), out.RequestID)
	default:
		fmt.Fprintf(a.out, "%s: unchanged at %s (%s, label %s)\n", out.RequestID, out.From, out.Rule, out.Label)
	}
	return nil
}
