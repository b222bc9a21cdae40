// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing, output formatting,
// but delegate business logic to services.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/example/clearance/internal/core/lifecycle"
	"github.com/example/clearance/internal/ports/primary"
)

const rule = "────────────────────────────────────────────────────────────────────────"

// ClearanceAdapter is a thin adapter that translates CLI operations to ClearanceService calls.
type ClearanceAdapter struct {
	service primary.ClearanceService
	out     io.Writer
}

// NewClearanceAdapter creates a new ClearanceAdapter with the given service.
func NewClearanceAdapter(service primary.ClearanceService, out io.Writer) *ClearanceAdapter {
	return &ClearanceAdapter{
		service: service,
		out:     out,
	}
}

// List lists clearance requests with optional filters.
func (a *ClearanceAdapter) List(ctx context.Context, filters primary.ClearanceRequestFilters) error {
	requests, err := a.service.ListRequests(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list clearance requests: %w", err)
	}

	if len(requests) == 0 {
		fmt.Fprintln(a.out, "No clearance requests found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-12s %-22s %-22s %s\n", "ID", "STATUS", "TYPE", "PERSONNEL")
	fmt.Fprintln(a.out, rule)
	for _, r := range requests {
		fmt.Fprintf(a.out, "%-12s %s %-22s %s\n", r.ID, colorStatus(fmt.Sprintf("%-22s", r.Status), r.Status), r.Type, r.PersonnelID)
	}
	fmt.Fprintln(a.out)

	return nil
}

// Show displays details for a single request.
func (a *ClearanceAdapter) Show(ctx context.Context, requestID string) error {
	r, err := a.service.GetRequest(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to get clearance request: %w", err)
	}

	fmt.Fprintf(a.out, "\nClearance request: %s\n", r.ID)
	fmt.Fprintf(a.out, "Personnel: %s\n", r.PersonnelID)
	fmt.Fprintf(a.out, "Type:      %s\n", r.Type)
	fmt.Fprintf(a.out, "Status:    %s\n", colorStatus(r.Status, r.Status))
	if r.RejectionReason != "" {
		fmt.Fprintf(a.out, "Rejected:  %s\n", r.RejectionReason)
	}
	if r.ApprovedBy != "" {
		fmt.Fprintf(a.out, "Approved:  by %s at %s\n", r.ApprovedBy, r.ApprovedAt)
	}
	fmt.Fprintf(a.out, "Created:   %s\n", r.CreatedAt)
	fmt.Fprintf(a.out, "Updated:   %s\n", r.UpdatedAt)
	fmt.Fprintln(a.out)

	return nil
}

// Label prints the request's inspection label with its line tallies.
func (a *ClearanceAdapter) Label(ctx context.Context, requestID string) error {
	in, err := a.service.ComputeInspectionLabel(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to compute inspection label: %w", err)
	}

	fmt.Fprintf(a.out, "Inspection: %s → %s\n", in.RequestID, colorLabel(in.Label))
	fmt.Fprintf(a.out, "Lines:      %d total, %d cleared, %d pending, %d damaged, %d lost",
		in.Total, in.Cleared, in.Pending, in.Damaged, in.Lost)
	if in.Unknown > 0 {
		fmt.Fprintf(a.out, ", %d unknown", in.Unknown)
	}
	fmt.Fprintln(a.out)
	if in.Overridden {
		fmt.Fprintln(a.out, "            overridden by settled accountability summary")
	}
	if in.MissingData {
		fmt.Fprintln(a.out, "            personnel record missing")
	}

	return nil
}

// Eligibility prints whether the request may be approved now.
func (a *ClearanceAdapter) Eligibility(ctx context.Context, requestID string) error {
	e, err := a.service.CheckEligibility(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to check eligibility: %w", err)
	}

	if e.CanApprove {
		fmt.Fprintf(a.out, "%s %s can be approved\n", color.New(color.FgGreen).Sprint("✓"), e.RequestID)
	} else {
		fmt.Fprintf(a.out, "%s %s cannot be approved (%s)\n", color.New(color.FgRed).Sprint("✗"), e.RequestID, e.ReasonCode)
		fmt.Fprintf(a.out, "  Reason:  %s\n", e.Reason)
	}
	fmt.Fprintf(a.out, "  Label:   %s\n", colorLabel(e.Label))
	fmt.Fprintf(a.out, "  Status:  stored %s, derived %s\n", e.StoredStatus, e.DerivedStatus)

	return nil
}

// Approve approves a request as the context actor.
func (a *ClearanceAdapter) Approve(ctx context.Context, requestID string) error {
	r, err := a.service.Approve(ctx, requestID)
	if err != nil {
		return refusal("approval", err)
	}

	fmt.Fprintf(a.out, "✓ Clearance request %s approved by %s\n", r.ID, r.ApprovedBy)
	return nil
}

// Reject rejects a request with a reason.
func (a *ClearanceAdapter) Reject(ctx context.Context, requestID, reason string) error {
	r, err := a.service.Reject(ctx, requestID, reason)
	if err != nil {
		return refusal("rejection", err)
	}

	fmt.Fprintf(a.out, "✓ Clearance request %s rejected: %s\n", r.ID, r.RejectionReason)
	return nil
}

// Decisions lists the approve/reject history of a request.
func (a *ClearanceAdapter) Decisions(ctx context.Context, requestID string) error {
	decisions, err := a.service.ListDecisions(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to list decisions: %w", err)
	}

	if len(decisions) == 0 {
		fmt.Fprintf(a.out, "No decisions recorded for %s\n", requestID)
		return nil
	}

	for _, d := range decisions {
		line := fmt.Sprintf("%s  %-9s by %s", d.CreatedAt, d.Outcome, d.ActorID)
		if d.Reason != "" {
			line += ": " + d.Reason
		}
		fmt.Fprintln(a.out, line)
	}
	return nil
}

// Helper functions

// refusal prefixes eligibility refusals with their reason code.
func refusal(action string, err error) error {
	var eligibility *lifecycle.EligibilityError
	if errors.As(err, &eligibility) {
		return fmt.Errorf("%s refused [%s]: %w", action, eligibility.Code, err)
	}
	return err
}

func colorStatus(text, status string) string {
	switch status {
	case "completed":
		return color.New(color.FgGreen).Sprint(text)
	case "rejected":
		return color.New(color.FgRed).Sprint(text)
	case "pending_for_approval":
		return color.New(color.FgCyan).Sprint(text)
	case "in_progress":
		return color.New(color.FgYellow).Sprint(text)
	}
	return text
}

func colorLabel(label string) string {
	switch label {
	case "pass", "pass_settled", "no_equipment":
		return color.New(color.FgGreen).Sprint(label)
	case "fail_unsettled_lost", "fail_accountability_pending", "fail_needs_accountability":
		return color.New(color.FgRed).Sprint(label)
	}
	return label
}
