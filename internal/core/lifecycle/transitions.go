// Package lifecycle contains the pure status-transition rules and approval
// guards for clearance requests.
// This is part of the Functional Core - no I/O, only pure functions.
package lifecycle

import (
	"github.com/example/clearance/internal/core/clearance"
	"github.com/example/clearance/internal/core/inspection"
)

// TransitionInput is everything the transition function looks at.
type TransitionInput struct {
	Current clearance.Status
	Label   inspection.Label
	Facts   clearance.Facts
}

// TransitionResult is the next status together with the rule that produced it.
type TransitionResult struct {
	Next clearance.Status
	Rule string
	// Vetoed is set when an unsettled lost-equipment record forced the
	// result back to in-progress.
	Vetoed bool
}

// Changed reports whether the transition moves the request.
func (r TransitionResult) Changed(current clearance.Status) bool {
	return r.Next != current
}

type transitionRule struct {
	name    string
	applies func(in TransitionInput) bool
	next    func(in TransitionInput) clearance.Status
}

func equipment(in TransitionInput) bool {
	return in.Facts.Request.Type.IsEquipmentRelated()
}

func to(s clearance.Status) func(TransitionInput) clearance.Status {
	return func(TransitionInput) clearance.Status { return s }
}

func unchanged(in TransitionInput) clearance.Status {
	return in.Current
}

// transitionRules are evaluated in order; the first applicable rule wins.
// Terminal statuses are handled before the table and never reach it.
var transitionRules = []transitionRule{
	{
		name: "equipment-missing-data",
		applies: func(in TransitionInput) bool {
			return equipment(in) && !in.Facts.PersonnelFound
		},
		next: to(clearance.StatusInProgress),
	},
	{
		name: "equipment-inspection-passed",
		applies: func(in TransitionInput) bool {
			return equipment(in) && in.Label.IsPassing()
		},
		next: to(clearance.StatusPendingForApproval),
	},
	{
		name: "equipment-lines-resolved",
		applies: func(in TransitionInput) bool {
			if !equipment(in) {
				return false
			}
			c := in.Facts.Counts()
			if c.Total == 0 || c.Pending > 0 || c.Unknown > 0 {
				return false
			}
			return c.DamagedOrLost() == 0 || in.Facts.AccountabilitySettled()
		},
		next: to(clearance.StatusPendingForApproval),
	},
	{
		name: "equipment-damaged-or-lost",
		applies: func(in TransitionInput) bool {
			return equipment(in) && in.Facts.Counts().DamagedOrLost() > 0
		},
		next: func(in TransitionInput) clearance.Status {
			if in.Facts.SummarySettled() {
				return clearance.StatusPendingForApproval
			}
			return clearance.StatusInProgress
		},
	},
	{
		name: "equipment-lines-pending",
		applies: func(in TransitionInput) bool {
			return equipment(in) && in.Facts.Counts().Pending > 0
		},
		next: to(clearance.StatusInProgress),
	},
	{
		name: "equipment-no-lines",
		applies: func(in TransitionInput) bool {
			return equipment(in) && len(in.Facts.Lines) == 0
		},
		next: to(clearance.StatusPending),
	},
	{
		name:    "equipment-residual",
		applies: equipment,
		next:    to(clearance.StatusInProgress),
	},
	{
		name: "non-equipment-submitted",
		applies: func(in TransitionInput) bool {
			return in.Current == clearance.StatusPending
		},
		next: to(clearance.StatusPendingForApproval),
	},
	{
		name:    "non-equipment-unchanged",
		applies: func(TransitionInput) bool { return true },
		next:    unchanged,
	},
}

// Transition computes the next status of a request.
// Rules:
// - Completed and Rejected are sticky
// - The first applicable rule of the transition table decides
// - An unsettled lost-equipment record always forces in-progress
func Transition(in TransitionInput) TransitionResult {
	if in.Current.IsTerminal() {
		return TransitionResult{Next: in.Current, Rule: "terminal"}
	}

	result := TransitionResult{Next: in.Current, Rule: "none"}
	for _, r := range transitionRules {
		if r.applies(in) {
			result = TransitionResult{Next: r.next(in), Rule: r.name}
			break
		}
	}

	if in.Facts.HasUnsettledLost() && result.Next != clearance.StatusInProgress {
		result.Next = clearance.StatusInProgress
		result.Rule = "unsettled-lost-veto"
		result.Vetoed = true
	}

	return result
}

// NextStatus classifies the facts and returns the status the request should
// move to. The stored status in facts is taken as the current status.
func NextStatus(f clearance.Facts) clearance.Status {
	return Transition(TransitionInput{
		Current: f.Request.Status,
		Label:   inspection.Classify(f),
		Facts:   f,
	}).Next
}
