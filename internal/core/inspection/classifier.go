// Package inspection classifies the equipment-inspection progress of a
// clearance request. Classification is a pure function of a facts snapshot.
package inspection

import "github.com/example/clearance/internal/core/clearance"

// Label is the display-facing inspection classification of a request.
type Label string

const (
	LabelNotApplicable             Label = "not_applicable"
	LabelNoEquipment               Label = "no_equipment"
	LabelNotYetAdded               Label = "not_yet_added"
	LabelPending                   Label = "pending"
	LabelInProgress                Label = "in_progress"
	LabelPass                      Label = "pass"
	LabelPassSettled               Label = "pass_settled"
	LabelFailUnsettledLost         Label = "fail_unsettled_lost"
	LabelFailAccountabilityPending Label = "fail_accountability_pending"
	LabelFailNeedsAccountability   Label = "fail_needs_accountability"
)

// IsFail reports whether the label is one of the failing classifications.
func (l Label) IsFail() bool {
	switch l {
	case LabelFailUnsettledLost, LabelFailAccountabilityPending, LabelFailNeedsAccountability:
		return true
	case LabelNotApplicable, LabelNoEquipment, LabelNotYetAdded, LabelPending,
		LabelInProgress, LabelPass, LabelPassSettled:
		return false
	}
	return false
}

// IsPassing reports whether the label clears the request for approval.
func (l Label) IsPassing() bool {
	switch l {
	case LabelPass, LabelPassSettled, LabelNoEquipment:
		return true
	}
	return false
}

// Result is the outcome of a classification with the inputs that drove it.
type Result struct {
	Label  Label
	Counts clearance.LineCounts
	// Overridden is set when a settled accountability summary replaced a
	// failing label with LabelPassSettled.
	Overridden bool
	// MissingData is set when the personnel record could not be found.
	MissingData bool
}

// Classify returns the inspection label for the facts snapshot.
func Classify(f clearance.Facts) Label {
	return ClassifyDetailed(f).Label
}

// ClassifyDetailed classifies the facts snapshot.
// Priority order (first match wins):
//  1. non-equipment request types are not applicable
//  2. personnel with no assigned equipment
//  3. no clearance lines yet
//  4. unsettled lost-equipment record
//  5. damaged or lost lines, by accountability state
//  6. every line cleared
//  7. pending lines, by inspection schedule
//  8. residual mixed state
//
// A failing label is replaced with LabelPassSettled when the accountability
// summary reports the pair settled.
func ClassifyDetailed(f clearance.Facts) Result {
	counts := f.Counts()
	result := Result{Counts: counts}

	if !f.Request.Type.IsEquipmentRelated() {
		result.Label = LabelNotApplicable
		return result
	}

	// Without a personnel record nothing can be trusted; stay in a failing
	// state and skip the summary override.
	if !f.PersonnelFound {
		result.Label = LabelFailNeedsAccountability
		result.MissingData = true
		return result
	}

	result.Label = classify(f, counts)

	if result.Label.IsFail() && f.SummarySettled() {
		result.Label = LabelPassSettled
		result.Overridden = true
	}

	return result
}

func classify(f clearance.Facts, counts clearance.LineCounts) Label {
	if f.AssignedEquipment == 0 {
		return LabelNoEquipment
	}

	if counts.Total == 0 {
		return LabelNotYetAdded
	}

	// Checked before the damaged/lost branch: an open lost claim outranks
	// any other accountability state.
	if f.HasUnsettledLost() {
		return LabelFailUnsettledLost
	}

	if counts.DamagedOrLost() > 0 {
		switch {
		case f.AccountabilitySettled():
			return LabelPassSettled
		case len(f.Records) > 0:
			return LabelFailAccountabilityPending
		default:
			return LabelFailNeedsAccountability
		}
	}

	if counts.Cleared == counts.Total {
		return LabelPass
	}

	if counts.Pending > 0 {
		if f.HasActiveInspection() {
			return LabelInProgress
		}
		return LabelPending
	}

	return LabelInProgress
}
