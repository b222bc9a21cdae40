// Package clearance contains the pure domain vocabulary for clearance requests.
// This is part of the Functional Core - no I/O, only types and pure functions.
package clearance

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownValue is wrapped by every parser that rejects a stored value.
var ErrUnknownValue = errors.New("unknown value")

// Type represents the personnel action a clearance request is raised for.
type Type string

const (
	TypeRetirement          Type = "retirement"
	TypeResignation         Type = "resignation"
	TypeEquipmentCompletion Type = "equipment_completion"
	TypeTransfer            Type = "transfer"
	TypeAdministrative      Type = "administrative"
	TypePromotion           Type = "promotion"
	TypeOther               Type = "other"
)

// IsEquipmentRelated reports whether requests of this type require an
// equipment inspection before approval.
func (t Type) IsEquipmentRelated() bool {
	switch t {
	case TypeRetirement, TypeResignation, TypeEquipmentCompletion:
		return true
	default:
		return false
	}
}

// Status represents the overall status of a clearance request.
type Status string

const (
	StatusPending            Status = "pending"
	StatusInProgress         Status = "in_progress"
	StatusPendingForApproval Status = "pending_for_approval"
	StatusCompleted          Status = "completed"
	StatusRejected           Status = "rejected"
)

// IsTerminal reports whether the status is absorbing. Terminal requests are
// never rewritten by reconciliation.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// LineStatus is the per-item status of a clearance line.
type LineStatus string

const (
	LinePending LineStatus = "pending"
	LineCleared LineStatus = "cleared"
	LineDamaged LineStatus = "damaged"
	LineLost    LineStatus = "lost"
	// LineUnknown marks a stored value outside the vocabulary. It never
	// counts as cleared.
	LineUnknown LineStatus = "unknown"
)

// RecordType is the kind of accountability claim.
type RecordType string

const (
	RecordDamaged RecordType = "damaged"
	RecordLost    RecordType = "lost"
)

// SummaryStatus is the aggregate accountability status reported by the
// settlement subsystem.
type SummaryStatus string

const (
	SummarySettled   SummaryStatus = "settled"
	SummaryUnsettled SummaryStatus = "unsettled"
)

// ScheduleStatus is the status of an inspection schedule entry.
type ScheduleStatus string

const (
	SchedulePending    ScheduleStatus = "pending"
	ScheduleInProgress ScheduleStatus = "in_progress"
	ScheduleDone       ScheduleStatus = "done"
	ScheduleCancelled  ScheduleStatus = "cancelled"
)

// IsActive reports whether the schedule still represents an open inspection.
func (s ScheduleStatus) IsActive() bool {
	return s == SchedulePending || s == ScheduleInProgress
}

// normalize folds case and separators so that "PENDING_FOR_APPROVAL",
// "Pending for Approval" and "PendingForApproval" compare equal.
func normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
}

// ParseType parses a stored request type.
func ParseType(raw string) (Type, error) {
	switch normalize(raw) {
	case "retirement":
		return TypeRetirement, nil
	case "resignation":
		return TypeResignation, nil
	case "equipmentcompletion":
		return TypeEquipmentCompletion, nil
	case "transfer":
		return TypeTransfer, nil
	case "administrative":
		return TypeAdministrative, nil
	case "promotion":
		return TypePromotion, nil
	case "other":
		return TypeOther, nil
	}
	return "", fmt.Errorf("%w: clearance type %q", ErrUnknownValue, raw)
}

// ParseStatus parses a stored request status.
func ParseStatus(raw string) (Status, error) {
	switch normalize(raw) {
	case "pending":
		return StatusPending, nil
	case "inprogress":
		return StatusInProgress, nil
	case "pendingforapproval":
		return StatusPendingForApproval, nil
	case "completed":
		return StatusCompleted, nil
	case "rejected":
		return StatusRejected, nil
	}
	return "", fmt.Errorf("%w: clearance status %q", ErrUnknownValue, raw)
}

// ParseLineStatus parses a stored line status. Unrecognised values map to
// LineUnknown rather than failing, so one bad row cannot hide the others.
func ParseLineStatus(raw string) LineStatus {
	switch normalize(raw) {
	case "pending":
		return LinePending
	case "cleared":
		return LineCleared
	case "damaged":
		return LineDamaged
	case "lost":
		return LineLost
	}
	return LineUnknown
}

// ParseRecordType parses a stored accountability record type.
func ParseRecordType(raw string) (RecordType, error) {
	switch normalize(raw) {
	case "damaged":
		return RecordDamaged, nil
	case "lost":
		return RecordLost, nil
	}
	return "", fmt.Errorf("%w: accountability record type %q", ErrUnknownValue, raw)
}

// ParseSummaryStatus parses a stored accountability summary status.
func ParseSummaryStatus(raw string) (SummaryStatus, error) {
	switch normalize(raw) {
	case "settled":
		return SummarySettled, nil
	case "unsettled":
		return SummaryUnsettled, nil
	}
	return "", fmt.Errorf("%w: accountability status %q", ErrUnknownValue, raw)
}

// ParseScheduleStatus parses a stored inspection schedule status.
func ParseScheduleStatus(raw string) (ScheduleStatus, error) {
	switch normalize(raw) {
	case "pending", "scheduled":
		return SchedulePending, nil
	case "inprogress":
		return ScheduleInProgress, nil
	case "done", "completed":
		return ScheduleDone, nil
	case "cancelled", "canceled":
		return ScheduleCancelled, nil
	}
	return "", fmt.Errorf("%w: inspection schedule status %q", ErrUnknownValue, raw)
}
