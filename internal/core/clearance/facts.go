package clearance

// Request is the minimal view of a clearance request the engine reasons about.
type Request struct {
	ID          string
	PersonnelID string
	Type        Type
	Status      Status
}

// Line is one equipment item's status within a request.
type Line struct {
	EquipmentID string
	Status      LineStatus
}

// AccountabilityRecord is a damaged or lost claim for a (personnel, request) pair.
type AccountabilityRecord struct {
	Type              RecordType
	Settled           bool
	EquipmentReturned bool
}

// InspectionSchedule records an inspection for one equipment item.
type InspectionSchedule struct {
	EquipmentID string
	Status      ScheduleStatus
}

// Facts is one consistent snapshot of everything the engine needs to
// classify and transition a single request. Facts are never re-fetched
// while a decision is being computed.
type Facts struct {
	Request Request

	// PersonnelFound is false when the personnel row is absent.
	PersonnelFound    bool
	AssignedEquipment int

	Lines   []Line
	Records []AccountabilityRecord

	// Summary is nil when the settlement subsystem has no summary yet.
	Summary *SummaryStatus

	// Schedules covers the equipment of the request's still-pending lines.
	Schedules []InspectionSchedule
}

// LineCounts tallies clearance lines by status.
type LineCounts struct {
	Total   int
	Cleared int
	Pending int
	Damaged int
	Lost    int
	Unknown int
}

// DamagedOrLost returns the number of lines flagged damaged or lost.
func (c LineCounts) DamagedOrLost() int {
	return c.Damaged + c.Lost
}

// Counts tallies the request's lines.
func (f Facts) Counts() LineCounts {
	c := LineCounts{Total: len(f.Lines)}
	for _, l := range f.Lines {
		switch l.Status {
		case LineCleared:
			c.Cleared++
		case LinePending:
			c.Pending++
		case LineDamaged:
			c.Damaged++
		case LineLost:
			c.Lost++
		default:
			c.Unknown++
		}
	}
	return c
}

// PendingEquipmentIDs returns the equipment IDs of lines still pending.
func (f Facts) PendingEquipmentIDs() []string {
	var ids []string
	for _, l := range f.Lines {
		if l.Status == LinePending {
			ids = append(ids, l.EquipmentID)
		}
	}
	return ids
}

// HasUnsettledLost reports whether any lost-equipment record is unsettled.
func (f Facts) HasUnsettledLost() bool {
	for _, r := range f.Records {
		if r.Type == RecordLost && !r.Settled {
			return true
		}
	}
	return false
}

// AccountabilitySettled reports whether at least one accountability record
// exists and every record is settled.
func (f Facts) AccountabilitySettled() bool {
	if len(f.Records) == 0 {
		return false
	}
	for _, r := range f.Records {
		if !r.Settled {
			return false
		}
	}
	return true
}

// SummarySettled reports whether the settlement subsystem marks the pair settled.
func (f Facts) SummarySettled() bool {
	return f.Summary != nil && *f.Summary == SummarySettled
}

// HasActiveInspection reports whether any pending line's equipment has an
// open inspection schedule.
func (f Facts) HasActiveInspection() bool {
	pending := make(map[string]bool)
	for _, id := range f.PendingEquipmentIDs() {
		pending[id] = true
	}
	for _, s := range f.Schedules {
		if pending[s.EquipmentID] && s.Status.IsActive() {
			return true
		}
	}
	return false
}
