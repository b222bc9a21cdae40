package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/clearance/internal/core/clearance"
	"github.com/example/clearance/internal/ports/secondary"
)

// snapshot is one consistent read of a request's facts. StoredStatus keeps
// the raw column value so conditional writes compare against exactly what
// was read.
type snapshot struct {
	Facts        clearance.Facts
	StoredStatus string
	Record       *secondary.ClearanceRequestRecord
}

// gatherFacts fetches everything the classifier and transition rules need
// for one request. Unknown line statuses are kept as their own bucket; any
// other unparseable value is an error and the request is left alone.
func gatherFacts(ctx context.Context, r secondary.FactReader, requestID string) (*snapshot, error) {
	record, err := r.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	reqType, err := clearance.ParseType(record.Type)
	if err != nil {
		return nil, fmt.Errorf("clearance request %s: %w", requestID, err)
	}
	status, err := clearance.ParseStatus(record.Status)
	if err != nil {
		return nil, fmt.Errorf("clearance request %s: %w", requestID, err)
	}

	f := clearance.Facts{
		Request: clearance.Request{
			ID:          record.ID,
			PersonnelID: record.PersonnelID,
			Type:        reqType,
			Status:      status,
		},
		PersonnelFound: true,
	}

	assigned, err := r.CountAssignedEquipment(ctx, record.PersonnelID)
	switch {
	case errors.Is(err, secondary.ErrNotFound):
		f.PersonnelFound = false
	case err != nil:
		return nil, err
	default:
		f.AssignedEquipment = assigned
	}

	lines, err := r.ListLinesForRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		f.Lines = append(f.Lines, clearance.Line{
			EquipmentID: l.EquipmentID,
			Status:      clearance.ParseLineStatus(l.Status),
		})
	}

	records, err := r.ListAccountabilityRecords(ctx, record.PersonnelID, requestID)
	if err != nil {
		return nil, err
	}
	for _, a := range records {
		recordType, err := clearance.ParseRecordType(a.RecordType)
		if err != nil {
			return nil, fmt.Errorf("accountability record %s: %w", a.ID, err)
		}
		f.Records = append(f.Records, clearance.AccountabilityRecord{
			Type:              recordType,
			Settled:           a.IsSettled,
			EquipmentReturned: a.EquipmentReturned,
		})
	}

	summary, err := r.GetAccountabilitySummary(ctx, record.PersonnelID, requestID)
	if err != nil {
		return nil, err
	}
	if summary != nil {
		s, err := clearance.ParseSummaryStatus(summary.AccountabilityStatus)
		if err != nil {
			return nil, fmt.Errorf("accountability summary for %s: %w", requestID, err)
		}
		f.Summary = &s
	}

	if pending := f.PendingEquipmentIDs(); len(pending) > 0 {
		schedules, err := r.ListScheduledInspections(ctx, pending)
		if err != nil {
			return nil, err
		}
		for _, s := range schedules {
			status, err := clearance.ParseScheduleStatus(s.Status)
			if err != nil {
				return nil, fmt.Errorf("inspection schedule %s: %w", s.ID, err)
			}
			f.Schedules = append(f.Schedules, clearance.InspectionSchedule{
				EquipmentID: s.EquipmentID,
				Status:      status,
			})
		}
	}

	return &snapshot{Facts: f, StoredStatus: record.Status, Record: record}, nil
}
