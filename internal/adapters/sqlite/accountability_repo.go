package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/clearance/internal/ports/secondary"
)

// ListAccountabilityRecords retrieves damaged/lost claims for a (personnel, request) pair.
func (r *factReader) ListAccountabilityRecords(ctx context.Context, personnelID, requestID string) ([]*secondary.AccountabilityRecord, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, personnel_id, request_id, record_type, is_settled, equipment_returned, settlement_date
		 FROM accountability_records
		 WHERE personnel_id = ? AND request_id = ?
		 ORDER BY id`,
		personnelID, requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list accountability records: %w", err)
	}
	defer rows.Close()

	var records []*secondary.AccountabilityRecord
	for rows.Next() {
		var (
			reqID          sql.NullString
			settlementDate sql.NullTime
		)

		record := &secondary.AccountabilityRecord{}
		err := rows.Scan(&record.ID,
			&record.PersonnelID,
			&reqID,
			&record.RecordType,
			&record.IsSettled,
			&record.EquipmentReturned,
			&settlementDate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan accountability record: %w", err)
		}
		record.RequestID = reqID.String
		if settlementDate.Valid {
			record.SettlementDate = settlementDate.Time.Format(time.RFC3339)
		}

		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list accountability records: %w", err)
	}

	return records, nil
}

// GetAccountabilitySummary retrieves the settlement summary for a
// (personnel, request) pair, or nil if the settlement subsystem has not
// produced one.
func (r *factReader) GetAccountabilitySummary(ctx context.Context, personnelID, requestID string) (*secondary.AccountabilitySummaryRecord, error) {
	record := &secondary.AccountabilitySummaryRecord{}
	err := r.q.QueryRowContext(ctx,
		`SELECT personnel_id, request_id, accountability_status FROM accountability_summaries WHERE personnel_id = ? AND request_id = ?`,
		personnelID, requestID,
	).Scan(&record.PersonnelID, &record.RequestID, &record.AccountabilityStatus)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get accountability summary: %w", err)
	}
	return record, nil
}
