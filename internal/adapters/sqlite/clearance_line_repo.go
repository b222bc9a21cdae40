package sqlite

import (
	"context"
	"fmt"

	"github.com/example/clearance/internal/ports/secondary"
)

// ListLinesForRequest retrieves the clearance lines of a request.
func (r *factReader) ListLinesForRequest(ctx context.Context, requestID string) ([]*secondary.ClearanceLineRecord, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT request_id, equipment_id, status FROM clearance_lines WHERE request_id = ? ORDER BY equipment_id`,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list clearance lines: %w", err)
	}
	defer rows.Close()

	var lines []*secondary.ClearanceLineRecord
	for rows.Next() {
		record := &secondary.ClearanceLineRecord{}
		if err := rows.Scan(&record.RequestID, &record.EquipmentID, &record.Status); err != nil {
			return nil, fmt.Errorf("failed to scan clearance line: %w", err)
		}
		lines = append(lines, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list clearance lines: %w", err)
	}

	return lines, nil
}

// CountAssignedEquipment returns how many items are assigned to the personnel.
func (r *factReader) CountAssignedEquipment(ctx context.Context, personnelID string) (int, error) {
	var exists int
	err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM personnel WHERE id = ?", personnelID).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to check personnel existence: %w", err)
	}
	if exists == 0 {
		return 0, fmt.Errorf("personnel %s: %w", personnelID, secondary.ErrNotFound)
	}

	var count int
	err = r.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM equipment WHERE assigned_personnel_id = ?",
		personnelID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count assigned equipment: %w", err)
	}
	return count, nil
}
