package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/clearance/internal/ports/secondary"
)

// ListScheduledInspections retrieves inspection schedules for the given equipment.
func (r *factReader) ListScheduledInspections(ctx context.Context, equipmentIDs []string) ([]*secondary.InspectionScheduleRecord, error) {
	if len(equipmentIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(equipmentIDs)), ", ")
	args := make([]any, len(equipmentIDs))
	for i, id := range equipmentIDs {
		args[i] = id
	}

	rows, err := r.q.QueryContext(ctx,
		`SELECT id, equipment_id, status, scheduled_at FROM inspection_schedules
		 WHERE equipment_id IN (`+placeholders+`)
		 ORDER BY id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list inspection schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*secondary.InspectionScheduleRecord
	for rows.Next() {
		var scheduledAt sql.NullTime

		record := &secondary.InspectionScheduleRecord{}
		if err := rows.Scan(&record.ID, &record.EquipmentID, &record.Status, &scheduledAt); err != nil {
			return nil, fmt.Errorf("failed to scan inspection schedule: %w", err)
		}
		if scheduledAt.Valid {
			record.ScheduledAt = scheduledAt.Time.Format(time.RFC3339)
		}

		schedules = append(schedules, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list inspection schedules: %w", err)
	}

	return schedules, nil
}
