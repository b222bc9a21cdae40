package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/clearance/internal/ports/secondary"
)

// foldedColumn folds case and separators of a status column so legacy values
// such as "Pending-For-Approval" compare equal to "pending_for_approval".
func foldedColumn(col string) string {
	return `LOWER(REPLACE(REPLACE(REPLACE(` + col + `, '_', ''), '-', ''), ' ', ''))`
}

var normalizedStatus = foldedColumn("status")

const requestColumns = `id, personnel_id, type, status, rejection_reason, approved_by, approved_at, created_at, updated_at`

var statusFolder = strings.NewReplacer("_", "", "-", "", " ", "")

func foldStatus(s string) string {
	return statusFolder.Replace(strings.ToLower(s))
}

// GetRequest retrieves a clearance request by its ID.
func (r *factReader) GetRequest(ctx context.Context, id string) (*secondary.ClearanceRequestRecord, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM clearance_requests WHERE id = ?`,
		id,
	)
	record, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("clearance request %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clearance request: %w", err)
	}
	return record, nil
}

// ListRequests retrieves clearance requests matching the given filters.
func (g *FactGateway) ListRequests(ctx context.Context, filters secondary.ClearanceRequestFilters) ([]*secondary.ClearanceRequestRecord, error) {
	query := `SELECT ` + requestColumns + ` FROM clearance_requests WHERE 1=1`
	args := []any{}

	if filters.Status != "" {
		query += " AND " + normalizedStatus + " = ?"
		args = append(args, foldStatus(filters.Status))
	}

	if filters.PersonnelID != "" {
		query += " AND personnel_id = ?"
		args = append(args, filters.PersonnelID)
	}

	query += " ORDER BY id"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	return g.queryRequests(ctx, query, args...)
}

// ListOpenRequests retrieves every request that is not completed or rejected.
// Only ID and Status are populated; callers read the full row per request.
func (g *FactGateway) ListOpenRequests(ctx context.Context) ([]*secondary.ClearanceRequestRecord, error) {
	return g.queryRequestRefs(ctx,
		`SELECT id, status FROM clearance_requests
		 WHERE `+normalizedStatus+` NOT IN ('completed', 'rejected')
		 ORDER BY id`,
	)
}

// ListTerminalWithPendingLines retrieves decided requests that still have
// pending lines. These indicate an upstream workflow that kept running after
// the decision.
func (g *FactGateway) ListTerminalWithPendingLines(ctx context.Context) ([]*secondary.ClearanceRequestRecord, error) {
	return g.queryRequestRefs(ctx,
		`SELECT r.id, r.status FROM clearance_requests r
		 WHERE `+foldedColumn("r.status")+` IN ('completed', 'rejected')
		   AND EXISTS (
			SELECT 1 FROM clearance_lines l
			WHERE l.request_id = r.id AND LOWER(l.status) = 'pending'
		   )
		 ORDER BY r.id`,
	)
}

func (g *FactGateway) queryRequests(ctx context.Context, query string, args ...any) ([]*secondary.ClearanceRequestRecord, error) {
	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clearance requests: %w", err)
	}
	defer rows.Close()

	var requests []*secondary.ClearanceRequestRecord
	for rows.Next() {
		record, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clearance request: %w", err)
		}
		requests = append(requests, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list clearance requests: %w", err)
	}

	return requests, nil
}

// queryRequestRefs lists requests by ID and status only, so a malformed
// timestamp on one row cannot hide the others.
func (g *FactGateway) queryRequestRefs(ctx context.Context, query string, args ...any) ([]*secondary.ClearanceRequestRecord, error) {
	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clearance requests: %w", err)
	}
	defer rows.Close()

	var requests []*secondary.ClearanceRequestRecord
	for rows.Next() {
		record := &secondary.ClearanceRequestRecord{}
		if err := rows.Scan(&record.ID, &record.Status); err != nil {
			return nil, fmt.Errorf("failed to scan clearance request: %w", err)
		}
		requests = append(requests, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list clearance requests: %w", err)
	}

	return requests, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(s scanner) (*secondary.ClearanceRequestRecord, error) {
	var (
		rejectionReason sql.NullString
		approvedBy      sql.NullString
		approvedAt      sql.NullTime
		createdAt       sql.NullTime
		updatedAt       sql.NullTime
	)

	record := &secondary.ClearanceRequestRecord{}
	err := s.Scan(&record.ID,
		&record.PersonnelID,
		&record.Type,
		&record.Status,
		&rejectionReason,
		&approvedBy,
		&approvedAt,
		&createdAt,
		&updatedAt)
	if err != nil {
		return nil, err
	}
	record.RejectionReason = rejectionReason.String
	record.ApprovedBy = approvedBy.String
	record.ApprovedAt = formatTime(approvedAt)
	record.CreatedAt = formatTime(createdAt)
	record.UpdatedAt = formatTime(updatedAt)

	return record, nil
}

// formatTime renders a nullable timestamp. NULL and values the driver could
// not parse (returned as the zero time) render empty.
func formatTime(t sql.NullTime) string {
	if !t.Valid || t.Time.IsZero() {
		return ""
	}
	return t.Time.Format(time.RFC3339)
}
