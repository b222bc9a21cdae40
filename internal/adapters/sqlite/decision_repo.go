package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/clearance/internal/ports/secondary"
)

// ListDecisions retrieves the approve/reject history of a request, oldest first.
func (g *FactGateway) ListDecisions(ctx context.Context, requestID string) ([]*secondary.DecisionRecord, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT id, request_id, outcome, from_status, actor_id, reason, created_at
		 FROM clearance_decisions WHERE request_id = ? ORDER BY created_at, id`,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer rows.Close()

	var decisions []*secondary.DecisionRecord
	for rows.Next() {
		var (
			actorID   sql.NullString
			reason    sql.NullString
			createdAt time.Time
		)

		record := &secondary.DecisionRecord{}
		err := rows.Scan(&record.ID,
			&record.RequestID,
			&record.Outcome,
			&record.FromStatus,
			&actorID,
			&reason,
			&createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		record.ActorID = actorID.String
		record.Reason = reason.String
		record.CreatedAt = createdAt.Format(time.RFC3339)

		decisions = append(decisions, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}

	return decisions, nil
}
