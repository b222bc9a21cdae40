// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/clearance/internal/ports/secondary"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so the same read queries
// serve plain lookups and the in-transaction re-check of a decision.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// factReader implements secondary.FactReader over a querier.
type factReader struct {
	q querier
}

// FactGateway implements secondary.FactGateway with SQLite.
type FactGateway struct {
	*factReader
	db *sql.DB
}

// NewFactGateway creates a new SQLite fact gateway.
func NewFactGateway(db *sql.DB) *FactGateway {
	return &FactGateway{factReader: &factReader{q: db}, db: db}
}

// UpdateRequestStatus writes next only if the stored status is still expected.
func (g *FactGateway) UpdateRequestStatus(ctx context.Context, id, expected, next string) error {
	return updateStatus(ctx, g.db, id, expected, next)
}

func updateStatus(ctx context.Context, q querier, id, expected, next string) error {
	result, err := q.ExecContext(ctx,
		`UPDATE clearance_requests SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		next, id, expected,
	)
	if err != nil {
		return fmt.Errorf("failed to update clearance request status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return conflictOrMissing(ctx, q, id)
	}
	return nil
}

// conflictOrMissing tells a vanished request apart from a moved status.
func conflictOrMissing(ctx context.Context, q querier, id string) error {
	var count int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM clearance_requests WHERE id = ?", id).Scan(&count); err != nil {
		return fmt.Errorf("failed to check clearance request existence: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("clearance request %s: %w", id, secondary.ErrNotFound)
	}
	return fmt.Errorf("clearance request %s: %w", id, secondary.ErrConflict)
}

// CommitDecision runs confirm against the transaction's view of the store and,
// if it passes, applies and records the decision atomically.
func (g *FactGateway) CommitDecision(ctx context.Context, decision *secondary.DecisionRecord, confirm func(ctx context.Context, r secondary.FactReader) error) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin decision transaction: %w", err)
	}
	defer tx.Rollback()

	if confirm != nil {
		if err := confirm(ctx, &factReader{q: tx}); err != nil {
			return err
		}
	}

	var result sql.Result
	switch decision.Outcome {
	case secondary.DecisionApproved:
		result, err = tx.ExecContext(ctx,
			`UPDATE clearance_requests SET status = ?, approved_by = ?, approved_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND status = ?`,
			"completed", nullString(decision.ActorID), decision.RequestID, decision.FromStatus,
		)
	case secondary.DecisionRejected:
		result, err = tx.ExecContext(ctx,
			`UPDATE clearance_requests SET status = ?, rejection_reason = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND status = ?`,
			"rejected", nullString(decision.Reason), decision.RequestID, decision.FromStatus,
		)
	default:
		return fmt.Errorf("unknown decision outcome %q", decision.Outcome)
	}
	if err != nil {
		return fmt.Errorf("failed to apply decision: %w", err)
	}

	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		return conflictOrMissing(ctx, tx, decision.RequestID)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO clearance_decisions (id, request_id, outcome, from_status, actor_id, reason) VALUES (?, ?, ?, ?, ?, ?)`,
		decision.ID,
		decision.RequestID,
		decision.Outcome,
		decision.FromStatus,
		nullString(decision.ActorID),
		nullString(decision.Reason),
	)
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit decision: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Ensure FactGateway implements the interface
var _ secondary.FactGateway = (*FactGateway)(nil)
