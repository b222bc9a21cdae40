package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/clearance/internal/ctxutil"
	"github.com/example/clearance/internal/ports/primary"
	"github.com/example/clearance/internal/ports/secondary"
)

// mockAuditLogRepository implements secondary.AuditLogRepository for testing.
type mockAuditLogRepository struct {
	records     []*secondary.AuditLogRecord
	lastFilters secondary.AuditLogFilters
	prunedDays  int
}

func (m *mockAuditLogRepository) Create(ctx context.Context, log *secondary.AuditLogRecord) error {
	m.records = append(m.records, log)
	return nil
}

func (m *mockAuditLogRepository) List(ctx context.Context, filters secondary.AuditLogFilters) ([]*secondary.AuditLogRecord, error) {
	m.lastFilters = filters
	return m.records, nil
}

func (m *mockAuditLogRepository) PruneOlderThan(ctx context.Context, days int) (int, error) {
	m.prunedDays = days
	return len(m.records), nil
}

func TestLogService_ListLogs(t *testing.T) {
	repo := &mockAuditLogRepository{
		records: []*secondary.AuditLogRecord{{
			ID:         "LOG-1",
			Timestamp:  "2026-01-02T03:04:05Z",
			ActorID:    "alice",
			EntityType: "clearance_request",
			EntityID:   "CLR-1",
			Action:     "update",
			FieldName:  "status",
			OldValue:   "pending_for_approval",
			NewValue:   "completed",
		}},
	}
	svc := NewLogService(repo, nil)

	entries, err := svc.ListLogs(context.Background(), primary.LogFilters{EntityID: "CLR-1", Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, secondary.AuditLogFilters{EntityID: "CLR-1", Limit: 10}, repo.lastFilters)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].ActorID)
	assert.Equal(t, "completed", entries[0].NewValue)
}

func TestLogService_PruneLogs(t *testing.T) {
	repo := &mockAuditLogRepository{records: make([]*secondary.AuditLogRecord, 3)}
	svc := NewLogService(repo, nil)

	n, err := svc.PruneLogs(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 30, repo.prunedDays)

	_, err = svc.PruneLogs(context.Background(), 0)
	assert.ErrorIs(t, err, primary.ErrInvalidArgument)
}

func TestLogService_ListLogs_StatusFilter(t *testing.T) {
	repo := &mockAuditLogRepository{}
	svc := NewLogService(repo, nil)
	ctx := context.Background()

	_, err := svc.ListLogs(ctx, primary.LogFilters{Status: "Pending For Approval", ActorID: ctxutil.SystemActor})
	require.NoError(t, err)
	assert.Equal(t, secondary.AuditLogFilters{
		EntityType: "clearance_request",
		ActorID:    ctxutil.SystemActor,
		FieldName:  "status",
		NewValue:   "pending_for_approval",
	}, repo.lastFilters)

	_, err = svc.ListLogs(ctx, primary.LogFilters{Status: "archived"})
	assert.ErrorIs(t, err, primary.ErrInvalidArgument)
}

func TestLogService_StatusHistory(t *testing.T) {
	gw := newMockFactGateway()
	gw.addRequest("CLR-1", "retirement", "completed")
	repo := &mockAuditLogRepository{
		// newest first, as the repository returns them
		records: []*secondary.AuditLogRecord{
			{Timestamp: "2026-01-03T00:00:00Z", ActorID: "alice", OldValue: "Pending_For_Approval", NewValue: "completed"},
			{Timestamp: "2026-01-02T00:00:00Z", ActorID: ctxutil.SystemActor, OldValue: "pending", NewValue: "pending_for_approval"},
		},
	}
	svc := NewLogService(repo, gw)

	history, err := svc.StatusHistory(context.Background(), "CLR-1")
	require.NoError(t, err)

	assert.Equal(t, secondary.AuditLogFilters{EntityType: "clearance_request", EntityID: "CLR-1", FieldName: "status"}, repo.lastFilters)
	assert.Equal(t, []*primary.StatusChange{
		{At: "2026-01-02T00:00:00Z", From: "pending", To: "pending_for_approval", ActorID: ctxutil.SystemActor, Automatic: true},
		{At: "2026-01-03T00:00:00Z", From: "pending_for_approval", To: "completed", ActorID: "alice"},
	}, history)

	_, err = svc.StatusHistory(context.Background(), "CLR-404")
	assert.ErrorIs(t, err, primary.ErrNotFound)
}
