package sqlite_test

import (
	"context"
	"testing"

	"github.com/example/clearance/internal/adapters/sqlite"
	"github.com/example/clearance/internal/ctxutil"
	"github.com/example/clearance/internal/ports/secondary"
)

func TestAuditLogRepository_CreateAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAuditLogRepository(db)
	ctx := context.Background()

	entries := []*secondary.AuditLogRecord{
		{ID: "AL-1", ActorID: "alice", EntityType: "clearance_request", EntityID: "CLR-001", Action: "update", FieldName: "status", OldValue: "pending", NewValue: "in_progress"},
		{ID: "AL-2", EntityType: "clearance_request", EntityID: "CLR-002", Action: "update"},
		{ID: "AL-3", ActorID: "bob", EntityType: "clearance_request", EntityID: "CLR-001", Action: "update", FieldName: "status", OldValue: "in_progress", NewValue: "pending_for_approval"},
	}
	for _, e := range entries {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	t.Run("filters by entity", func(t *testing.T) {
		logs, err := repo.List(ctx, secondary.AuditLogFilters{EntityID: "CLR-001"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(logs) != 2 {
			t.Fatalf("got %d logs, want 2", len(logs))
		}
		// newest first
		if logs[0].ID != "AL-3" {
			t.Errorf("logs[0].ID = %q, want %q", logs[0].ID, "AL-3")
		}
	})

	t.Run("nullable fields come back empty", func(t *testing.T) {
		logs, err := repo.List(ctx, secondary.AuditLogFilters{EntityID: "CLR-002"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(logs) != 1 {
			t.Fatalf("got %d logs, want 1", len(logs))
		}
		if logs[0].ActorID != "" || logs[0].FieldName != "" || logs[0].OldValue != "" {
			t.Errorf("unexpected values: %+v", logs[0])
		}
		if logs[0].Timestamp == "" {
			t.Error("Timestamp should be set")
		}
	})

	t.Run("filters by actor with limit", func(t *testing.T) {
		logs, err := repo.List(ctx, secondary.AuditLogFilters{ActorID: "alice", Limit: 5})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(logs) != 1 || logs[0].ID != "AL-1" {
			t.Errorf("logs = %+v", logs)
		}
	})

	t.Run("filters by folded new value", func(t *testing.T) {
		logs, err := repo.List(ctx, secondary.AuditLogFilters{FieldName: "status", NewValue: "Pending-For-Approval"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(logs) != 1 || logs[0].ID != "AL-3" {
			t.Errorf("logs = %+v", logs)
		}
	})
}

func TestAuditLogRepository_PruneOlderThan(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAuditLogRepository(db)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO audit_logs (id, timestamp, entity_type, entity_id, action) VALUES
		('AL-OLD', datetime('now', '-40 days'), 'clearance_request', 'CLR-001', 'update'),
		('AL-NEW', datetime('now'), 'clearance_request', 'CLR-001', 'update')`)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	n, err := repo.PruneOlderThan(ctx, 30)
	if err != nil {
		t.Fatalf("PruneOlderThan failed: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}
}

func TestLogWriterAdapter_LogUpdate(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAuditLogRepository(db)
	writer := sqlite.NewLogWriterAdapter(repo)

	tests := []struct {
		name      string
		ctx       context.Context
		entityID  string
		wantActor string
	}{
		{"actor from context", ctxutil.WithActorID(context.Background(), "alice"), "CLR-001", "alice"},
		{"system actor by default", context.Background(), "CLR-002", ctxutil.SystemActor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := writer.LogUpdate(tt.ctx, "clearance_request", tt.entityID, "status", "pending", "in_progress"); err != nil {
				t.Fatalf("LogUpdate failed: %v", err)
			}

			logs, err := repo.List(context.Background(), secondary.AuditLogFilters{EntityID: tt.entityID})
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(logs) != 1 {
				t.Fatalf("got %d logs, want 1", len(logs))
			}
			if logs[0].ActorID != tt.wantActor {
				t.Errorf("ActorID = %q, want %q", logs[0].ActorID, tt.wantActor)
			}
			if logs[0].Action != "update" || logs[0].NewValue != "in_progress" {
				t.Errorf("unexpected log: %+v", logs[0])
			}
		})
	}
}
