package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/clearance/internal/ports/secondary"
)

func newTestReconciler(gw *mockFactGateway, lw *mockLogWriter) *ReconciliationServiceImpl {
	var writer secondary.LogWriter
	if lw != nil {
		writer = lw
	}
	return NewReconciliationService(gw, writer, nil, nil, ReconcileOptions{
		Interval:      time.Hour,
		Debounce:      10 * time.Millisecond,
		Workers:       3,
		FetchAttempts: 3,
		FetchBackoff:  time.Millisecond,
	})
}

func TestRunPass_MovesRequestsAndIsIdempotent(t *testing.T) {
	gw := newMockFactGateway()
	gw.addRequest("CLR-A", "retirement", "pending", "cleared", "cleared", "cleared")
	gw.addRequest("CLR-B", "resignation", "pending")
	gw.addRequest("CLR-C", "retirement", "pending_for_approval", "lost")
	gw.addRecord("CLR-C", "lost", false)
	gw.addRequest("CLR-D", "retirement", "pending", "pending", "cleared")
	gw.addRequest("CLR-E", "promotion", "pending")
	lw := &mockLogWriter{}
	svc := newTestReconciler(gw, lw)
	ctx := context.Background()

	report, err := svc.RunPass(ctx)
	require.NoError(t, err)

	assert.NotEmpty(t, report.PassID)
	assert.Equal(t, 5, report.Examined)
	assert.Equal(t, 5, report.Updated)
	assert.Equal(t, 0, report.Failed)
	assert.False(t, report.Cancelled)

	assert.Equal(t, "pending_for_approval", gw.status("CLR-A"))
	assert.Equal(t, "pending_for_approval", gw.status("CLR-B"), "no equipment")
	assert.Equal(t, "in_progress", gw.status("CLR-C"), "unsettled lost veto")
	assert.Equal(t, "in_progress", gw.status("CLR-D"))
	assert.Equal(t, "pending_for_approval", gw.status("CLR-E"), "non-equipment submitted")
	assert.Len(t, lw.all(), 5)

	writes := gw.updateCount()
	second, err := svc.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 5, second.Unchanged)
	assert.Equal(t, writes, gw.updateCount(), "second pass must not write")
}

func TestRunPass_SettlementUnblocksLostEquipment(t *testing.T) {
	gw := newMockFactGateway()
	gw.addRequest("CLR-C", "retirement", "pending", "lost")
	gw.addRecord("CLR-C", "lost", false)
	svc := newTestReconciler(gw, nil)
	ctx := context.Background()

	_, err := svc.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, "in_progress", gw.status("CLR-C"))

	// summary alone does not lift the veto while the record is unsettled
	gw.setSummary("CLR-C", "Settled")
	_, err = svc.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, "in_progress", gw.status("CLR-C"))

	gw.mu.Lock()
	gw.records["CLR-C"][0].IsSettled = true
	gw.mu.Unlock()
	_, err = svc.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pending_for_approval", gw.status("CLR-C"))
}

func TestRunPass_TerminalRequestsUntouched(t *testing.T) {
	gw := newMockFactGateway()
	gw.addRequest("CLR-1", "retirement", "Completed", "pending")
	gw.addRequest("CLR-2", "transfer", "rejected", "cleared")
	svc := newTestReconciler(gw, nil)

	report, err := svc.RunPass(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Examined)
	assert.Equal(t, 1, report.Violations, "completed request with pending line")
	assert.Equal(t, "Completed", gw.status("CLR-1"))
	assert.Equal(t, "rejected", gw.status("CLR-2"))
	assert.Equal(t, 0, gw.updateCount())
}

func TestRunPass_IsolatesFailures(t *testing.T) {
	gw := newMockFactGateway()
	gw.addRequest("CLR-1", "retirement", "pending", "cleared")
	gw.addRequest("CLR-2", "retirement", "pending", "cleared")
	gw.addRequest("CLR-3", "sabbatical", "pending")
	gw.failGet["CLR-2"] = 10
	svc := newTestReconciler(gw, nil)

	report, err := svc.RunPass(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Examined)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, "pending_for_approval", gw.status("CLR-1"))
	assert.Equal(t, "pending", gw.status("CLR-2"))

	gw.mu.Lock()
	defer gw.mu.Unlock()
	assert.Equal(t, 3, gw.getCalls["CLR-2"], "transient errors retried up to the attempt limit")
	assert.Equal(t, 1, gw.getCalls["CLR-3"], "unknown type is not retried")
}

func TestRunPass_UnrecognizedStatusIsAViolation(t *testing.T) {
	gw := newMockFactGateway()
	gw.addRequest("CLR-1", "transfer", "pending")
	gw.addRequest("CLR-2", "transfer", "cancelled")
	svc := newTestReconciler(gw, nil)

	for pass := 0; pass < 2; pass++ {
		report, err := svc.RunPass(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Examined)
		assert.Equal(t, 0, report.Failed)
		assert.Equal(t, 1, report.Violations)
	}

	assert.Equal(t, "pending_for_approval", gw.status("CLR-1"))
	assert.Equal(t, "cancelled", gw.status("CLR-2"))

	gw.mu.Lock()
	defer gw.mu.Unlock()
	assert.Zero(t, gw.getCalls["CLR-2"], "unrecognized status is never fetched")
}

func TestReconcileRequest_RetriesTransientFetch(t *testing.T) {
	gw := newMockFactGateway()
	gw.addRequest("CLR-1", "retirement", "pending", "cleared")
	gw.failGet["CLR-1"] = 2
	svc := newTestReconciler(gw, nil)

	out, err := svc.ReconcileRequest(context.Background(), "CLR-1")
	require.NoError(t, err)
	assert.True(t, out.Written)
	assert.Equal(t, "pending_for_approval", out.To)
	assert.Equal(t, "equipment-inspection-passed", out.Rule)
}

func TestReconcileRequest_Conflicts(t *testing.T) {
	t.Run("terminal transition wins", func(t *testing.T) {
		gw := newMockFactGateway()
		gw.addRequest("CLR-1", "retirement", "pending", "cleared")
		first := true
		gw.beforeUpdate = func(id string) {
			if first {
				first = false
				gw.requests[id].Status = "completed"
			}
		}
		svc := newTestReconciler(gw, nil)

		out, err := svc.ReconcileRequest(context.Background(), "CLR-1")
		require.NoError(t, err)
		assert.False(t, out.Written)
		assert.Equal(t, "terminal", out.Rule)
		assert.Equal(t, "completed", gw.status("CLR-1"))
	})

	t.Run("second conflict is left for next pass", func(t *testing.T) {
		gw := newMockFactGateway()
		gw.addRequest("CLR-1", "retirement", "pending", "cleared")
		flip := []string{"Pending", "PENDING"}
		calls := 0
		gw.beforeUpdate = func(id string) {
			gw.requests[id].Status = flip[calls%2]
			calls++
		}
		svc := newTestReconciler(gw, nil)

		out, err := svc.ReconcileRequest(context.Background(), "CLR-1")
		require.NoError(t, err)
		assert.True(t, out.Conflict)
		assert.False(t, out.Written)
		assert.Equal(t, 2, calls)
	})
}

func TestReconcileRequest_MissingPersonnelIsConservative(t *testing.T) {
	gw := newMockFactGateway()
	gw.addRequest("CLR-1", "retirement", "pending", "cleared")
	gw.mu.Lock()
	delete(gw.assigned, "P-CLR-1")
	gw.mu.Unlock()
	svc := newTestReconciler(gw, nil)

	out, err := svc.ReconcileRequest(context.Background(), "CLR-1")
	require.NoError(t, err)
	assert.Equal(t, "fail_needs_accountability", out.Label)
	assert.Equal(t, "in_progress", out.To)
}

func TestRunPass_Cancelled(t *testing.T) {
	gw := newMockFactGateway()
	gw.addRequest("CLR-1", "retirement", "pending", "cleared")
	gw.addRequest("CLR-2", "retirement", "pending", "cleared")
	svc := newTestReconciler(gw, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.RunPass(ctx)
	require.NoError(t, err)
	assert.True(t, report.Cancelled)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 0, gw.updateCount())
}

func TestRunPass_ListError(t *testing.T) {
	gw := newMockFactGateway()
	gw.listErr = errStoreUnavailable
	svc := newTestReconciler(gw, nil)

	_, err := svc.RunPass(context.Background())
	assert.ErrorIs(t, err, errStoreUnavailable)
}

func TestRun_TriggerRunsDebouncedPass(t *testing.T) {
	gw := newMockFactGateway()
	gw.addRequest("CLR-1", "retirement", "pending", "cleared")
	svc := newTestReconciler(gw, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	// initial pass
	assert.Eventually(t, func() bool { return gw.status("CLR-1") == "pending_for_approval" }, time.Second, 5*time.Millisecond)

	gw.addRequest("CLR-2", "transfer", "pending")
	for i := 0; i < 5; i++ {
		svc.Trigger()
	}
	assert.Eventually(t, func() bool { return gw.status("CLR-2") == "pending_for_approval" }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestKeyLock_SerializesSameKey(t *testing.T) {
	locks := NewKeyLock()
	unlock := locks.Lock("CLR-1")

	acquired := make(chan struct{})
	go func() {
		u := locks.Lock("CLR-1")
		close(acquired)
		u()
	}()

	// another key is independent
	otherUnlock := locks.Lock("CLR-2")
	otherUnlock()

	select {
	case <-acquired:
		t.Fatal("same key acquired while held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock not released")
	}
}
