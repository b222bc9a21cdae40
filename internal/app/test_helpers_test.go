package app

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/example/clearance/internal/core/clearance"
	"github.com/example/clearance/internal/ctxutil"
	"github.com/example/clearance/internal/ports/secondary"
)

// Ensure mockFactGateway implements the interface
var _ secondary.FactGateway = (*mockFactGateway)(nil)

var errStoreUnavailable = errors.New("store unavailable")

// mockFactGateway is an in-memory secondary.FactGateway. All methods are
// safe for concurrent use by the reconciliation workers.
type mockFactGateway struct {
	mu sync.Mutex

	requests  map[string]*secondary.ClearanceRequestRecord
	lines     map[string][]*secondary.ClearanceLineRecord
	records   map[string][]*secondary.AccountabilityRecord
	summaries map[string]*secondary.AccountabilitySummaryRecord
	schedules []*secondary.InspectionScheduleRecord
	assigned  map[string]int // personnel -> assigned items; absent means unknown personnel
	decisions []*secondary.DecisionRecord

	getCalls map[string]int
	updates  int

	// failGet makes the next n GetRequest calls for a request fail.
	failGet map[string]int
	listErr error

	// beforeUpdate runs with the lock held, just before a conditional write.
	beforeUpdate func(id string)
	// beforeConfirm runs with the lock released, just before confirm.
	beforeConfirm func()
}

func newMockFactGateway() *mockFactGateway {
	return &mockFactGateway{
		requests:  make(map[string]*secondary.ClearanceRequestRecord),
		lines:     make(map[string][]*secondary.ClearanceLineRecord),
		records:   make(map[string][]*secondary.AccountabilityRecord),
		summaries: make(map[string]*secondary.AccountabilitySummaryRecord),
		assigned:  make(map[string]int),
		getCalls:  make(map[string]int),
		failGet:   make(map[string]int),
	}
}

// addRequest adds a request whose personnel holds one item per line.
func (m *mockFactGateway) addRequest(id, reqType, status string, lineStatuses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	personnel := "P-" + id
	m.requests[id] = &secondary.ClearanceRequestRecord{ID: id, PersonnelID: personnel, Type: reqType, Status: status}
	m.assigned[personnel] = len(lineStatuses)
	for i, s := range lineStatuses {
		m.lines[id] = append(m.lines[id], &secondary.ClearanceLineRecord{
			RequestID:   id,
			EquipmentID: id + "-EQ-" + string(rune('A'+i)),
			Status:      s,
		})
	}
}

func (m *mockFactGateway) addRecord(requestID, recordType string, settled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[requestID] = append(m.records[requestID], &secondary.AccountabilityRecord{
		ID:          requestID + "-ACC",
		PersonnelID: "P-" + requestID,
		RequestID:   requestID,
		RecordType:  recordType,
		IsSettled:   settled,
	})
}

func (m *mockFactGateway) setSummary(requestID, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries[requestID] = &secondary.AccountabilitySummaryRecord{
		PersonnelID:          "P-" + requestID,
		RequestID:            requestID,
		AccountabilityStatus: status,
	}
}

func (m *mockFactGateway) status(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[id].Status
}

func (m *mockFactGateway) updateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}

func (m *mockFactGateway) GetRequest(ctx context.Context, id string) (*secondary.ClearanceRequestRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls[id]++
	if m.failGet[id] > 0 {
		m.failGet[id]--
		return nil, errStoreUnavailable
	}
	r, ok := m.requests[id]
	if !ok {
		return nil, secondary.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *mockFactGateway) ListLinesForRequest(ctx context.Context, requestID string) ([]*secondary.ClearanceLineRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lines[requestID], nil
}

func (m *mockFactGateway) ListAccountabilityRecords(ctx context.Context, personnelID, requestID string) ([]*secondary.AccountabilityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.AccountabilityRecord
	for _, r := range m.records[requestID] {
		if r.PersonnelID == personnelID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockFactGateway) GetAccountabilitySummary(ctx context.Context, personnelID, requestID string) (*secondary.AccountabilitySummaryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.summaries[requestID]
	if !ok || s.PersonnelID != personnelID {
		return nil, nil
	}
	return s, nil
}

func (m *mockFactGateway) ListScheduledInspections(ctx context.Context, equipmentIDs []string) ([]*secondary.InspectionScheduleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]bool, len(equipmentIDs))
	for _, id := range equipmentIDs {
		want[id] = true
	}
	var out []*secondary.InspectionScheduleRecord
	for _, s := range m.schedules {
		if want[s.EquipmentID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockFactGateway) CountAssignedEquipment(ctx context.Context, personnelID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.assigned[personnelID]
	if !ok {
		return 0, secondary.ErrNotFound
	}
	return n, nil
}

func (m *mockFactGateway) ListRequests(ctx context.Context, filters secondary.ClearanceRequestFilters) ([]*secondary.ClearanceRequestRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.ClearanceRequestRecord
	for _, r := range m.sortedRequests() {
		if filters.Status != "" {
			s, err := clearance.ParseStatus(r.Status)
			if err != nil || string(s) != filters.Status {
				continue
			}
		}
		if filters.PersonnelID != "" && r.PersonnelID != filters.PersonnelID {
			continue
		}
		out = append(out, r)
	}
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (m *mockFactGateway) ListOpenRequests(ctx context.Context) ([]*secondary.ClearanceRequestRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*secondary.ClearanceRequestRecord
	for _, r := range m.sortedRequests() {
		if s, err := clearance.ParseStatus(r.Status); err == nil && s.IsTerminal() {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockFactGateway) ListTerminalWithPendingLines(ctx context.Context) ([]*secondary.ClearanceRequestRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.ClearanceRequestRecord
	for _, r := range m.sortedRequests() {
		s, err := clearance.ParseStatus(r.Status)
		if err != nil || !s.IsTerminal() {
			continue
		}
		for _, l := range m.lines[r.ID] {
			if l.Status == "pending" {
				out = append(out, r)
				break
			}
		}
	}
	return out, nil
}

func (m *mockFactGateway) sortedRequests() []*secondary.ClearanceRequestRecord {
	out := make([]*secondary.ClearanceRequestRecord, 0, len(m.requests))
	for _, r := range m.requests {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *mockFactGateway) UpdateRequestStatus(ctx context.Context, id, expected, next string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.beforeUpdate != nil {
		m.beforeUpdate(id)
	}
	r, ok := m.requests[id]
	if !ok {
		return secondary.ErrNotFound
	}
	if r.Status != expected {
		return secondary.ErrConflict
	}
	r.Status = next
	m.updates++
	return nil
}

func (m *mockFactGateway) CommitDecision(ctx context.Context, decision *secondary.DecisionRecord, confirm func(ctx context.Context, r secondary.FactReader) error) error {
	if m.beforeConfirm != nil {
		m.beforeConfirm()
	}
	if confirm != nil {
		if err := confirm(ctx, m); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[decision.RequestID]
	if !ok {
		return secondary.ErrNotFound
	}
	if r.Status != decision.FromStatus {
		return secondary.ErrConflict
	}
	switch decision.Outcome {
	case secondary.DecisionApproved:
		r.Status = "completed"
		r.ApprovedBy = decision.ActorID
	case secondary.DecisionRejected:
		r.Status = "rejected"
		r.RejectionReason = decision.Reason
	}
	m.decisions = append(m.decisions, decision)
	return nil
}

func (m *mockFactGateway) ListDecisions(ctx context.Context, requestID string) ([]*secondary.DecisionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.DecisionRecord
	for _, d := range m.decisions {
		if d.RequestID == requestID {
			out = append(out, d)
		}
	}
	return out, nil
}

// Ensure mockLogWriter implements the interface
var _ secondary.LogWriter = (*mockLogWriter)(nil)

type logEntry struct {
	entityID, field, oldValue, newValue, actor string
}

// mockLogWriter records audit entries.
type mockLogWriter struct {
	mu      sync.Mutex
	entries []logEntry
}

func (m *mockLogWriter) LogUpdate(ctx context.Context, entityType, entityID, fieldName, oldValue, newValue string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, logEntry{
		entityID: entityID,
		field:    fieldName,
		oldValue: oldValue,
		newValue: newValue,
		actor:    ctxutil.ActorFromContext(ctx),
	})
	return nil
}

func (m *mockLogWriter) all() []logEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]logEntry(nil), m.entries...)
}
