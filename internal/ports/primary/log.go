package primary

import "context"

// LogService defines the primary port for the status audit trail.
type LogService interface {
	// ListLogs retrieves log entries matching the given filters.
	ListLogs(ctx context.Context, filters LogFilters) ([]*LogEntry, error)

	// StatusHistory returns the status changes of one request, oldest first.
	StatusHistory(ctx context.Context, requestID string) ([]*StatusChange, error)

	// PruneLogs deletes log entries older than the specified number of days.
	PruneLogs(ctx context.Context, olderThanDays int) (int, error)
}

// LogEntry represents an audit log entry at the port boundary.
type LogEntry struct {
	ID         string
	Timestamp  string
	ActorID    string
	EntityType string
	EntityID   string
	Action     string
	FieldName  string
	OldValue   string
	NewValue   string
}

// LogFilters contains filter options for querying logs.
type LogFilters struct {
	EntityType string
	EntityID   string
	ActorID    string
	// Status selects status changes into the given request status. Any
	// accepted spelling works.
	Status string
	Limit  int
}

// StatusChange is one step in a request's status history. Statuses are in
// canonical spelling when they can be parsed.
type StatusChange struct {
	At        string
	From      string
	To        string
	ActorID   string
	Automatic bool // written by a reconciliation pass
}
