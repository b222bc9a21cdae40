package secondary

import "context"

// LogWriter defines the interface for writing audit log entries.
// Implementations extract the actor from context.
type LogWriter interface {
	// LogUpdate logs an update operation for an entity field.
	// fieldName, oldValue, newValue describe what changed.
	LogUpdate(ctx context.Context, entityType, entityID, fieldName, oldValue, newValue string) error
}

// AuditLogRepository defines the secondary port for audit trail persistence.
// Logs are immutable - no Update operations, but old entries can be pruned.
type AuditLogRepository interface {
	// Create persists a new audit log entry.
	Create(ctx context.Context, log *AuditLogRecord) error

	// List retrieves log entries matching the given filters, newest first.
	List(ctx context.Context, filters AuditLogFilters) ([]*AuditLogRecord, error)

	// PruneOlderThan deletes log entries older than the given number of days.
	// Returns the number of deleted entries.
	PruneOlderThan(ctx context.Context, days int) (int, error)
}

// AuditLogRecord represents an audit log entry as stored in persistence.
type AuditLogRecord struct {
	ID         string
	Timestamp  string
	ActorID    string // Empty string means null
	EntityType string
	EntityID   string
	Action     string // 'update'
	FieldName  string // Empty string means null
	OldValue   string // Empty string means null
	NewValue   string // Empty string means null
}

// AuditLogFilters contains filter options for querying logs.
type AuditLogFilters struct {
	EntityType string
	EntityID   string
	ActorID    string
	FieldName  string
	// NewValue matches after folding case and separators.
	NewValue string
	Limit    int
}
