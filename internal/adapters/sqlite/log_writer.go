package sqlite

import (
	"context"

	"github.com/google/uuid"

	"github.com/example/clearance/internal/ctxutil"
	"github.com/example/clearance/internal/ports/secondary"
)

// LogWriterAdapter implements secondary.LogWriter using AuditLogRepository.
type LogWriterAdapter struct {
	logRepo secondary.AuditLogRepository
}

// NewLogWriterAdapter creates a new LogWriterAdapter.
func NewLogWriterAdapter(logRepo secondary.AuditLogRepository) *LogWriterAdapter {
	return &LogWriterAdapter{logRepo: logRepo}
}

// LogUpdate logs an update operation for an entity field.
func (w *LogWriterAdapter) LogUpdate(ctx context.Context, entityType, entityID, fieldName, oldValue, newValue string) error {
	record := &secondary.AuditLogRecord{
		ID:         uuid.Must(uuid.NewV7()).String(),
		ActorID:    ctxutil.ActorOrSystem(ctx),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     "update",
		FieldName:  fieldName,
		OldValue:   oldValue,
		NewValue:   newValue,
	}

	return w.logRepo.Create(ctx, record)
}

// Ensure LogWriterAdapter implements the interface
var _ secondary.LogWriter = (*LogWriterAdapter)(nil)
