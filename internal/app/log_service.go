package app

import (
	"context"
	"fmt"

	"github.com/example/clearance/internal/core/clearance"
	"github.com/example/clearance/internal/ctxutil"
	"github.com/example/clearance/internal/ports/primary"
	"github.com/example/clearance/internal/ports/secondary"
)

const (
	requestEntity = "clearance_request"
	statusField   = "status"
)

// LogServiceImpl implements the LogService interface.
type LogServiceImpl struct {
	logRepo secondary.AuditLogRepository
	reader  secondary.FactReader
}

// NewLogService creates a new LogService with injected dependencies. reader
// is used to tell an unknown request apart from one with no history.
func NewLogService(logRepo secondary.AuditLogRepository, reader secondary.FactReader) *LogServiceImpl {
	return &LogServiceImpl{
		logRepo: logRepo,
		reader:  reader,
	}
}

// ListLogs retrieves log entries matching the given filters.
func (s *LogServiceImpl) ListLogs(ctx context.Context, filters primary.LogFilters) ([]*primary.LogEntry, error) {
	repoFilters := secondary.AuditLogFilters{
		EntityType: filters.EntityType,
		EntityID:   filters.EntityID,
		ActorID:    filters.ActorID,
		Limit:      filters.Limit,
	}
	if filters.Status != "" {
		status, err := clearance.ParseStatus(filters.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", primary.ErrInvalidArgument, err)
		}
		repoFilters.EntityType = requestEntity
		repoFilters.FieldName = statusField
		repoFilters.NewValue = string(status)
	}

	records, err := s.logRepo.List(ctx, repoFilters)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}

	entries := make([]*primary.LogEntry, len(records))
	for i, r := range records {
		entries[i] = s.recordToLogEntry(r)
	}
	return entries, nil
}

// StatusHistory returns the request's status changes, oldest first.
func (s *LogServiceImpl) StatusHistory(ctx context.Context, requestID string) ([]*primary.StatusChange, error) {
	if s.reader != nil {
		if _, err := s.reader.GetRequest(ctx, requestID); err != nil {
			return nil, err
		}
	}

	records, err := s.logRepo.List(ctx, secondary.AuditLogFilters{
		EntityType: requestEntity,
		EntityID:   requestID,
		FieldName:  statusField,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list status history: %w", err)
	}

	history := make([]*primary.StatusChange, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		history = append(history, &primary.StatusChange{
			At:        r.Timestamp,
			From:      displayStatus(r.OldValue),
			To:        displayStatus(r.NewValue),
			ActorID:   r.ActorID,
			Automatic: ctxutil.IsSystemActor(r.ActorID),
		})
	}
	return history, nil
}

// PruneLogs deletes log entries older than the specified number of days.
func (s *LogServiceImpl) PruneLogs(ctx context.Context, olderThanDays int) (int, error) {
	if olderThanDays < 1 {
		return 0, fmt.Errorf("%w: retention must be at least 1 day (got %d)", primary.ErrInvalidArgument, olderThanDays)
	}
	return s.logRepo.PruneOlderThan(ctx, olderThanDays)
}

// Helper methods

func (s *LogServiceImpl) recordToLogEntry(r *secondary.AuditLogRecord) *primary.LogEntry {
	return &primary.LogEntry{
		ID:         r.ID,
		Timestamp:  r.Timestamp,
		ActorID:    r.ActorID,
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		Action:     r.Action,
		FieldName:  r.FieldName,
		OldValue:   r.OldValue,
		NewValue:   r.NewValue,
	}
}

// Ensure LogServiceImpl implements the interface
var _ primary.LogService = (*LogServiceImpl)(nil)
