package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/example/clearance/internal/ports/primary"
)

// LogAdapter is a thin adapter that translates CLI operations to LogService calls.
type LogAdapter struct {
	service primary.LogService
	out     io.Writer
}

// NewLogAdapter creates a new LogAdapter with the given service.
func NewLogAdapter(service primary.LogService, out io.Writer) *LogAdapter {
	return &LogAdapter{
		service: service,
		out:     out,
	}
}

// List prints matching log entries, oldest first.
func (a *LogAdapter) List(ctx context.Context, filters primary.LogFilters) error {
	entries, err := a.service.ListLogs(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to fetch logs: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No log entries found.")
		return nil
	}

	fmt.Fprintf(a.out, "Found %d log entries:\n\n", len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		a.printEntry(entries[i])
	}
	return nil
}

// History prints a request's status changes, oldest first.
func (a *LogAdapter) History(ctx context.Context, requestID string) error {
	history, err := a.service.StatusHistory(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to fetch status history: %w", err)
	}

	if len(history) == 0 {
		fmt.Fprintf(a.out, "No status changes recorded for %s.\n", requestID)
		return nil
	}

	fmt.Fprintf(a.out, "Status history of %s:\n\n", requestID)
	for _, c := range history {
		who := "by " + c.ActorID
		if c.Automatic {
			who = "reconciled"
		}
		fmt.Fprintf(a.out, "%s  %-20s -> %-20s  %s\n", formatTimestamp(c.At), c.From, c.To, who)
	}
	return nil
}

// Prune deletes entries older than days.
func (a *LogAdapter) Prune(ctx context.Context, days int) error {
	count, err := a.service.PruneLogs(ctx, days)
	if err != nil {
		return fmt.Errorf("failed to prune logs: %w", err)
	}

	if count == 0 {
		fmt.Fprintf(a.out, "No log entries older than %d days found.\n", days)
	} else {
		fmt.Fprintf(a.out, "Pruned %d log entries older than %d days.\n", count, days)
	}
	return nil
}

// Format: timestamp | actor | entity_type/entity_id | field: old -> new
func (a *LogAdapter) printEntry(entry *primary.LogEntry) {
	actor := entry.ActorID
	if actor == "" {
		actor = "-"
	}

	fmt.Fprintf(a.out, "%s | %-18s | %s/%s",
		formatTimestamp(entry.Timestamp),
		actor,
		entry.EntityType,
		entry.EntityID,
	)
	if entry.FieldName != "" {
		fmt.Fprintf(a.out, " | %s: %s -> %s", entry.FieldName, entry.OldValue, entry.NewValue)
	}
	fmt.Fprintln(a.out)
}

func formatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}
