package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/clearance/internal/ports/primary"
	"github.com/example/clearance/internal/wire"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the status audit trail",
	Long:  "View and prune the audit trail of clearance request status changes",
}

var logShowCmd = &cobra.Command{
	Use:   "show [request-id]",
	Short: "Show status changes",
	Long:  "Show status changes, optionally for one clearance request (e.g., CLR-001)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		actorID, _ := cmd.Flags().GetString("by")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		filters := primary.LogFilters{
			ActorID: actorID,
			Status:  status,
			Limit:   limit,
		}
		if len(args) > 0 {
			filters.EntityID = args[0]
		}

		return wire.LogAdapter().List(NewContext(), filters)
	},
}

var logHistoryCmd = &cobra.Command{
	Use:   "history [request-id]",
	Short: "Show the status history of a request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.LogAdapter().History(NewContext(), args[0])
	},
}

var logPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old log entries",
	Long:  "Delete log entries older than the specified number of days (default 90)",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		return wire.LogAdapter().Prune(NewContext(), days)
	},
}

// LogCmd returns the log command with all subcommands attached.
func LogCmd() *cobra.Command {
	logShowCmd.Flags().String("by", "", "Filter by actor ID")
	logShowCmd.Flags().String("status", "", "Only changes into this status (e.g., pending_for_approval)")
	logShowCmd.Flags().IntP("limit", "n", 100, "Maximum entries to show")

	logPruneCmd.Flags().Int("days", 90, "Delete entries older than N days")

	logCmd.AddCommand(logShowCmd)
	logCmd.AddCommand(logHistoryCmd)
	logCmd.AddCommand(logPruneCmd)

	return logCmd
}
