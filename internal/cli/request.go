package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/clearance/internal/ports/primary"
	"github.com/example/clearance/internal/wire"
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Inspect clearance requests",
	Long:  "List clearance requests and inspect their inspection label and approval eligibility",
}

var requestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List clearance requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		personnel, _ := cmd.Flags().GetString("personnel")
		limit, _ := cmd.Flags().GetInt("limit")

		return wire.ClearanceAdapter().List(NewContext(), primary.ClearanceRequestFilters{
			Status:      status,
			PersonnelID: personnel,
			Limit:       limit,
		})
	},
}

var requestShowCmd = &cobra.Command{
	Use:   "show <request-id>",
	Short: "Show a clearance request and its decisions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		adapter := wire.ClearanceAdapter()
		if err := adapter.Show(ctx, args[0]); err != nil {
			return err
		}
		return adapter.Decisions(ctx, args[0])
	},
}

var requestLabelCmd = &cobra.Command{
	Use:   "label <request-id>",
	Short: "Compute the equipment inspection label",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.ClearanceAdapter().Label(NewContext(), args[0])
	},
}

var requestEligibilityCmd = &cobra.Command{
	Use:   "eligibility <request-id>",
	Short: "Check whether a request can be approved now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.ClearanceAdapter().Eligibility(NewContext(), args[0])
	},
}

// RequestCmd returns the request command with all subcommands attached.
func RequestCmd() *cobra.Command {
	requestListCmd.Flags().StringP("status", "s", "", "Filter by status (any case or separator)")
	requestListCmd.Flags().String("personnel", "", "Filter by personnel ID")
	requestListCmd.Flags().IntP("limit", "n", 0, "Maximum requests to show")

	requestCmd.AddCommand(requestListCmd)
	requestCmd.AddCommand(requestShowCmd)
	requestCmd.AddCommand(requestLabelCmd)
	requestCmd.AddCommand(requestEligibilityCmd)

	return requestCmd
}

// ApproveCmd returns the approve command
func ApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <request-id>",
		Short: "Approve a clearance request",
		Long: `Approve a clearance request as --actor. Eligibility is recomputed from
current facts inside the write; a refusal prints its reason code.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.ClearanceAdapter().Approve(NewContext(), args[0])
		},
	}
}

// RejectCmd returns the reject command
func RejectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reject <request-id>",
		Short: "Reject a clearance request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, _ := cmd.Flags().GetString("reason")
			return wire.ClearanceAdapter().Reject(NewContext(), args[0], reason)
		},
	}
	cmd.Flags().StringP("reason", "r", "", "Rejection reason (required)")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}
