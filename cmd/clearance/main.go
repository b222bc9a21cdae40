package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/clearance/internal/cli"
	"github.com/example/clearance/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "clearance",
		Short:   "Clearance status reconciliation engine",
		Version: version.String(),
		Long: `clearance keeps the status of personnel clearance requests consistent with
equipment inspection, accountability and settlement facts, and gates approval
on those facts.`,
		SilenceUsage: true,
	}
	cli.AddGlobalFlags(rootCmd)

	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.SeedCmd())
	rootCmd.AddCommand(cli.ConfigCmd())

	// Clearance requests
	rootCmd.AddCommand(cli.RequestCmd())
	rootCmd.AddCommand(cli.ApproveCmd())
	rootCmd.AddCommand(cli.RejectCmd())

	// Reconciliation
	rootCmd.AddCommand(cli.ReconcileCmd())
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.LogCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
