// Package cli provides CLI commands for the clearance application.
package cli

import (
	gocontext "context"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/clearance/internal/ctxutil"
	"github.com/example/clearance/internal/wire"
)

// globalActorID stores the actor for the current CLI invocation.
// Set once at startup from --actor or $USER.
var globalActorID string

// AddGlobalFlags registers the flags shared by every command and the hook
// that applies them.
func AddGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().String("config", "", "Config file (default ~/.clearance/config.toml)")
	root.PersistentFlags().String("actor", os.Getenv("USER"), "Actor recorded on approvals, rejections and audit entries")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		wire.SetConfigPath(configPath)
		globalActorID, _ = cmd.Flags().GetString("actor")
	}
	root.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		_ = wire.Close()
	}
}

// GetActorID returns the stored actor ID from CLI startup.
func GetActorID() string {
	return globalActorID
}

// NewContext creates a context.Background() with the current actor ID embedded.
// CLI commands should use this instead of context.Background() directly.
func NewContext() gocontext.Context {
	ctx := gocontext.Background()
	if globalActorID != "" {
		return ctxutil.WithActorID(ctx, globalActorID)
	}
	return ctx
}
