package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/clearance/internal/config"
	"github.com/example/clearance/internal/db"
	"github.com/example/clearance/internal/wire"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the clearance database",
		Long: `Write a default config file if none exists and create (or migrate) the
clearance database it points at.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := wire.ConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				if err := config.SaveConfig(path, config.Default()); err != nil {
					return err
				}
				fmt.Printf("✓ Config written to %s\n", path)
			}

			cfg, err := wire.Config()
			if err != nil {
				return err
			}
			dbPath, err := cfg.DatabasePath()
			if err != nil {
				return err
			}

			fmt.Printf("Initializing clearance database at %s\n", dbPath)
			database, err := db.Open(dbPath)
			if err != nil {
				return err
			}
			defer database.Close()

			version, err := db.CurrentVersion(database)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Database ready (schema version %d)\n", version)
			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  clearance seed fixtures.yaml")
			fmt.Println("  clearance reconcile")
			return nil
		},
	}
}

// SeedCmd returns the seed command
func SeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixtures.yaml>",
		Short: "Load upstream facts from a YAML fixtures file",
		Long: `Upsert personnel, equipment, requests, clearance lines, accountability
records and summaries, and inspection schedules from a YAML file. Loading the
same file twice leaves the database unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fixtures, err := db.LoadFixtures(args[0])
			if err != nil {
				return err
			}
			if err := db.SeedFixtures(wire.DB(), fixtures); err != nil {
				return err
			}

			fmt.Printf("✓ Seeded %d personnel, %d equipment, %d requests, %d accountability records\n",
				len(fixtures.Personnel), len(fixtures.Equipment), len(fixtures.Requests), len(fixtures.Records))
			return nil
		},
	}
}
