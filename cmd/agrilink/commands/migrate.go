package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/agrilink/agrilink/cmd/agrilink/output"
	"github.com/agrilink/agrilink/internal/config"
	"github.com/agrilink/agrilink/internal/store"
	"github.com/agrilink/agrilink/pkg/qb"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		pool, err := qb.Connect(ctx, config.Load().DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		applied, err := store.Migrate(ctx, pool)
		if err != nil {
			return err
		}
		if applied == 0 {
			output.Muted("nothing to apply")
		} else {
			output.Success("applied %d migration(s)", applied)
		}
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration(s)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		pool, err := qb.Connect(ctx, config.Load().DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		rolled, err := store.MigrateDown(ctx, pool, migrateSteps)
		if err != nil {
			return err
		}
		if rolled == 0 {
			output.Muted("nothing to roll back")
		} else {
			output.Success("rolled back %d migration(s)", rolled)
		}
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which migrations are applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		pool, err := qb.Connect(ctx, config.Load().DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		all, err := store.LoadMigrations()
		if err != nil {
			return err
		}
		records, err := store.MigrationStatus(ctx, pool)
		if err != nil {
			return err
		}

		applied := make(map[int]store.MigrationRecord, len(records))
		for _, r := range records {
			applied[r.Version] = r
		}

		for _, m := range all {
			if r, ok := applied[m.Version]; ok {
				output.Success("%04d_%s  applied %s", m.Version, m.Name, r.AppliedAt.Format("2006-01-02 15:04:05"))
			} else {
				output.Info("%04d_%s  pending", m.Version, m.Name)
			}
		}
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "How many migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}
