package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/kanban/internal/db"
)

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Bring the database schema up to date.

With --seed, a freshly created database is populated with a demo
workspace owned by "dev-user".

Examples:
  kanban migrate
  kanban migrate --seed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			database, err := db.Open(ctx, cfg.Database.Path, db.Options{
				BusyTimeoutMS:  cfg.Database.BusyTimeoutMS,
				SkipMigrations: true,
			})
			if err != nil {
				return err
			}
			defer database.Close()

			before, err := db.CurrentVersion(ctx, database)
			if err != nil {
				return err
			}

			applied, err := db.RunMigrations(ctx, database)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintf(out, "%s Schema is up to date (version %d)\n", okMark, before)
			}
			for _, m := range applied {
				fmt.Fprintf(out, "%s Applied migration %d: %s\n", okMark, m.Version, m.Name)
			}

			if !seed {
				return nil
			}
			if before != 0 {
				fmt.Fprintf(out, "%s Skipping seed: database already initialized\n", warnMark)
				return nil
			}
			if err := db.SeedFixtures(ctx, database, time.Now().UTC()); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s Seeded demo workspace %s (owner %s)\n", okMark, db.SeedWorkspaceID, db.SeedOwnerID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "Populate a fresh database with demo data")
	return cmd
}
