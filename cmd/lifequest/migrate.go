package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lifequest/lifequest-core/internal/infrastructure/persistence/postgres"
	"github.com/lifequest/lifequest-core/pkg/logger"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd.Context(), func(a *app, m *postgres.Migrator) error {
					n, err := m.Migrate(cmd.Context())
					if err != nil {
						return err
					}
					a.log.Info("migrations applied", logger.Int("count", n))
					fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest applied migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd.Context(), func(a *app, m *postgres.Migrator) error {
					version, err := m.Rollback(cmd.Context())
					if err != nil {
						return err
					}
					if version == 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "nothing to roll back")
						return nil
					}
					a.log.Info("migration rolled back", logger.Int("version", version))
					fmt.Fprintf(cmd.OutOrStdout(), "rolled back migration %d\n", version)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd.Context(), func(_ *app, m *postgres.Migrator) error {
					migrations, err := m.Status(cmd.Context())
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED AT")
					for _, mg := range migrations {
						applied := "pending"
						if mg.IsApplied {
							applied = mg.AppliedAt.UTC().Format("2006-01-02 15:04:05")
						}
						fmt.Fprintf(w, "%d\t%s\t%s\n", mg.Version, mg.Name, applied)
					}
					return w.Flush()
				})
			},
		},
	)
	return cmd
}

func withMigrator(ctx context.Context, fn func(a *app, m *postgres.Migrator) error) error {
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requirePostgres(); err != nil {
		return err
	}
	return fn(a, postgres.NewMigrator(a.conn))
}
