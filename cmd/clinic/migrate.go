package main

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/clinic_scheduler/internal/app"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd.Context(), func(ctx context.Context, m *app.Migrator) error {
					return m.Up(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd.Context(), func(ctx context.Context, m *app.Migrator) error {
					return m.Down(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd.Context(), func(ctx context.Context, m *app.Migrator) error {
					version, err := m.Version(ctx)
					if err != nil {
						return err
					}
					fmt.Println(version)
					return nil
				})
			},
		},
	)

	return cmd
}

func withMigrator(ctx context.Context, fn func(ctx context.Context, m *app.Migrator) error) error {
	return withApp(ctx, func(ctx context.Context, a *app.App) error {
		m, err := a.Migrator()
		if err != nil {
			return err
		}
		defer m.Close()

		return fn(ctx, m)
	})
}
