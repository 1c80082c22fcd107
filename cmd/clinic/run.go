package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/clinic_scheduler/internal/app"
	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run background jobs (daily agenda digest) until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return withApp(ctx, func(ctx context.Context, a *app.App) error {
				if migrate {
					m, err := a.Migrator()
					if err != nil {
						return err
					}
					err = m.Up(ctx)
					m.Close()
					if err != nil {
						return err
					}
				}

				a.Scheduler.Start(ctx)
				a.Logger.Info("Clinic scheduler started")

				<-ctx.Done()

				a.Scheduler.Stop()
				a.Logger.Info("Clinic scheduler stopped")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations on start")

	return cmd
}

func digestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Daily agenda digest",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "send",
		Short: "Send today's agenda to the staff chat now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.Scheduler.SendDigest(ctx)
			})
		},
	})

	return cmd
}
