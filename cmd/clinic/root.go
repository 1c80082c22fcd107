package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/Freeeeeet/clinic_scheduler/internal/app"
	"github.com/Freeeeeet/clinic_scheduler/internal/config"
	"github.com/spf13/cobra"
)

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "clinic",
		Short:         "Clinic appointment scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		migrateCmd(),
		runCmd(),
		availabilityCmd(),
		doctorsCmd(),
		appointmentsCmd(),
		usersCmd(),
		digestCmd(),
	)

	return root
}

// withApp загружает конфиг, собирает приложение и вызывает fn
func withApp(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
