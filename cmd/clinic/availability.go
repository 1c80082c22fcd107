package main

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/clinic_scheduler/internal/app"
	"github.com/spf13/cobra"
)

func availabilityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Manage doctor weekly availability",
	}

	var (
		doctorID int64
		windows  []string
	)

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Replace a doctor's weekly windows with the given list",
		Example: `  clinic availability sync --doctor 2 --window 3,08:00,12:00 --window 5,14:00,18:00
  clinic availability sync --doctor 2   # removes all windows`,
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := parseWindows(windows)
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				result, err := a.Availability.SyncAvailability(ctx, doctorID, specs)
				if err != nil {
					return err
				}
				return printJSON(result)
			})
		},
	}
	syncCmd.Flags().Int64Var(&doctorID, "doctor", 0, "doctor ID")
	syncCmd.Flags().StringArrayVar(&windows, "window", nil, "window as weekday,start,end (weekday 1 = Sunday); repeatable")
	_ = syncCmd.MarkFlagRequired("doctor")

	var listDoctorID int64
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show a doctor's active windows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				windows, err := a.Availability.ListAvailability(ctx, listDoctorID)
				if err != nil {
					return err
				}
				return printJSON(windows)
			})
		},
	}
	listCmd.Flags().Int64Var(&listDoctorID, "doctor", 0, "doctor ID")
	_ = listCmd.MarkFlagRequired("doctor")

	cmd.AddCommand(syncCmd, listCmd)
	return cmd
}

func doctorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctors",
		Short: "Doctor lookups",
	}

	var from, to string
	availableCmd := &cobra.Command{
		Use:     "available",
		Short:   "Find doctors whose availability covers a time range",
		Example: `  clinic doctors available --from "2025-06-10 10:00" --to "2025-06-10 11:00"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				start, err := parseDateTime(from, a.Config.Location)
				if err != nil {
					return fmt.Errorf("--from: %w", err)
				}
				end, err := parseDateTime(to, a.Config.Location)
				if err != nil {
					return fmt.Errorf("--to: %w", err)
				}

				doctors, err := a.Availability.FindAvailableDoctors(ctx, start, end)
				if err != nil {
					return err
				}
				return printJSON(doctors)
			})
		},
	}
	availableCmd.Flags().StringVar(&from, "from", "", "range start, YYYY-MM-DD HH:MM")
	availableCmd.Flags().StringVar(&to, "to", "", "range end, YYYY-MM-DD HH:MM")
	_ = availableCmd.MarkFlagRequired("from")
	_ = availableCmd.MarkFlagRequired("to")

	cmd.AddCommand(availableCmd)
	return cmd
}
