package main

import (
	"context"

	"github.com/Freeeeeet/clinic_scheduler/internal/app"
	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"github.com/spf13/cobra"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "User lookups",
	}

	var (
		in    service.ListUsersInput
		roles []string
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List users by name, DNI and role",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, r := range roles {
				in.Roles = append(in.Roles, model.Role(r))
			}

			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				page, err := a.Users.ListUsers(ctx, in)
				if err != nil {
					return err
				}
				return printJSON(page)
			})
		},
	}
	listCmd.Flags().StringVar(&in.Name, "name", "", "name or DNI substring")
	listCmd.Flags().StringVar(&in.DNI, "dni", "", "DNI substring")
	listCmd.Flags().StringSliceVar(&roles, "role", nil, "role filter: admin, doctor, patient")
	listCmd.Flags().IntVar(&in.Page, "page", model.DefaultPage, "page number")
	listCmd.Flags().IntVar(&in.Limit, "limit", model.DefaultLimit, "page size")

	var dni, name string
	ensureCmd := &cobra.Command{
		Use:   "ensure-patient",
		Short: "Find a patient by DNI or register a new one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				user, err := a.Users.EnsurePatient(ctx, dni, name)
				if err != nil {
					return err
				}
				return printJSON(user)
			})
		},
	}
	ensureCmd.Flags().StringVar(&dni, "dni", "", "patient DNI")
	ensureCmd.Flags().StringVar(&name, "name", "", "patient full name")

	cmd.AddCommand(listCmd, ensureCmd)
	return cmd
}
