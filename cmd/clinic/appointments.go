package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/app"
	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"github.com/spf13/cobra"
)

func appointmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "appointments",
		Aliases: []string{"appt"},
		Short:   "Book, change and inspect appointments",
	}

	cmd.AddCommand(
		bookCmd(),
		cancelCmd(),
		rescheduleCmd(),
		statusCmd("confirm", "Confirm a pending or rescheduled appointment"),
		statusCmd("complete", "Mark an appointment as completed with a diagnosis"),
		showCmd(),
		listCmd(),
	)

	return cmd
}

// slotFlags дата и время приёма
type slotFlags struct {
	date string
	time string
}

func (f *slotFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "appointment date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.time, "time", "", "appointment time, HH:MM")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("time")
}

func (f *slotFlags) parse() (time.Time, model.TimeOfDay, error) {
	date, err := model.ParseDate(f.date)
	if err != nil {
		return time.Time{}, 0, err
	}
	at, err := model.ParseTimeOfDay(f.time)
	if err != nil {
		return time.Time{}, 0, err
	}
	return date, at, nil
}

func bookCmd() *cobra.Command {
	var (
		actor actorFlags
		slot  slotFlags
		req   service.BookingRequest
	)

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book an appointment",
		Example: `  clinic appt book --actor-role patient --actor-id 7 --doctor 2 --date 2025-06-10 --time 08:30 --reason checkup
  clinic appt book --actor-id 1 --doctor 2 --date 2025-06-10 --time 09:00 --reason walk-in --dni 44556677 --name "Maria Gomez"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := actor.actor()
			if err != nil {
				return err
			}
			if req.Date, req.Time, err = slot.parse(); err != nil {
				return err
			}

			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				created, err := a.Appointments.BookAppointment(ctx, who, req)
				if err != nil {
					return err
				}
				return printJSON(created)
			})
		},
	}

	actor.register(cmd)
	slot.register(cmd)
	cmd.Flags().Int64Var(&req.DoctorID, "doctor", 0, "doctor ID")
	cmd.Flags().StringVar(&req.Reason, "reason", "", "reason for the visit")
	cmd.Flags().StringVar(&req.PatientDNI, "dni", "", "patient DNI (admin bookings)")
	cmd.Flags().StringVar(&req.PatientName, "name", "", "patient full name (admin bookings)")

	return cmd
}

func cancelCmd() *cobra.Command {
	var (
		actor actorFlags
		in    service.CancelInput
	)

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel an appointment",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if in.Actor, err = actor.actor(); err != nil {
				return err
			}

			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Appointments.CancelAppointment(ctx, in); err != nil {
					return err
				}
				fmt.Printf("Appointment %d cancelled\n", in.AppointmentID)
				return nil
			})
		},
	}

	actor.register(cmd)
	cmd.Flags().Int64Var(&in.AppointmentID, "id", 0, "appointment ID")
	cmd.Flags().StringVar(&in.Comment, "comment", "", "cancellation comment")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func rescheduleCmd() *cobra.Command {
	var (
		actor actorFlags
		slot  slotFlags
		in    service.RescheduleInput
	)

	cmd := &cobra.Command{
		Use:   "reschedule",
		Short: "Move an appointment to another date, time or doctor",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if in.Actor, err = actor.actor(); err != nil {
				return err
			}
			if in.Date, in.Time, err = slot.parse(); err != nil {
				return err
			}

			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				updated, err := a.Appointments.RescheduleAppointment(ctx, in)
				if err != nil {
					return err
				}
				return printJSON(updated)
			})
		},
	}

	actor.register(cmd)
	slot.register(cmd)
	cmd.Flags().Int64Var(&in.AppointmentID, "id", 0, "appointment ID")
	cmd.Flags().Int64Var(&in.DoctorID, "doctor", 0, "new doctor ID (default: keep current)")
	cmd.Flags().StringVar(&in.Reason, "reason", "", "reason for rescheduling")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func statusCmd(use, short string) *cobra.Command {
	var (
		actor   actorFlags
		id      int64
		comment string
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := actor.actor()
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if use == "complete" {
					err = a.Appointments.CompleteAppointment(ctx, id, who, comment)
				} else {
					err = a.Appointments.ConfirmAppointment(ctx, id, who, comment)
				}
				if err != nil {
					return err
				}
				fmt.Printf("Appointment %d: %s done\n", id, use)
				return nil
			})
		},
	}

	actor.register(cmd)
	cmd.Flags().Int64Var(&id, "id", 0, "appointment ID")
	if use == "complete" {
		cmd.Flags().StringVar(&comment, "diagnosis", "", "diagnosis")
	} else {
		cmd.Flags().StringVar(&comment, "comment", "", "comment")
	}
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func showCmd() *cobra.Command {
	var (
		actor actorFlags
		id    int64
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show an appointment with its history",
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := actor.actor()
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				detail, err := a.Appointments.GetAppointmentDetail(ctx, id, who)
				if err != nil {
					return err
				}
				return printJSON(detail)
			})
		},
	}

	actor.register(cmd)
	cmd.Flags().Int64Var(&id, "id", 0, "appointment ID")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func listCmd() *cobra.Command {
	var (
		actor      actorFlags
		in         service.ListAppointmentsInput
		date, slot string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List appointments (defaults to today)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if in.Actor, err = actor.actor(); err != nil {
				return err
			}
			if date != "" {
				d, err := model.ParseDate(date)
				if err != nil {
					return err
				}
				in.Date = &d
			}
			if slot != "" {
				at, err := model.ParseTimeOfDay(slot)
				if err != nil {
					return err
				}
				in.Time = &at
			}

			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				page, err := a.Appointments.ListAppointments(ctx, in)
				if err != nil {
					return err
				}
				return printJSON(page)
			})
		},
	}

	actor.register(cmd)
	cmd.Flags().StringVar(&in.Status, "status", "", "status filter")
	cmd.Flags().StringVar(&in.DoctorName, "doctor-name", "", "doctor name substring")
	cmd.Flags().StringVar(&date, "date", "", "date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&slot, "time", "", "time, HH:MM")
	cmd.Flags().IntVar(&in.Page, "page", model.DefaultPage, "page number")
	cmd.Flags().IntVar(&in.Limit, "limit", model.DefaultLimit, "page size")

	return cmd
}
