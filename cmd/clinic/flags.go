package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"github.com/spf13/cobra"
)

const dateTimeLayout = "2006-01-02 15:04"

// parseWindow разбирает окно вида "3,08:00,12:00" (день недели 1 = воскресенье)
func parseWindow(s string) (model.WindowSpec, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return model.WindowSpec{}, fmt.Errorf("window %q: expected weekday,start,end", s)
	}

	weekday, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return model.WindowSpec{}, fmt.Errorf("window %q: weekday: %w", s, err)
	}

	start, err := model.ParseTimeOfDay(strings.TrimSpace(parts[1]))
	if err != nil {
		return model.WindowSpec{}, fmt.Errorf("window %q: %w", s, err)
	}

	end, err := model.ParseTimeOfDay(strings.TrimSpace(parts[2]))
	if err != nil {
		return model.WindowSpec{}, fmt.Errorf("window %q: %w", s, err)
	}

	return model.WindowSpec{Weekday: weekday, StartTime: start, EndTime: end}, nil
}

func parseWindows(raw []string) ([]model.WindowSpec, error) {
	windows := make([]model.WindowSpec, 0, len(raw))
	for _, s := range raw {
		w, err := parseWindow(s)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// parseDateTime разбирает "YYYY-MM-DD HH:MM" в часовом поясе клиники
func parseDateTime(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateTimeLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: expected %s", s, dateTimeLayout)
	}
	return t, nil
}

// actorFlags кто выполняет команду
type actorFlags struct {
	id   int64
	role string
}

func (f *actorFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.id, "actor-id", 0, "ID of the acting user")
	cmd.Flags().StringVar(&f.role, "actor-role", string(model.RoleAdmin), "role of the acting user: admin, doctor or patient")
}

func (f *actorFlags) actor() (service.Actor, error) {
	role := model.Role(f.role)
	if !role.Valid() {
		return service.Actor{}, fmt.Errorf("unknown role %q", f.role)
	}
	return service.Actor{ID: f.id, Role: role}, nil
}
