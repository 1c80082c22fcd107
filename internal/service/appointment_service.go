package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/notify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Actor пользователь, выполняющий операцию. ID и роль приходят от слоя аутентификации.
type Actor struct {
	ID   int64
	Role model.Role
}

type AppointmentService struct {
	tx           Transactor
	users        UserStore
	availability AvailabilityStore
	appointments AppointmentStore
	patients     PatientProvisioner
	notifier     Notifier
	location     *time.Location
	now          func() time.Time
	logger       *zap.Logger
}

func NewAppointmentService(
	tx Transactor,
	users UserStore,
	availability AvailabilityStore,
	appointments AppointmentStore,
	patients PatientProvisioner,
	notifier Notifier,
	location *time.Location,
	logger *zap.Logger,
) *AppointmentService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if location == nil {
		location = time.UTC
	}

	return &AppointmentService{
		tx:           tx,
		users:        users,
		availability: availability,
		appointments: appointments,
		patients:     patients,
		notifier:     notifier,
		location:     location,
		now:          time.Now,
		logger:       logger,
	}
}

// today текущая дата клиники
func (s *AppointmentService) today() time.Time {
	return model.DateOf(s.now().In(s.location))
}

// CreateAppointmentInput параметры новой записи
type CreateAppointmentInput struct {
	PatientID int64
	DoctorID  int64
	Date      time.Time
	Time      model.TimeOfDay
	Reason    string
	CreatedBy int64
}

func (in CreateAppointmentInput) validate() error {
	if in.PatientID <= 0 {
		return invalid("patient_id", "is required")
	}
	return validateSlotRequest(in.DoctorID, in.Date, in.Reason)
}

func validateSlotRequest(doctorID int64, date time.Time, reason string) error {
	if doctorID <= 0 {
		return invalid("doctor_id", "is required")
	}
	if date.IsZero() {
		return invalid("date", "is required")
	}
	if strings.TrimSpace(reason) == "" {
		return invalid("reason", "is required")
	}
	return nil
}

// CreateAppointment записывает пациента к врачу и возвращает ID приёма
func (s *AppointmentService) CreateAppointment(ctx context.Context, in CreateAppointmentInput) (int64, error) {
	if err := in.validate(); err != nil {
		return 0, err
	}

	var created *model.Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.createInTx(ctx, in)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.afterCreate(ctx, created, in.CreatedBy)

	return created.ID, nil
}

// BookingRequest запрос на запись от пользователя.
// PatientDNI и PatientName обязательны, только когда записывает администратор.
type BookingRequest struct {
	DoctorID    int64
	Date        time.Time
	Time        model.TimeOfDay
	Reason      string
	PatientDNI  string
	PatientName string
}

// BookAppointment записывает на приём от имени actor.
// Пациент записывает себя. Администратор записывает пациента по DNI,
// при необходимости создавая его в той же транзакции.
func (s *AppointmentService) BookAppointment(ctx context.Context, actor Actor, req BookingRequest) (*model.Appointment, error) {
	in := CreateAppointmentInput{
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		Time:      req.Time,
		Reason:    req.Reason,
		CreatedBy: actor.ID,
	}

	switch actor.Role {
	case model.RolePatient:
		in.PatientID = actor.ID
	case model.RoleAdmin:
		if err := validateDNI(strings.TrimSpace(req.PatientDNI)); err != nil {
			return nil, err
		}
		if strings.TrimSpace(req.PatientName) == "" {
			return nil, invalid("patient_name", "is required")
		}
	default:
		return nil, ErrForbidden
	}

	if err := validateSlotRequest(req.DoctorID, req.Date, req.Reason); err != nil {
		return nil, err
	}

	var created *model.Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if actor.Role == model.RoleAdmin {
			patient, err := s.patients.EnsurePatient(ctx, req.PatientDNI, req.PatientName)
			if err != nil {
				return fmt.Errorf("ensure patient: %w", err)
			}
			in.PatientID = patient.ID
		}

		var err error
		created, err = s.createInTx(ctx, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCreate(ctx, created, actor.ID)

	return created, nil
}

func (s *AppointmentService) createInTx(ctx context.Context, in CreateAppointmentInput) (*model.Appointment, error) {
	date := model.DateOf(in.Date)

	if err := s.checkSlot(ctx, in.DoctorID, date, in.Time, 0); err != nil {
		return nil, err
	}

	appointment := &model.Appointment{
		Reference: uuid.New(),
		PatientID: in.PatientID,
		DoctorID:  in.DoctorID,
		Date:      date,
		Time:      in.Time,
		Status:    model.StatusPending,
		Reason:    strings.TrimSpace(in.Reason),
	}

	if err := s.appointments.Create(ctx, appointment); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	err := s.appointments.AddHistory(ctx, &model.HistoryEntry{
		AppointmentID: appointment.ID,
		ChangedBy:     in.CreatedBy,
		Status:        model.StatusPending,
		Comment:       appointment.Reason,
	})
	if err != nil {
		return nil, fmt.Errorf("add history: %w", err)
	}

	return s.reload(ctx, appointment.ID)
}

func (s *AppointmentService) afterCreate(ctx context.Context, a *model.Appointment, actorID int64) {
	s.logger.Info("Appointment created",
		zap.Int64("appointment_id", a.ID),
		zap.Int64("patient_id", a.PatientID),
		zap.Int64("doctor_id", a.DoctorID),
		zap.String("date", model.FormatDate(a.Date)),
		zap.String("time", a.Time.String()),
	)

	s.publish(ctx, notify.Event{Type: notify.EventCreated, Appointment: *a, ActorID: actorID, Comment: a.Reason})
}

// checkSlot проверяет что врач существует, принимает в это время
// и слот не пересекается с другими занятыми приёмами, кроме excludeID.
// Вызывается внутри транзакции: берёт блокировку на день врача.
func (s *AppointmentService) checkSlot(ctx context.Context, doctorID int64, date time.Time, at model.TimeOfDay, excludeID int64) error {
	doctor, err := s.users.GetDoctor(ctx, doctorID)
	if err != nil {
		return fmt.Errorf("get doctor: %w", err)
	}
	if doctor == nil {
		return ErrDoctorNotFound
	}

	windows, err := s.availability.FindContaining(ctx, doctorID, model.WeekdayOf(date), at)
	if err != nil {
		return fmt.Errorf("check availability: %w", err)
	}
	if len(windows) == 0 {
		return ErrOutsideAvailability
	}

	if err := s.appointments.LockDoctorDay(ctx, doctorID, date); err != nil {
		return fmt.Errorf("lock doctor day: %w", err)
	}

	booked, err := s.appointments.ListBookedForDoctorDay(ctx, doctorID, date)
	if err != nil {
		return fmt.Errorf("list booked appointments: %w", err)
	}

	for _, existing := range booked {
		if existing.ID == excludeID {
			continue
		}
		if model.SlotsOverlap(existing.Time, at) {
			return fmt.Errorf("%w: appointment %d at %s", ErrTimeConflict, existing.ID, existing.Time)
		}
	}

	return nil
}

func (s *AppointmentService) reload(ctx context.Context, id int64) (*model.Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if a == nil {
		return nil, ErrAppointmentNotFound
	}
	return a, nil
}

// CancelInput параметры отмены
type CancelInput struct {
	AppointmentID int64
	Actor         Actor
	Comment       string
}

// CancelAppointment отменяет приём. Проверки выполняются по порядку:
// приём существует, не отменён, не завершён, врач отменяет только свой приём,
// отменять могут только администратор и врач.
func (s *AppointmentService) CancelAppointment(ctx context.Context, in CancelInput) error {
	var cancelled *model.Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.appointments.GetForUpdate(ctx, in.AppointmentID)
		if err != nil {
			return fmt.Errorf("get appointment: %w", err)
		}

		switch {
		case a == nil:
			return ErrAppointmentNotFound
		case a.Status == model.StatusCancelled:
			return ErrAlreadyCancelled
		case a.Status == model.StatusCompleted:
			return ErrCannotCancelCompleted
		case in.Actor.Role == model.RoleDoctor && a.DoctorID != in.Actor.ID:
			return ErrNotOwner
		case in.Actor.Role != model.RoleAdmin && in.Actor.Role != model.RoleDoctor:
			return ErrForbidden
		}

		if err := s.appointments.UpdateStatus(ctx, a.ID, model.StatusCancelled); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		err = s.appointments.AddHistory(ctx, &model.HistoryEntry{
			AppointmentID: a.ID,
			ChangedBy:     in.Actor.ID,
			Status:        model.StatusCancelled,
			Comment:       strings.TrimSpace(in.Comment),
		})
		if err != nil {
			return fmt.Errorf("add history: %w", err)
		}

		cancelled, err = s.reload(ctx, a.ID)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("Appointment cancelled",
		zap.Int64("appointment_id", cancelled.ID),
		zap.Int64("changed_by", in.Actor.ID),
		zap.String("role", string(in.Actor.Role)),
	)

	s.publish(ctx, notify.Event{Type: notify.EventCancelled, Appointment: *cancelled, ActorID: in.Actor.ID, Comment: in.Comment})

	return nil
}

// RescheduleInput параметры переноса. DoctorID = 0 оставляет текущего врача.
type RescheduleInput struct {
	AppointmentID int64
	Date          time.Time
	Time          model.TimeOfDay
	DoctorID      int64
	Reason        string
	Actor         Actor
}

// RescheduleAppointment переносит приём, сохраняя его ID.
// Переносить может только администратор.
func (s *AppointmentService) RescheduleAppointment(ctx context.Context, in RescheduleInput) (*model.Appointment, error) {
	if in.Actor.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	if in.Date.IsZero() {
		return nil, invalid("date", "is required")
	}
	if in.DoctorID < 0 {
		return nil, invalid("doctor_id", "must be positive")
	}

	date := model.DateOf(in.Date)

	var (
		updated *model.Appointment
		comment string
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.appointments.GetForUpdate(ctx, in.AppointmentID)
		if err != nil {
			return fmt.Errorf("get appointment: %w", err)
		}
		if a == nil {
			return ErrAppointmentNotFound
		}
		if a.Status == model.StatusCancelled || a.Status == model.StatusCompleted {
			return fmt.Errorf("%w: status is %s", ErrCannotReschedule, a.Status)
		}

		doctorID := a.DoctorID
		if in.DoctorID != 0 {
			doctorID = in.DoctorID
		}

		if err := s.checkSlot(ctx, doctorID, date, in.Time, a.ID); err != nil {
			return err
		}

		if err := s.appointments.Reschedule(ctx, a.ID, doctorID, date, in.Time); err != nil {
			return fmt.Errorf("reschedule appointment: %w", err)
		}

		comment = fmt.Sprintf("Rescheduled to %s at %s with doctor ID %d", model.FormatDate(date), in.Time, doctorID)
		if reason := strings.TrimSpace(in.Reason); reason != "" {
			comment += ": " + reason
		}

		err = s.appointments.AddHistory(ctx, &model.HistoryEntry{
			AppointmentID: a.ID,
			ChangedBy:     in.Actor.ID,
			Status:        model.StatusRescheduled,
			Comment:       comment,
		})
		if err != nil {
			return fmt.Errorf("add history: %w", err)
		}

		updated, err = s.reload(ctx, a.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Appointment rescheduled",
		zap.Int64("appointment_id", updated.ID),
		zap.Int64("doctor_id", updated.DoctorID),
		zap.String("date", model.FormatDate(updated.Date)),
		zap.String("time", updated.Time.String()),
		zap.Int64("changed_by", in.Actor.ID),
	)

	s.publish(ctx, notify.Event{Type: notify.EventRescheduled, Appointment: *updated, ActorID: in.Actor.ID, Comment: comment})

	return updated, nil
}

// ConfirmAppointment подтверждает ожидающий или перенесённый приём
func (s *AppointmentService) ConfirmAppointment(ctx context.Context, appointmentID int64, actor Actor, comment string) error {
	return s.transition(ctx, appointmentID, actor, model.StatusConfirmed, comment, func(ctx context.Context, a *model.Appointment) error {
		if a.Status != model.StatusPending && a.Status != model.StatusRescheduled {
			return fmt.Errorf("%w: status is %s", ErrCannotConfirm, a.Status)
		}
		return s.appointments.UpdateStatus(ctx, a.ID, model.StatusConfirmed)
	})
}

// CompleteAppointment отмечает приём состоявшимся и сохраняет диагноз
func (s *AppointmentService) CompleteAppointment(ctx context.Context, appointmentID int64, actor Actor, diagnosis string) error {
	diagnosis = strings.TrimSpace(diagnosis)

	return s.transition(ctx, appointmentID, actor, model.StatusCompleted, diagnosis, func(ctx context.Context, a *model.Appointment) error {
		if !a.IsBooked() {
			return fmt.Errorf("%w: status is %s", ErrCannotComplete, a.Status)
		}
		return s.appointments.Complete(ctx, a.ID, diagnosis)
	})
}

// transition общая схема смены статуса врачом или администратором:
// блокировка строки, проверка прав, apply, запись в журнал
func (s *AppointmentService) transition(
	ctx context.Context,
	appointmentID int64,
	actor Actor,
	status model.AppointmentStatus,
	comment string,
	apply func(ctx context.Context, a *model.Appointment) error,
) error {
	var updated *model.Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.appointments.GetForUpdate(ctx, appointmentID)
		if err != nil {
			return fmt.Errorf("get appointment: %w", err)
		}
		if a == nil {
			return ErrAppointmentNotFound
		}

		switch actor.Role {
		case model.RoleAdmin:
		case model.RoleDoctor:
			if a.DoctorID != actor.ID {
				return ErrNotOwner
			}
		default:
			return ErrForbidden
		}

		if err := apply(ctx, a); err != nil {
			return err
		}

		err = s.appointments.AddHistory(ctx, &model.HistoryEntry{
			AppointmentID: a.ID,
			ChangedBy:     actor.ID,
			Status:        status,
			Comment:       comment,
		})
		if err != nil {
			return fmt.Errorf("add history: %w", err)
		}

		updated, err = s.reload(ctx, a.ID)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("Appointment status changed",
		zap.Int64("appointment_id", updated.ID),
		zap.String("status", string(status)),
		zap.Int64("changed_by", actor.ID),
	)

	eventType := notify.EventConfirmed
	if status == model.StatusCompleted {
		eventType = notify.EventCompleted
	}
	s.publish(ctx, notify.Event{Type: eventType, Appointment: *updated, ActorID: actor.ID, Comment: comment})

	return nil
}

// GetAppointmentDetail возвращает приём с журналом.
// Пациент и врач видят только свои приёмы.
func (s *AppointmentService) GetAppointmentDetail(ctx context.Context, appointmentID int64, actor Actor) (*model.Appointment, error) {
	a, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if a == nil {
		return nil, ErrAppointmentNotFound
	}

	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleDoctor:
		if a.DoctorID != actor.ID {
			return nil, ErrForbidden
		}
	case model.RolePatient:
		if a.PatientID != actor.ID {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}

	history, err := s.appointments.History(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	a.History = history

	return a, nil
}

// ListAppointmentsInput фильтры списка приёмов. Пустая дата означает сегодня.
type ListAppointmentsInput struct {
	Actor      Actor
	Status     string
	DoctorName string
	Date       *time.Time
	Time       *model.TimeOfDay
	Page       int
	Limit      int
}

// ListAppointments возвращает страницу приёмов, видимых actor
func (s *AppointmentService) ListAppointments(ctx context.Context, in ListAppointmentsInput) (*model.Page[*model.Appointment], error) {
	if in.Page < 0 {
		return nil, invalid("page", "must be at least 1")
	}
	if in.Limit < 0 {
		return nil, invalid("limit", "must be at least 1")
	}

	q := model.AppointmentQuery{
		DoctorName: strings.TrimSpace(in.DoctorName),
		Time:       in.Time,
	}

	if in.Status != "" {
		status, err := model.ParseAppointmentStatus(in.Status)
		if err != nil {
			return nil, invalid("status", err.Error())
		}
		q.Status = status
	}

	date := s.today()
	if in.Date != nil {
		date = model.DateOf(*in.Date)
	}
	q.Date = &date

	actorID := in.Actor.ID
	switch in.Actor.Role {
	case model.RoleAdmin:
	case model.RoleDoctor:
		q.DoctorID = &actorID
	case model.RolePatient:
		q.PatientID = &actorID
	default:
		return nil, ErrForbidden
	}

	page, err := s.appointments.List(ctx, q, model.PageRequest{Page: in.Page, Limit: in.Limit})
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	return page, nil
}

// publish отправляет событие после коммита; ошибка доставки операцию не ломает
func (s *AppointmentService) publish(ctx context.Context, event notify.Event) {
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Warn("Failed to send notification",
			zap.String("event", string(event.Type)),
			zap.Int64("appointment_id", event.Appointment.ID),
			zap.Error(err),
		)
	}
}
