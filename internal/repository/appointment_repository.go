package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/repository/base"
	"github.com/Freeeeeet/clinic_scheduler/internal/repository/query"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const appointmentColumns = `
	a.id, a.reference, a.patient_id, a.doctor_id, a.appointment_date, a.appointment_time,
	a.status, COALESCE(a.current_reason, ''), COALESCE(a.current_diagnosis, ''),
	a.is_deleted, a.created_at, a.updated_at, p.name, d.name`

const appointmentFrom = `
	appointments a
	JOIN users p ON p.id = a.patient_id
	JOIN users d ON d.id = a.doctor_id`

type AppointmentRepository struct {
	*base.Repository
}

func NewAppointmentRepository(pool *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{Repository: base.NewRepository(pool)}
}

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID,
		&a.Reference,
		&a.PatientID,
		&a.DoctorID,
		&a.Date,
		&a.Time,
		&a.Status,
		&a.Reason,
		&a.Diagnosis,
		&a.IsDeleted,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.PatientName,
		&a.DoctorName,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create создаёт приём
func (r *AppointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	query := `
		INSERT INTO appointments (reference, patient_id, doctor_id, appointment_date, appointment_time, status, current_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, is_deleted, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		a.Reference,
		a.PatientID,
		a.DoctorID,
		a.Date,
		a.Time,
		a.Status,
		a.Reason,
	).Scan(&a.ID, &a.IsDeleted, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}

	return nil
}

// AddHistory добавляет запись в журнал приёма
func (r *AppointmentRepository) AddHistory(ctx context.Context, entry *model.HistoryEntry) error {
	query := `
		INSERT INTO appointment_history (appointment_id, changed_by, status, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, entry.AppointmentID, entry.ChangedBy, entry.Status, entry.Comment).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("add appointment history: %w", err)
	}

	return nil
}

// GetByID получает не удалённый приём по ID
func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM ` + appointmentFrom + `
		WHERE a.id = $1 AND a.is_deleted = false`

	a, err := scanAppointment(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment by id: %w", err)
	}

	return a, nil
}

// GetForUpdate получает приём и блокирует строку до конца транзакции
func (r *AppointmentRepository) GetForUpdate(ctx context.Context, id int64) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM ` + appointmentFrom + `
		WHERE a.id = $1 AND a.is_deleted = false
		FOR UPDATE OF a`

	a, err := scanAppointment(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment for update: %w", err)
	}

	return a, nil
}

// History возвращает журнал приёма в порядке записи
func (r *AppointmentRepository) History(ctx context.Context, appointmentID int64) ([]*model.HistoryEntry, error) {
	query := `
		SELECT h.id, h.appointment_id, h.changed_by, COALESCE(u.name, ''), h.status, COALESCE(h.comment, ''), h.created_at
		FROM appointment_history h
		LEFT JOIN users u ON u.id = h.changed_by
		WHERE h.appointment_id = $1
		ORDER BY h.created_at ASC, h.id ASC
	`

	rows, err := r.Query(ctx, query, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("get appointment history: %w", err)
	}
	defer rows.Close()

	var history []*model.HistoryEntry
	for rows.Next() {
		var h model.HistoryEntry
		err := rows.Scan(&h.ID, &h.AppointmentID, &h.ChangedBy, &h.ChangedByName, &h.Status, &h.Comment, &h.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		history = append(history, &h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return history, nil
}

// LockDoctorDay берёт advisory-блокировку на (врач, дата) до конца транзакции.
// Все проверки пересечений для одного врача и дня выполняются последовательно.
func (r *AppointmentRepository) LockDoctorDay(ctx context.Context, doctorID int64, date time.Time) error {
	key := fmt.Sprintf("appointments:doctor:%d:%s", doctorID, model.FormatDate(date))
	if err := r.XactLock(ctx, key); err != nil {
		return fmt.Errorf("lock doctor day: %w", err)
	}

	return nil
}

// ListBookedForDoctorDay возвращает приёмы врача на дату, занимающие его время
func (r *AppointmentRepository) ListBookedForDoctorDay(ctx context.Context, doctorID int64, date time.Time) ([]*model.Appointment, error) {
	statuses := make([]string, len(model.BookedStatuses))
	for i, s := range model.BookedStatuses {
		statuses[i] = string(s)
	}

	query := `SELECT ` + appointmentColumns + ` FROM ` + appointmentFrom + `
		WHERE a.doctor_id = $1
		  AND a.appointment_date = $2
		  AND a.status = ANY($3)
		  AND a.is_deleted = false
		ORDER BY a.appointment_time`

	rows, err := r.Query(ctx, query, doctorID, date, statuses)
	if err != nil {
		return nil, fmt.Errorf("list booked appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}

	return appointments, nil
}

// UpdateStatus обновляет статус приёма
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id int64, status model.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND is_deleted = false
	`

	n, err := r.ExecAffected(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("appointment not found")
	}

	return nil
}

// Complete завершает приём и сохраняет диагноз
func (r *AppointmentRepository) Complete(ctx context.Context, id int64, diagnosis string) error {
	query := `
		UPDATE appointments
		SET status = $1, current_diagnosis = $2, updated_at = NOW()
		WHERE id = $3 AND is_deleted = false
	`

	n, err := r.ExecAffected(ctx, query, model.StatusCompleted, diagnosis, id)
	if err != nil {
		return fmt.Errorf("complete appointment: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("appointment not found")
	}

	return nil
}

// Reschedule переносит приём на новые дату, время и врача
func (r *AppointmentRepository) Reschedule(ctx context.Context, id, doctorID int64, date time.Time, at model.TimeOfDay) error {
	query := `
		UPDATE appointments
		SET doctor_id = $1, appointment_date = $2, appointment_time = $3, status = $4, updated_at = NOW()
		WHERE id = $5 AND is_deleted = false
	`

	n, err := r.ExecAffected(ctx, query, doctorID, date, at, model.StatusRescheduled, id)
	if err != nil {
		return fmt.Errorf("reschedule appointment: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("appointment not found")
	}

	return nil
}

func appointmentFilter(q model.AppointmentQuery) query.Filter {
	f := query.Filter{}.Where("a.is_deleted = false")

	if q.Status != "" {
		f = f.Where("a.status = ?", q.Status)
	}
	if q.DoctorName != "" {
		f = f.Where("d.name ILIKE ?", "%"+q.DoctorName+"%")
	}
	if q.Date != nil {
		f = f.Where("a.appointment_date = ?", *q.Date)
	}
	if q.Time != nil {
		f = f.Where("a.appointment_time = ?", *q.Time)
	}
	if q.DoctorID != nil {
		f = f.Where("a.doctor_id = ?", *q.DoctorID)
	}
	if q.PatientID != nil {
		f = f.Where("a.patient_id = ?", *q.PatientID)
	}

	return f
}

var appointmentSource = query.Source{
	Columns: appointmentColumns,
	From:    appointmentFrom,
	OrderBy: "a.appointment_date DESC, a.appointment_time DESC, a.id DESC",
}

// List возвращает страницу приёмов по фильтрам
func (r *AppointmentRepository) List(ctx context.Context, q model.AppointmentQuery, page model.PageRequest) (*model.Page[*model.Appointment], error) {
	result, err := query.Paginate(ctx, r.Conn(ctx), appointmentSource, appointmentFilter(q), page, scanAppointment)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return result, nil
}
