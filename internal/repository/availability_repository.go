package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const windowColumns = `id, doctor_id, weekday, start_time, end_time, is_deleted, created_at, updated_at`

type AvailabilityRepository struct {
	*base.Repository
}

func NewAvailabilityRepository(pool *pgxpool.Pool) *AvailabilityRepository {
	return &AvailabilityRepository{Repository: base.NewRepository(pool)}
}

func scanWindow(row pgx.Row) (*model.AvailabilityWindow, error) {
	var w model.AvailabilityWindow
	err := row.Scan(
		&w.ID,
		&w.DoctorID,
		&w.Weekday,
		&w.StartTime,
		&w.EndTime,
		&w.IsDeleted,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *AvailabilityRepository) queryWindows(ctx context.Context, query string, args ...any) ([]*model.AvailabilityWindow, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []*model.AvailabilityWindow
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan window: %w", err)
		}
		windows = append(windows, w)
	}

	return windows, rows.Err()
}

// FindContaining возвращает активные окна врача в этот день недели,
// внутри которых (включительно) лежит момент at
func (r *AvailabilityRepository) FindContaining(ctx context.Context, doctorID int64, weekday int, at model.TimeOfDay) ([]*model.AvailabilityWindow, error) {
	query := `
		SELECT ` + windowColumns + `
		FROM doctor_availabilities
		WHERE doctor_id = $1
		  AND weekday = $2
		  AND start_time <= $3
		  AND end_time >= $3
		  AND is_deleted = false
		ORDER BY start_time
	`

	windows, err := r.queryWindows(ctx, query, doctorID, weekday, at)
	if err != nil {
		return nil, fmt.Errorf("find containing windows: %w", err)
	}

	return windows, nil
}

// ListByDoctor возвращает активные окна врача
func (r *AvailabilityRepository) ListByDoctor(ctx context.Context, doctorID int64) ([]*model.AvailabilityWindow, error) {
	query := `
		SELECT ` + windowColumns + `
		FROM doctor_availabilities
		WHERE doctor_id = $1 AND is_deleted = false
		ORDER BY weekday, start_time, end_time
	`

	windows, err := r.queryWindows(ctx, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list windows by doctor: %w", err)
	}

	return windows, nil
}

// Sync приводит окна врача к списку incoming.
// Должен вызываться внутри транзакции: берёт блокировку по врачу, затем его строки FOR UPDATE.
func (r *AvailabilityRepository) Sync(ctx context.Context, doctorID int64, incoming []model.WindowSpec) (*model.SyncResult, error) {
	// блокировка по врачу сериализует Sync и для врача без окон
	if err := r.XactLock(ctx, fmt.Sprintf("availability:doctor:%d", doctorID)); err != nil {
		return nil, fmt.Errorf("lock doctor windows: %w", err)
	}

	current, err := r.queryWindows(ctx, `
		SELECT `+windowColumns+`
		FROM doctor_availabilities
		WHERE doctor_id = $1
		ORDER BY id
		FOR UPDATE
	`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("lock doctor windows: %w", err)
	}

	plan := planSync(current, incoming)
	result := &model.SyncResult{}

	if len(plan.Delete) > 0 {
		n, err := r.ExecAffected(ctx, `
			UPDATE doctor_availabilities
			SET is_deleted = true, updated_at = NOW()
			WHERE id = ANY($1)
		`, plan.Delete)
		if err != nil {
			return nil, fmt.Errorf("delete windows: %w", err)
		}
		result.Deleted = int(n)
	}

	if len(plan.Reactivate) > 0 {
		n, err := r.ExecAffected(ctx, `
			UPDATE doctor_availabilities
			SET is_deleted = false, updated_at = NOW()
			WHERE id = ANY($1)
		`, plan.Reactivate)
		if err != nil {
			return nil, fmt.Errorf("reactivate windows: %w", err)
		}
		result.Reactivated = int(n)
	}

	for _, spec := range plan.Insert {
		_, err := r.ExecAffected(ctx, `
			INSERT INTO doctor_availabilities (doctor_id, weekday, start_time, end_time)
			VALUES ($1, $2, $3, $4)
		`, doctorID, spec.Weekday, spec.StartTime, spec.EndTime)
		if err != nil {
			return nil, fmt.Errorf("insert window %s: %w", spec, err)
		}
		result.Inserted++
	}

	return result, nil
}

// FindDoctorsCovering возвращает активных врачей, у которых есть окно,
// целиком покрывающее [start, end] в указанный день недели
func (r *AvailabilityRepository) FindDoctorsCovering(ctx context.Context, weekday int, start, end model.TimeOfDay) ([]*model.User, error) {
	query := `
		SELECT DISTINCT ` + userColumns + `
		FROM users u
		JOIN doctor_availabilities da ON da.doctor_id = u.id
		WHERE u.role = $1
		  AND u.is_deleted = false
		  AND da.is_deleted = false
		  AND da.weekday = $2
		  AND da.start_time <= $3
		  AND da.end_time >= $4
		ORDER BY u.name, u.id
	`

	rows, err := r.Query(ctx, query, model.RoleDoctor, weekday, start, end)
	if err != nil {
		return nil, fmt.Errorf("find doctors covering: %w", err)
	}
	defer rows.Close()

	var doctors []*model.User
	for rows.Next() {
		doctor, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan doctor: %w", err)
		}
		doctors = append(doctors, doctor)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate doctors: %w", err)
	}

	return doctors, nil
}
