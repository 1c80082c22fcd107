package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"go.uber.org/zap"
)

type AvailabilityService struct {
	tx           Transactor
	users        UserStore
	availability AvailabilityStore
	logger       *zap.Logger
}

func NewAvailabilityService(tx Transactor, users UserStore, availability AvailabilityStore, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		tx:           tx,
		users:        users,
		availability: availability,
		logger:       logger,
	}
}

// SyncAvailability заменяет недельное расписание врача списком windows.
// Повторный вызов с тем же списком ничего не меняет.
func (s *AvailabilityService) SyncAvailability(ctx context.Context, doctorID int64, windows []model.WindowSpec) (*model.SyncResult, error) {
	for i, w := range windows {
		if err := w.Validate(); err != nil {
			return nil, invalid(fmt.Sprintf("windows[%d]", i), err.Error())
		}
	}

	var result *model.SyncResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		doctor, err := s.users.GetDoctor(ctx, doctorID)
		if err != nil {
			return fmt.Errorf("get doctor: %w", err)
		}
		if doctor == nil {
			return ErrDoctorNotFound
		}

		result, err = s.availability.Sync(ctx, doctorID, windows)
		if err != nil {
			return fmt.Errorf("sync availability: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Availability synced",
		zap.Int64("doctor_id", doctorID),
		zap.Int("inserted", result.Inserted),
		zap.Int("reactivated", result.Reactivated),
		zap.Int("deleted", result.Deleted),
	)

	return result, nil
}

// ListAvailability возвращает активные окна врача
func (s *AvailabilityService) ListAvailability(ctx context.Context, doctorID int64) ([]*model.AvailabilityWindow, error) {
	doctor, err := s.users.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	windows, err := s.availability.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}

	return windows, nil
}

// FindAvailableDoctors ищет врачей, чьё окно целиком покрывает [start, end].
// Интервал должен лежать в пределах одного дня.
func (s *AvailabilityService) FindAvailableDoctors(ctx context.Context, start, end time.Time) ([]*model.User, error) {
	if !start.Before(end) {
		return nil, invalid("end", "must be after start")
	}
	if !model.DateOf(start).Equal(model.DateOf(end)) {
		return nil, invalid("end", "must be on the same day as start")
	}

	doctors, err := s.availability.FindDoctorsCovering(ctx, model.WeekdayOf(start), model.TimeOfDayOf(start), model.TimeOfDayOf(end))
	if err != nil {
		return nil, fmt.Errorf("find doctors: %w", err)
	}

	if len(doctors) == 0 {
		return doctors, nil
	}

	ids := make([]int64, len(doctors))
	for i, d := range doctors {
		ids[i] = d.ID
	}

	specialties, err := s.users.SpecialtiesByDoctor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get specialties: %w", err)
	}

	for _, d := range doctors {
		d.Specialties = specialties[d.ID]
	}

	return doctors, nil
}
