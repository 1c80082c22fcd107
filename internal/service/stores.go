package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/notify"
)

// Зависимости сервисов. Реализуются репозиториями из internal/repository,
// в тестах подменяются хранилищами в памяти.

// Transactor выполняет fn в одной транзакции
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetDoctor(ctx context.Context, id int64) (*model.User, error)
	GetByDNI(ctx context.Context, dni string) (*model.User, error)
	CreateIfAbsent(ctx context.Context, user *model.User) (bool, error)
	Reactivate(ctx context.Context, user *model.User) error
	List(ctx context.Context, q model.UserQuery, page model.PageRequest) (*model.Page[*model.User], error)
	SpecialtiesByDoctor(ctx context.Context, doctorIDs []int64) (map[int64][]model.Specialty, error)
}

type AvailabilityStore interface {
	FindContaining(ctx context.Context, doctorID int64, weekday int, at model.TimeOfDay) ([]*model.AvailabilityWindow, error)
	ListByDoctor(ctx context.Context, doctorID int64) ([]*model.AvailabilityWindow, error)
	Sync(ctx context.Context, doctorID int64, incoming []model.WindowSpec) (*model.SyncResult, error)
	FindDoctorsCovering(ctx context.Context, weekday int, start, end model.TimeOfDay) ([]*model.User, error)
}

type AppointmentStore interface {
	Create(ctx context.Context, a *model.Appointment) error
	AddHistory(ctx context.Context, entry *model.HistoryEntry) error
	GetByID(ctx context.Context, id int64) (*model.Appointment, error)
	GetForUpdate(ctx context.Context, id int64) (*model.Appointment, error)
	History(ctx context.Context, appointmentID int64) ([]*model.HistoryEntry, error)
	LockDoctorDay(ctx context.Context, doctorID int64, date time.Time) error
	ListBookedForDoctorDay(ctx context.Context, doctorID int64, date time.Time) ([]*model.Appointment, error)
	UpdateStatus(ctx context.Context, id int64, status model.AppointmentStatus) error
	Complete(ctx context.Context, id int64, diagnosis string) error
	Reschedule(ctx context.Context, id, doctorID int64, date time.Time, at model.TimeOfDay) error
	List(ctx context.Context, q model.AppointmentQuery, page model.PageRequest) (*model.Page[*model.Appointment], error)
}

// PatientProvisioner находит пациента по DNI или создаёт нового
type PatientProvisioner interface {
	EnsurePatient(ctx context.Context, dni, name string) (*model.User, error)
}

// Notifier получает события после коммита
type Notifier interface {
	Notify(ctx context.Context, event notify.Event) error
}
