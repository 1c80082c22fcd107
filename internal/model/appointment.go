package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SlotDuration фиксированная длительность любого приёма (в БД не хранится)
const SlotDuration = 30 * time.Minute

type AppointmentStatus string

const (
	StatusPending     AppointmentStatus = "pending"     // Создана, ждёт подтверждения
	StatusConfirmed   AppointmentStatus = "confirmed"   // Подтверждена
	StatusRescheduled AppointmentStatus = "rescheduled" // Перенесена
	StatusCancelled   AppointmentStatus = "cancelled"   // Отменена
	StatusCompleted   AppointmentStatus = "completed"   // Приём состоялся
)

// ParseAppointmentStatus проверяет строку статуса
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	switch st := AppointmentStatus(s); st {
	case StatusPending, StatusConfirmed, StatusRescheduled, StatusCancelled, StatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

type Appointment struct {
	ID        int64             `json:"id"`
	Reference uuid.UUID         `json:"reference"`
	PatientID int64             `json:"patient_id"`
	DoctorID  int64             `json:"doctor_id"`
	Date      time.Time         `json:"date"`
	Time      TimeOfDay         `json:"time"`
	Status    AppointmentStatus `json:"status"`
	Reason    string            `json:"reason"`
	Diagnosis string            `json:"diagnosis"`
	IsDeleted bool              `json:"is_deleted"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`

	// Дополнительные поля для удобства (не из таблицы appointments)
	PatientName string          `json:"patient_name,omitempty"`
	DoctorName  string          `json:"doctor_name,omitempty"`
	History     []*HistoryEntry `json:"history,omitempty"`
}

// End возвращает время окончания приёма
func (a *Appointment) End() TimeOfDay {
	return a.Time.Add(SlotDuration)
}

// IsBooked сообщает, занимает ли приём время врача.
// Отменённые и завершённые приёмы в проверке пересечений не участвуют.
func (a *Appointment) IsBooked() bool {
	if a.IsDeleted {
		return false
	}
	switch a.Status {
	case StatusPending, StatusConfirmed, StatusRescheduled:
		return true
	}
	return false
}

// BookedStatuses статусы, занимающие время врача
var BookedStatuses = []AppointmentStatus{StatusPending, StatusConfirmed, StatusRescheduled}

// SlotsOverlap проверяет пересечение слота существующего приёма с новым слотом,
// оба длительностью SlotDuration. Конфликт, если существующий приём начинается
// внутри [newStart, newEnd) либо начался раньше и ещё идёт в newStart.
// Интервалы считаются без перехода через полночь.
func SlotsOverlap(existing, newStart TimeOfDay) bool {
	slot := int(SlotDuration / time.Second)
	e, s := existing.Seconds(), newStart.Seconds()
	newEnd := s + slot
	return (e >= s && e < newEnd) || (e+slot > s && e <= s)
}

// HistoryEntry запись журнала изменений статуса приёма
type HistoryEntry struct {
	ID            int64             `json:"id"`
	AppointmentID int64             `json:"appointment_id"`
	ChangedBy     int64             `json:"changed_by"`
	ChangedByName string            `json:"changed_by_name,omitempty"`
	Status        AppointmentStatus `json:"status"`
	Comment       string            `json:"comment"`
	CreatedAt     time.Time         `json:"created_at"`
}

// AppointmentQuery фильтры списка приёмов.
// Пустые поля не фильтруют.
type AppointmentQuery struct {
	Status     AppointmentStatus
	DoctorName string
	Date       *time.Time
	Time       *TimeOfDay
	PatientID  *int64
	DoctorID   *int64
}
