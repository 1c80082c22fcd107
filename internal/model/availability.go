package model

import (
	"fmt"
	"time"
)

const (
	MinWeekday = 1 // Sunday
	MaxWeekday = 7 // Saturday
)

// AvailabilityWindow еженедельное окно приёма врача
type AvailabilityWindow struct {
	ID        int64     `json:"id"`
	DoctorID  int64     `json:"doctor_id"`
	Weekday   int       `json:"weekday"` // 1 = Sunday, 7 = Saturday
	StartTime TimeOfDay `json:"start_time"`
	EndTime   TimeOfDay `json:"end_time"`
	IsDeleted bool      `json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contains проверяет попадание момента начала приёма в окно (границы включительно).
// Конец приёма не проверяется: запись в 11:45 в окно до 12:00 допустима.
func (w *AvailabilityWindow) Contains(t TimeOfDay) bool {
	return w.StartTime <= t && w.EndTime >= t
}

// Covers проверяет что окно целиком покрывает интервал [start, end]
func (w *AvailabilityWindow) Covers(start, end TimeOfDay) bool {
	return w.StartTime <= start && w.EndTime >= end
}

func (w *AvailabilityWindow) Key() WindowSpec {
	return WindowSpec{Weekday: w.Weekday, StartTime: w.StartTime, EndTime: w.EndTime}
}

// WindowSpec входное описание окна для синхронизации.
// Совпадение окон определяется точным равенством всех трёх полей.
type WindowSpec struct {
	Weekday   int       `json:"weekday"`
	StartTime TimeOfDay `json:"start_time"`
	EndTime   TimeOfDay `json:"end_time"`
}

func (s WindowSpec) Validate() error {
	if s.Weekday < MinWeekday || s.Weekday > MaxWeekday {
		return fmt.Errorf("weekday must be between %d and %d, got %d", MinWeekday, MaxWeekday, s.Weekday)
	}
	if s.StartTime >= s.EndTime {
		return fmt.Errorf("start time %s must be before end time %s", s.StartTime, s.EndTime)
	}
	return nil
}

func (s WindowSpec) String() string {
	return fmt.Sprintf("%d %s-%s", s.Weekday, s.StartTime, s.EndTime)
}

// SyncResult итог синхронизации окон врача
type SyncResult struct {
	Inserted    int `json:"inserted"`
	Reactivated int `json:"reactivated"`
	Deleted     int `json:"deleted"`
}
