package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// DateLayout формат даты приёма (YYYY-MM-DD)
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// ParseDate разбирает дату в формате YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}

// DateOf возвращает календарную дату t (в её часовом поясе) как полночь UTC
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate форматирует дату приёма
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// WeekdayOf возвращает день недели в кодировке расписаний врачей:
// Sunday = 1 ... Saturday = 7 (time.Weekday + 1).
func WeekdayOf(d time.Time) int {
	return int(d.Weekday()) + 1
}

// TimeOfDay время суток в секундах от полуночи.
// Хранится в колонках TIME.
type TimeOfDay int

// NewTimeOfDay собирает время из часов, минут и секунд
func NewTimeOfDay(hour, minute, second int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return 0, fmt.Errorf("invalid time of day %02d:%02d:%02d", hour, minute, second)
	}
	return TimeOfDay(hour*3600 + minute*60 + second), nil
}

// ParseTimeOfDay разбирает "HH:MM" или "HH:MM:SS"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimeOfDay(t.Hour(), t.Minute(), t.Second())
		}
	}
	return 0, fmt.Errorf("parse time %q: expected HH:MM or HH:MM:SS", s)
}

// MustParseTimeOfDay как ParseTimeOfDay, но паникует при ошибке.
// Используется для констант и в тестах.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// TimeOfDayOf возвращает время суток t в его часовом поясе
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

// Add сдвигает время на d с переходом через полночь
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	sec := (int(t) + int(d/time.Second)) % secondsPerDay
	if sec < 0 {
		sec += secondsPerDay
	}
	return TimeOfDay(sec)
}

// Seconds возвращает количество секунд от полуночи
func (t TimeOfDay) Seconds() int {
	return int(t)
}

func (t TimeOfDay) String() string {
	h, m, s := int(t)/3600, int(t)%3600/60, int(t)%60
	if s == 0 {
		return fmt.Sprintf("%02d:%02d", h, m)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// MarshalJSON кодирует время строкой "HH:MM"
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON принимает "HH:MM" или "HH:MM:SS"
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("time of day must be a string: %w", err)
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ScanTime реализует pgtype.TimeScanner
func (t *TimeOfDay) ScanTime(v pgtype.Time) error {
	if !v.Valid {
		return fmt.Errorf("cannot scan NULL into TimeOfDay")
	}
	*t = TimeOfDay(v.Microseconds / 1_000_000)
	return nil
}

// TimeValue реализует pgtype.TimeValuer
func (t TimeOfDay) TimeValue() (pgtype.Time, error) {
	return pgtype.Time{Microseconds: int64(t) * 1_000_000, Valid: true}, nil
}
