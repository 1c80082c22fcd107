package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
)

// StatusDisplay отображение статуса приёма
type StatusDisplay struct {
	Emoji string
	Text  string
}

// GetStatusDisplay возвращает emoji и текст для статуса приёма
func GetStatusDisplay(status model.AppointmentStatus) StatusDisplay {
	displays := map[model.AppointmentStatus]StatusDisplay{
		model.StatusPending:     {"⏳", "Ожидает подтверждения"},
		model.StatusConfirmed:   {"✅", "Подтверждён"},
		model.StatusRescheduled: {"🔁", "Перенесён"},
		model.StatusCancelled:   {"❌", "Отменён"},
		model.StatusCompleted:   {"✔️", "Завершён"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Неизвестно"}
}

var eventTitles = map[EventType]string{
	EventCreated:     "🆕 Новая запись",
	EventCancelled:   "❌ Запись отменена",
	EventRescheduled: "🔁 Запись перенесена",
	EventConfirmed:   "✅ Запись подтверждена",
	EventCompleted:   "✔️ Приём завершён",
}

// GetWeekdayName возвращает название дня недели по номеру 1 (воскресенье) .. 7 (суббота)
func GetWeekdayName(weekday int) string {
	names := []string{
		"Воскресенье",
		"Понедельник",
		"Вторник",
		"Среда",
		"Четверг",
		"Пятница",
		"Суббота",
	}
	if weekday >= model.MinWeekday && weekday <= model.MaxWeekday {
		return names[weekday-1]
	}
	return "Неизвестно"
}

// FormatDate форматирует дату приёма с днём недели
func FormatDate(d time.Time) string {
	return fmt.Sprintf("%s (%s)", d.Format("02.01.2006"), GetWeekdayName(model.WeekdayOf(d)))
}

// FormatSlot форматирует интервал приёма
func FormatSlot(a *model.Appointment) string {
	return fmt.Sprintf("%s-%s", a.Time, a.End())
}

// FormatEvent собирает HTML-сообщение о событии
func FormatEvent(e Event) string {
	a := e.Appointment
	status := GetStatusDisplay(a.Status)

	title, ok := eventTitles[e.Type]
	if !ok {
		title = "ℹ️ Изменение записи"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>%s</b> #%d\n\n", title, a.ID))
	sb.WriteString(fmt.Sprintf("📅 %s, %s\n", FormatDate(a.Date), FormatSlot(&a)))
	sb.WriteString(fmt.Sprintf("👨‍⚕️ Врач: %s\n", displayName(a.DoctorName, a.DoctorID)))
	sb.WriteString(fmt.Sprintf("🧑 Пациент: %s\n", displayName(a.PatientName, a.PatientID)))
	sb.WriteString(fmt.Sprintf("%s %s\n", status.Emoji, status.Text))

	if e.Comment != "" {
		sb.WriteString(fmt.Sprintf("\n💬 %s\n", html.EscapeString(e.Comment)))
	}

	return sb.String()
}

// FormatDigest собирает сводку приёмов на день
func FormatDigest(day time.Time, appointments []*model.Appointment, total int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>📋 Приёмы на %s</b>\n", FormatDate(day)))

	if total == 0 {
		sb.WriteString("\nЗаписей нет")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Всего: %d\n\n", total))
	for _, a := range appointments {
		status := GetStatusDisplay(a.Status)
		sb.WriteString(fmt.Sprintf("%s %s %s → %s\n",
			status.Emoji,
			FormatSlot(a),
			displayName(a.PatientName, a.PatientID),
			displayName(a.DoctorName, a.DoctorID),
		))
	}

	if rest := total - len(appointments); rest > 0 {
		sb.WriteString(fmt.Sprintf("\n…и ещё %d", rest))
	}

	return sb.String()
}

func displayName(name string, id int64) string {
	if name == "" {
		return fmt.Sprintf("ID %d", id)
	}
	return html.EscapeString(name)
}
