// Package notify доставляет события о приёмах персоналу клиники.
package notify

import (
	"context"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
)

type EventType string

const (
	EventCreated     EventType = "created"
	EventCancelled   EventType = "cancelled"
	EventRescheduled EventType = "rescheduled"
	EventConfirmed   EventType = "confirmed"
	EventCompleted   EventType = "completed"
)

// Event изменение приёма, уже зафиксированное в БД
type Event struct {
	Type        EventType
	Appointment model.Appointment
	ActorID     int64
	Comment     string
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// TextSender отправляет произвольный текст (используется дайджестом)
type TextSender interface {
	SendText(ctx context.Context, text string) error
}

// Nop используется когда Telegram не настроен
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

func (Nop) SendText(context.Context, string) error { return nil }
