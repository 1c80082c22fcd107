package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	args := m.Called(ctx, params)
	msg, _ := args.Get(0).(*models.Message)
	return msg, args.Error(1)
}

func sampleAppointment() model.Appointment {
	return model.Appointment{
		ID:          42,
		PatientID:   7,
		DoctorID:    3,
		Date:        time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		Time:        model.MustParseTimeOfDay("08:30"),
		Status:      model.StatusPending,
		PatientName: "Ana <Lopez>",
		DoctorName:  "Dr. House",
	}
}

func TestTelegramNotifier_Notify(t *testing.T) {
	sender := &mockSender{}
	n := newTelegramNotifier(sender, -100500, zap.NewNop())

	sender.On("SendMessage", mock.Anything, mock.MatchedBy(func(p *bot.SendMessageParams) bool {
		return p.ChatID == int64(-100500) &&
			p.ParseMode == models.ParseModeHTML &&
			strings.Contains(p.Text, "#42") &&
			strings.Contains(p.Text, "08:30-09:00")
	})).Return(&models.Message{ID: 1}, nil).Once()

	err := n.Notify(context.Background(), Event{Type: EventCreated, Appointment: sampleAppointment(), Comment: "checkup"})

	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestTelegramNotifier_NotifyError(t *testing.T) {
	sender := &mockSender{}
	n := newTelegramNotifier(sender, 1, zap.NewNop())

	sender.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("telegram down")).Once()

	err := n.Notify(context.Background(), Event{Type: EventCancelled, Appointment: sampleAppointment()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "notify cancelled")
	assert.Contains(t, err.Error(), "telegram down")
}

func TestFormatEvent(t *testing.T) {
	text := FormatEvent(Event{Type: EventRescheduled, Appointment: sampleAppointment(), Comment: "a < b"})

	assert.Contains(t, text, "Запись перенесена")
	assert.Contains(t, text, "10.06.2025 (Вторник)")
	assert.Contains(t, text, "Ana &lt;Lopez&gt;")
	assert.Contains(t, text, "a &lt; b")
}

func TestFormatDigest(t *testing.T) {
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	a := sampleAppointment()

	empty := FormatDigest(day, nil, 0)
	assert.Contains(t, empty, "Записей нет")

	text := FormatDigest(day, []*model.Appointment{&a}, 3)
	assert.Contains(t, text, "Всего: 3")
	assert.Contains(t, text, "08:30-09:00")
	assert.Contains(t, text, "и ещё 2")
}

func TestGetWeekdayName(t *testing.T) {
	assert.Equal(t, "Воскресенье", GetWeekdayName(1))
	assert.Equal(t, "Суббота", GetWeekdayName(7))
	assert.Equal(t, "Неизвестно", GetWeekdayName(0))
	assert.Equal(t, "Неизвестно", GetWeekdayName(8))
}
