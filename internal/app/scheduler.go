package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/notify"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"go.uber.org/zap"
)

// digestLimit сколько приёмов попадает в текст сводки
const digestLimit = 50

type agendaLister interface {
	ListAppointments(ctx context.Context, in service.ListAppointmentsInput) (*model.Page[*model.Appointment], error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	agenda     agendaLister
	sender     notify.TextSender
	location   *time.Location
	digestHour int
	interval   time.Duration
	now        func() time.Time
	lastSent   time.Time
	logger     *zap.Logger
	stopChan   chan struct{}
	stopOnce   sync.Once
}

// NewScheduler создаёт планировщик ежедневной сводки приёмов
func NewScheduler(agenda agendaLister, sender notify.TextSender, location *time.Location, digestHour int, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		agenda:     agenda,
		sender:     sender,
		location:   location,
		digestHour: digestHour,
		interval:   time.Minute,
		now:        time.Now,
		logger:     logger,
		stopChan:   make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Int("digest_hour", s.digestHour))

	go s.runDigestTask(ctx)
}

// Stop останавливает фоновые задачи; повторный вызов ничего не делает
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
}

func (s *Scheduler) runDigestTask(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-s.stopChan:
			s.logger.Info("Digest task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Digest task cancelled")
			return
		}
	}
}

// tick отправляет сводку, если наступил час рассылки и сегодня она ещё не ушла
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now().In(s.location)
	day := model.DateOf(now)

	if now.Hour() < s.digestHour || !s.lastSent.Before(day) {
		return
	}

	if err := s.SendDigest(ctx); err != nil {
		s.logger.Error("Failed to send daily digest", zap.Error(err))
		return
	}

	s.lastSent = day
}

// SendDigest отправляет сводку приёмов на сегодня
func (s *Scheduler) SendDigest(ctx context.Context) error {
	page, err := s.agenda.ListAppointments(ctx, service.ListAppointmentsInput{
		Actor: service.Actor{Role: model.RoleAdmin},
		Limit: digestLimit,
	})
	if err != nil {
		return fmt.Errorf("list today appointments: %w", err)
	}

	day := model.DateOf(s.now().In(s.location))
	if err := s.sender.SendText(ctx, notify.FormatDigest(day, page.Data, page.Total)); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}

	s.logger.Info("Daily digest sent",
		zap.String("date", model.FormatDate(day)),
		zap.Int("appointments", page.Total),
	)

	return nil
}
