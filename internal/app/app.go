package app

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/clinic_scheduler/internal/config"
	"github.com/Freeeeeet/clinic_scheduler/internal/notify"
	"github.com/Freeeeeet/clinic_scheduler/internal/repository"
	"github.com/Freeeeeet/clinic_scheduler/internal/repository/base"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// staffNotifier уведомления о приёмах и отправка сводки
type staffNotifier interface {
	notify.Notifier
	notify.TextSender
}

// App собранные зависимости приложения
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Pool   *pgxpool.Pool

	Users        *service.UserService
	Availability *service.AvailabilityService
	Appointments *service.AppointmentService
	Scheduler    *Scheduler
}

// New подключается к БД и собирает сервисы
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	pool, err := NewPool(ctx, cfg.DBDSN, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, err
	}

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	tx := base.NewTransactor(pool)
	userRepo := repository.NewUserRepository(pool)
	availabilityRepo := repository.NewAvailabilityRepository(pool)
	appointmentRepo := repository.NewAppointmentRepository(pool)

	users := service.NewUserService(userRepo, logger)
	appointments := service.NewAppointmentService(
		tx,
		userRepo,
		availabilityRepo,
		appointmentRepo,
		users,
		notifier,
		cfg.Location,
		logger,
	)

	return &App{
		Config:       cfg,
		Logger:       logger,
		Pool:         pool,
		Users:        users,
		Availability: service.NewAvailabilityService(tx, userRepo, availabilityRepo, logger),
		Appointments: appointments,
		Scheduler:    NewScheduler(appointments, notifier, cfg.Location, cfg.DigestHour, logger),
	}, nil
}

func newNotifier(cfg *config.Config, logger *zap.Logger) (staffNotifier, error) {
	if !cfg.NotificationsEnabled() {
		logger.Info("Telegram notifications disabled")
		return notify.Nop{}, nil
	}

	n, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID, logger)
	if err != nil {
		return nil, fmt.Errorf("create notifier: %w", err)
	}

	logger.Info("Telegram notifications enabled", zap.Int64("chat_id", cfg.TelegramChatID))
	return n, nil
}

// Migrator создаёт мигратор для каталога из конфига
func (a *App) Migrator() (*Migrator, error) {
	return NewMigrator(a.Pool, a.Config.MigrationsDir, a.Logger)
}

// Close закрывает пул соединений
func (a *App) Close() {
	a.Pool.Close()
}
