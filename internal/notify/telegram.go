package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramNotifier отправляет события в чат персонала
type TelegramNotifier struct {
	sender messageSender
	chatID int64
	logger *zap.Logger
}

// NewTelegramNotifier создаёт бота только для отправки сообщений, обновления не читаются
func NewTelegramNotifier(token string, chatID int64, logger *zap.Logger) (*TelegramNotifier, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return newTelegramNotifier(b, chatID, logger), nil
}

func newTelegramNotifier(sender messageSender, chatID int64, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender: sender,
		chatID: chatID,
		logger: logger,
	}
}

// Notify отправляет сообщение о событии
func (n *TelegramNotifier) Notify(ctx context.Context, event Event) error {
	if err := n.SendText(ctx, FormatEvent(event)); err != nil {
		return fmt.Errorf("notify %s: %w", event.Type, err)
	}

	n.logger.Debug("Notification sent",
		zap.String("event", string(event.Type)),
		zap.Int64("appointment_id", event.Appointment.ID),
	)

	return nil
}

// SendText отправляет HTML-сообщение в чат
func (n *TelegramNotifier) SendText(ctx context.Context, text string) error {
	_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    n.chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
