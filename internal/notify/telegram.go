package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"go.uber.org/zap"

	"drivercommission/internal/logging"
	"drivercommission/internal/models"
)

// Telegram отправляет уведомления о комиссиях в чат владельца.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram авторизует бота по токену. chatID - чат, куда уходят уведомления.
func NewTelegram(token string, chatID int64, debug bool) (*Telegram, error) {
	if token == "" {
		return nil, fmt.Errorf("токен Telegram API не предоставлен")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("не указан чат для уведомлений")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации Telegram Bot API: %w", err)
	}
	api.Debug = debug

	logging.Logger.Info("Telegram-бот авторизован", zap.String("username", api.Self.UserName))
	return &Telegram{api: api, chatID: chatID}, nil
}

func (t *Telegram) CommissionApplied(ctx context.Context, entry models.CommissionHistoryEntry) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatCommissionMessage(entry))
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("ошибка отправки уведомления в чат %d: %w", t.chatID, err)
	}
	return nil
}
