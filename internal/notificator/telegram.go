package notificator

import (
	"context"

	"github.com/go-telegram/bot"

	"github.com/tachi-protocol/crawlgate/pkg/logger"
)

// TelegramNotificator sends paid-crawl notifications to the publisher's
// configured chat.
type TelegramNotificator struct {
	logger *logger.Logger
	bot    *bot.Bot
	chatID string
}

// NewTelegramNotificator creates a notificator for the given bot token and
// chat ID.
func NewTelegramNotificator(logger *logger.Logger, token, chatID string) (*TelegramNotificator, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, err
	}
	return &TelegramNotificator{
		logger: logger,
		bot:    b,
		chatID: chatID,
	}, nil
}

// SendNotification sends one message to the configured chat.
func (t *TelegramNotificator) SendNotification(message string) {
	params := &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   message,
	}
	_, err := t.bot.SendMessage(context.Background(), params)
	if err != nil {
		t.logger.Error("Failed to send notification: ", err)
	}
}
