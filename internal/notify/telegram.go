package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramNotifier posts messages to the configured official chats.
type TelegramNotifier struct {
	bot     *tgbotapi.BotAPI
	chatIDs []int64
	logger  *zerolog.Logger
}

func NewTelegramNotifier(botToken string, chatIDs []int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info().Str("bot_username", bot.Self.UserName).Int("chats", len(chatIDs)).Msg("telegram notifier ready")
	return &TelegramNotifier{bot: bot, chatIDs: chatIDs, logger: logger}, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	var lastErr error
	for _, chatID := range n.chatIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send telegram message")
			lastErr = err
		}
	}
	return lastErr
}

// NopNotifier is used when telegram notifications are disabled.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string) error { return nil }
