package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramNotifier pushes execution summaries to a Telegram chat. A nil
// notifier is valid and silently drops messages, so callers never need to
// branch on whether notifications are configured.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

func NewTelegramNotifier(token string, chatID int64, logger *zap.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	logger.Info("Telegram notifier ready", zap.String("bot", bot.Self.UserName), zap.Int64("chat_id", chatID))
	return &TelegramNotifier{bot: bot, chatID: chatID, logger: logger}, nil
}

// Send delivers the message best-effort. Delivery failures are logged and
// swallowed; notifications must never affect order handling.
func (n *TelegramNotifier) Send(text string) {
	if n == nil || n.bot == nil {
		return
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Warn("Failed to send telegram message", zap.Error(err))
	}
}
