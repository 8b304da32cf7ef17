package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramAPI is the slice of *tgbotapi.BotAPI the sender uses
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender posts events to an organiser chat
type TelegramSender struct {
	bot    telegramAPI
	chatID int64
}

// NewTelegramSender connects to the Bot API with token
func NewTelegramSender(token string, chatID int64) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = false
	return newTelegramSender(bot, chatID), nil
}

func newTelegramSender(bot telegramAPI, chatID int64) *TelegramSender {
	return &TelegramSender{bot: bot, chatID: chatID}
}

func (s *TelegramSender) Name() string { return "telegram" }

func (s *TelegramSender) Send(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.chatID == 0 {
		return &PermanentError{Err: fmt.Errorf("telegram chat id not configured")}
	}

	msg := tgbotapi.NewMessage(s.chatID, telegramText(event))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// telegramText bolds the subject line and escapes everything for HTML parse mode
func telegramText(event Event) string {
	lines := strings.Split(event.Text(), "\n")
	for i, l := range lines {
		lines[i] = html.EscapeString(l)
	}
	lines[0] = "<b>" + lines[0] + "</b>"
	return strings.Join(lines, "\n")
}
