package telegram

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/telegpt/internal/config"
)

// BotTransport adapts *bot.Bot to the narrow transport surface the
// controller and relay consume.
type BotTransport struct {
	b *bot.Bot
}

func NewBotTransport(b *bot.Bot) *BotTransport {
	return &BotTransport{b: b}
}

// SendMessage sends a single plain-text message and returns its id for
// later edits. Text beyond the Telegram limit is truncated.
func (t *BotTransport) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	m, err := t.b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   truncate(text, config.MaxTelegramMessageLen),
	})
	if err != nil {
		return 0, err
	}
	return m.ID, nil
}

// EditMessage replaces the text of a previously sent message, falling back
// to plain text when markdown parsing fails.
func (t *BotTransport) EditMessage(ctx context.Context, chatID int64, messageID int, text string) error {
	return EditLongMessage(ctx, t.b, chatID, messageID, text)
}

// SendTyping shows the "typing..." chat action. Failures are ignored; the
// indicator is cosmetic.
func (t *BotTransport) SendTyping(ctx context.Context, chatID int64) {
	t.b.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionTyping,
	})
}

// SendLongMessage sends text of any length, splitting into parts as needed.
func (t *BotTransport) SendLongMessage(ctx context.Context, chatID int64, text string) error {
	return SendLongMessage(ctx, t.b, chatID, text, nil)
}

func truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-3]) + "..."
}
