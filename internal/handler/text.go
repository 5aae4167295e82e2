package handler

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandleText routes a plain text message into the session controller.
func (h *Handler) HandleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	// Commands are dispatched by the handler registry; unknown commands are
	// dropped here rather than fed to generation.
	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	if text == "" {
		return
	}

	h.ctrl.HandleText(ctx, msg.From.ID, msg.Chat.ID, text)
}
