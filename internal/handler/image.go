package handler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	tg "github.com/set-night/telegpt/internal/telegram"
)

// handleImage generates an image for "/image <prompt>".
func (h *Handler) handleImage(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	prompt := strings.TrimSpace(strings.TrimPrefix(msg.Text, "/image"))
	if prompt == "" {
		h.reply(ctx, b, chatID, "Usage: /image <prompt>")
		return
	}

	b.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionUploadPhoto,
	})

	img, err := h.images.GenerateImage(ctx, prompt)
	if err != nil {
		slog.Error("image generation failed", "error", err)
		h.reply(ctx, b, chatID, "❌ Failed to generate the image.")
		return
	}

	if err := tg.SendPhotoBytes(ctx, b, chatID, "image.png", img, prompt); err != nil {
		slog.Error("failed to send generated image", "error", err)
	}
}
