package handler

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	tg "github.com/set-night/telegpt/internal/telegram"
)

// HandleVoice transcribes a voice message and feeds the text through the
// normal dispatch path, so gate flags and mode apply as if it were typed.
func (h *Handler) HandleVoice(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Voice == nil {
		return
	}
	chatID := msg.Chat.ID

	audio, _, err := tg.DownloadFile(ctx, b, msg.Voice.FileID)
	if err != nil {
		slog.Error("failed to download voice message", "error", err)
		h.reply(ctx, b, chatID, "❌ Could not download the voice message.")
		return
	}

	text, err := h.transcriber.Transcribe(ctx, audio)
	if err != nil {
		slog.Error("transcription failed", "error", err)
		h.reply(ctx, b, chatID, "❌ Could not transcribe the voice message.")
		return
	}
	if text == "" {
		h.reply(ctx, b, chatID, "❌ The voice message contained no recognizable speech.")
		return
	}

	h.ctrl.HandleText(ctx, msg.From.ID, chatID, text)
}
