package handler

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (h *Handler) handleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.reply(ctx, b, update.Message.Chat.ID, h.ctrl.Help())
}

func (h *Handler) handleStopChat(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	h.reply(ctx, b, update.Message.Chat.ID, h.ctrl.Suspend(update.Message.From.ID))
}

func (h *Handler) handleStartChat(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	h.reply(ctx, b, update.Message.Chat.ID, h.ctrl.Resume(update.Message.From.ID))
}

func (h *Handler) handleClearHistory(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	h.reply(ctx, b, update.Message.Chat.ID, h.ctrl.ClearHistory(update.Message.From.ID))
}

func (h *Handler) handleChangeMode(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	h.reply(ctx, b, update.Message.Chat.ID, h.ctrl.ToggleMode(update.Message.From.ID))
}

func (h *Handler) handleSetContext(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	reply := h.ctrl.BeginSetContext(update.Message.From.ID)
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        reply,
		ReplyMarkup: &models.ForceReply{ForceReply: true},
	})
	if err != nil {
		slog.Error("failed to ask for context", "error", err)
	}
}

func (h *Handler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		slog.Error("failed to send command reply", "chat_id", chatID, "error", err)
	}
}
