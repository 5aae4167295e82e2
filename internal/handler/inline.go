package handler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandleInline answers inline queries that end with a question mark using a
// one-shot completion outside any session.
func (h *Handler) HandleInline(ctx context.Context, b *bot.Bot, update *models.Update) {
	q := update.InlineQuery
	if q == nil || !strings.HasSuffix(q.Query, "?") {
		return
	}

	slog.Info("inline query submitted", "query", q.Query)

	answer, err := h.ctrl.InlineAnswer(ctx, q.Query)
	if err != nil {
		slog.Error("inline answer failed", "error", err)
		return
	}

	_, err = b.AnswerInlineQuery(ctx, &bot.AnswerInlineQueryParams{
		InlineQueryID: q.ID,
		Results: []models.InlineQueryResult{
			&models.InlineQueryResultArticle{
				ID:    "1",
				Title: "Query taken, click to see the response",
				InputMessageContent: &models.InputTextMessageContent{
					MessageText: answer,
				},
			},
		},
	})
	if err != nil {
		slog.Error("failed to answer inline query", "error", err)
	}
}
