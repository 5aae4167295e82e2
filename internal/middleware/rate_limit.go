package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type window struct {
	start time.Time
	count int
}

// RateLimit returns middleware enforcing a per-chat messages-per-minute cap.
// State is in-memory; limits reset when the process restarts.
func RateLimit(perMinute int) bot.Middleware {
	var mu sync.Mutex
	windows := make(map[int64]*window)

	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			// Only rate limit messages (not inline queries or other updates)
			if update.Message == nil {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID
			now := time.Now()

			mu.Lock()
			w, ok := windows[chatID]
			if !ok || now.Sub(w.start) >= time.Minute {
				w = &window{start: now}
				windows[chatID] = w
			}
			w.count++
			over := w.count > perMinute
			mu.Unlock()

			if over {
				b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: chatID,
					Text:   "⏳ Too many requests. Slow down a little.",
				})
				return
			}

			next(ctx, b, update)
		}
	}
}
