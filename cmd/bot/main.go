package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/joho/godotenv"
	telegptroot "github.com/set-night/telegpt"
	"github.com/set-night/telegpt/internal/config"
	"github.com/set-night/telegpt/internal/controller"
	"github.com/set-night/telegpt/internal/handler"
	"github.com/set-night/telegpt/internal/middleware"
	"github.com/set-night/telegpt/internal/repository"
	"github.com/set-night/telegpt/internal/service"
	"github.com/set-night/telegpt/internal/telegram"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Pick the session dump backend
	var dump repository.SessionDump
	if cfg.DatabaseURL != "" {
		migrationsFS, err := fs.Sub(telegptroot.MigrationsFS, "migrations")
		if err != nil {
			slog.Error("failed to load embedded migrations", "error", err)
			os.Exit(1)
		}
		dump, err = repository.NewPostgresDump(ctx, cfg.DatabaseURL, migrationsFS)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
	} else {
		dump = repository.NewFileDump(cfg.SessionsFile)
	}
	defer dump.Close()

	// Load sessions; an unreadable dump is never fatal
	store := service.NewSessionStore(cfg.DefaultContext)
	sessions, err := dump.Load(ctx)
	if err != nil {
		slog.Warn("failed to load sessions, starting with an empty store", "error", err)
	} else {
		store.Restore(sessions)
		slog.Info("sessions loaded", "count", store.Len())
	}

	openRouter := service.NewOpenRouterService(cfg)

	// Handler pointer for use in default handler closure
	var h *handler.Handler

	// Create bot
	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(),
			middleware.Logging(),
			middleware.RateLimit(config.RateLimitPerMinute),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if h == nil {
				return
			}
			if update.InlineQuery != nil {
				h.HandleInline(ctx, b, update)
				return
			}
			if update.Message == nil {
				return
			}
			if update.Message.Voice != nil {
				h.HandleVoice(ctx, b, update)
				return
			}
			h.HandleText(ctx, b, update)
		}),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	if cfg.DropPendingUpdates {
		b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true})
	}

	// Get bot info
	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}

	// Initialize controller and handler
	ctrl := controller.New(cfg, store, openRouter, telegram.NewBotTransport(b))
	h = handler.New(handler.Deps{
		Bot:         b,
		Cfg:         cfg,
		Controller:  ctrl,
		Transcriber: openRouter,
		Images:      openRouter,
	})
	h.Register()

	// Start bot
	slog.Info("starting bot", "username", me.Username, "id", me.ID)
	b.Start(ctx)

	// Graceful shutdown: dump sessions before exit
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := dump.Save(saveCtx, store.Snapshot()); err != nil {
		slog.Error("failed to dump sessions", "error", err)
	}
	slog.Info("bot stopped gracefully")
}
