package handler

import (
	"github.com/go-telegram/bot"
	"github.com/set-night/telegpt/internal/config"
	"github.com/set-night/telegpt/internal/controller"
	"github.com/set-night/telegpt/internal/domain"
)

// Handler wires Telegram updates into the session controller and the glue
// capabilities (transcription, image generation).
type Handler struct {
	bot         *bot.Bot
	cfg         *config.Config
	ctrl        *controller.Controller
	transcriber domain.Transcriber
	images      domain.ImageGenerator
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot         *bot.Bot
	Cfg         *config.Config
	Controller  *controller.Controller
	Transcriber domain.Transcriber
	Images      domain.ImageGenerator
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:         deps.Bot,
		cfg:         deps.Cfg,
		ctrl:        deps.Controller,
		transcriber: deps.Transcriber,
		images:      deps.Images,
	}
}

// Register registers all command handlers on the bot. Commands use exact
// matching: "/start" must not swallow "/startchat".
func (h *Handler) Register() {
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.handleHelp)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, h.handleHelp)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/stopchat", bot.MatchTypeExact, h.handleStopChat)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/startchat", bot.MatchTypeExact, h.handleStartChat)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/clearhistory", bot.MatchTypeExact, h.handleClearHistory)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/changemode", bot.MatchTypeExact, h.handleChangeMode)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/setcontext", bot.MatchTypeExact, h.handleSetContext)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/image", bot.MatchTypePrefix, h.handleImage)
}
