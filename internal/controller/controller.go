// Package controller applies incoming user events to sessions. Dispatch
// follows a fixed precedence: explicit commands always win, then the
// awaiting-context gate, then the suspension gate, then the delivery mode.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/set-night/telegpt/internal/config"
	"github.com/set-night/telegpt/internal/domain"
	"github.com/set-night/telegpt/internal/relay"
	"github.com/set-night/telegpt/internal/service"
)

// Transport is the chat transport surface the controller needs.
type Transport interface {
	relay.Transport
	SendTyping(ctx context.Context, chatID int64)
	SendLongMessage(ctx context.Context, chatID int64, text string) error
}

const helpText = `Hello 👋 Start typing anything to chat with the assistant.

Here are the commands:

/stopchat - suspend the chat
/startchat - continue the chat
/clearhistory - clear chat history, for your user
/start - show this message
/help - show this message
/changemode - change the mode to streamed or static
/setcontext - set a context for the assistant
/image <prompt> - generate an image

Enjoy!!!`

const (
	suspendedNotice = "The chat is suspended for you right now. To continue: use the /startchat command."
	busyNotice      = "⏳ Wait for the answer to your previous request."
	emptyNotice     = "❌ The model generated no content. Try rephrasing your message."
)

type Controller struct {
	cfg       *config.Config
	store     *service.SessionStore
	model     domain.ModelClient
	transport Transport
	relay     *relay.Relay

	mu     sync.Mutex
	active map[int64]struct{}
}

func New(cfg *config.Config, store *service.SessionStore, model domain.ModelClient, transport Transport) *Controller {
	return &Controller{
		cfg:       cfg,
		store:     store,
		model:     model,
		transport: transport,
		relay:     relay.New(transport),
		active:    make(map[int64]struct{}),
	}
}

// tryAcquire reserves the single generation slot for a user. A second text
// message while one is in flight is rejected, not queued.
func (c *Controller) tryAcquire(userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.active[userID]; busy {
		return false
	}
	c.active[userID] = struct{}{}
	return true
}

func (c *Controller) release(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.active, userID)
}

// HandleText applies one plain text message from a user. Command text is
// ignored here; commands are routed by the bot's handler registry and always
// take precedence over the gate flags.
func (c *Controller) HandleText(ctx context.Context, userID, chatID int64, text string) {
	if text == "" || strings.HasPrefix(text, "/") {
		return
	}

	sess := c.store.GetOrCreate(userID)

	if sess.AwaitingContext {
		c.store.SetContext(userID, text)
		c.store.SetAwaitingContext(userID, false)
		c.send(ctx, chatID, fmt.Sprintf("⚠️ Context set to %q! ⚠️", text))
		return
	}

	if sess.Suspended {
		c.send(ctx, chatID, suspendedNotice)
		return
	}

	if !c.tryAcquire(userID) {
		c.send(ctx, chatID, busyNotice)
		return
	}
	defer c.release(userID)

	c.transport.SendTyping(ctx, chatID)

	// The user turn is appended before the model call and never rolled back,
	// so the user's own message is never silently lost.
	c.store.AppendTurn(userID, domain.Turn{Role: domain.RoleUser, Content: text})

	reqID := uuid.NewString()
	slog.Info("generation started", "request_id", reqID, "user_id", userID, "mode", sess.Mode)

	if sess.Mode == domain.ModeStreamed {
		c.answerStreamed(ctx, reqID, userID, chatID)
	} else {
		c.answerStatic(ctx, reqID, userID, chatID)
	}
}

func (c *Controller) answerStatic(ctx context.Context, reqID string, userID, chatID int64) {
	reqCtx, cancel := context.WithTimeout(ctx, config.RequestTimeout)
	defer cancel()

	comp, err := c.model.Complete(reqCtx, c.store.History(userID))
	if err != nil {
		slog.Error("completion failed", "request_id", reqID, "error", err)
		c.send(ctx, chatID, providerErrorText(reqCtx, err))
		return
	}

	c.store.AppendTurn(userID, domain.Turn{Role: domain.RoleAssistant, Content: comp.Content})

	reply := comp.Content + "\n\n" + service.FormatUsage(comp, c.cfg)
	if err := c.transport.SendLongMessage(ctx, chatID, reply); err != nil {
		slog.Error("failed to send answer", "request_id", reqID, "error", err)
	}
	slog.Info("generation finished", "request_id", reqID, "tokens", comp.TotalTokens)
}

func (c *Controller) answerStreamed(ctx context.Context, reqID string, userID, chatID int64) {
	reqCtx, cancel := context.WithTimeout(ctx, config.RequestTimeout)
	defer cancel()

	stream, err := c.model.StreamComplete(reqCtx, c.store.History(userID))
	if err != nil {
		slog.Error("stream start failed", "request_id", reqID, "error", err)
		c.send(ctx, chatID, providerErrorText(reqCtx, err))
		return
	}

	res := c.relay.Run(ctx, chatID, stream)

	switch {
	case res.Content == "" && res.Err == nil:
		// Detectable empty-generation outcome: no reply message exists and
		// no assistant turn is recorded.
		slog.Warn("empty generation", "request_id", reqID, "user_id", userID)
		c.send(ctx, chatID, emptyNotice)
	case res.Content == "" && res.Err != nil:
		slog.Error("stream failed before any content", "request_id", reqID, "error", res.Err)
		c.send(ctx, chatID, providerErrorText(reqCtx, res.Err))
	default:
		// Partial content from an aborted stream is kept: the user already
		// saw it on screen.
		c.store.AppendTurn(userID, domain.Turn{Role: domain.RoleAssistant, Content: res.Content})
		if res.Err != nil {
			slog.Error("stream aborted, partial answer kept", "request_id", reqID, "error", res.Err)
		} else {
			slog.Info("generation finished", "request_id", reqID, "finish", res.Finish, "length", len(res.Content))
		}
	}
}

// Suspend handles /stopchat.
func (c *Controller) Suspend(userID int64) string {
	c.store.SetSuspended(userID, true)
	return "⚠️ The chat is now suspended. To continue: use the /startchat command. ⚠️"
}

// Resume handles /startchat.
func (c *Controller) Resume(userID int64) string {
	c.store.SetSuspended(userID, false)
	return "The chat is now continued ✔️"
}

// ToggleMode handles /changemode and reports the new mode.
func (c *Controller) ToggleMode(userID int64) string {
	mode := c.store.ToggleMode(userID)
	return fmt.Sprintf("⚠️ Mode is now %s ⚠️", mode)
}

// BeginSetContext handles /setcontext: the context text itself arrives as
// the next message. The current context stays untouched until then.
func (c *Controller) BeginSetContext(userID int64) string {
	c.store.SetAwaitingContext(userID, true)
	return "Input a context: "
}

// ClearHistory handles /clearhistory, distinguishing the already-empty case.
func (c *Controller) ClearHistory(userID int64) string {
	if c.store.ClearHistory(userID) {
		return "Your history has been cleared 🗑️"
	}
	return "You already have no history!"
}

// Help handles /start and /help.
func (c *Controller) Help() string { return helpText }

// InlineAnswer produces a one-shot answer for an inline query. It touches no
// session state.
func (c *Controller) InlineAnswer(ctx context.Context, query string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, config.RequestTimeout)
	defer cancel()

	comp, err := c.model.Complete(reqCtx, []domain.Turn{
		{Role: domain.RoleSystem, Content: "answer this question"},
		{Role: domain.RoleUser, Content: query},
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Query: %s\n\nResponse: %s\n\ntokens used: %d", query, comp.Content, comp.TotalTokens), nil
}

func (c *Controller) send(ctx context.Context, chatID int64, text string) {
	if _, err := c.transport.SendMessage(ctx, chatID, text); err != nil {
		slog.Error("failed to send notice", "chat_id", chatID, "error", err)
	}
}

func providerErrorText(reqCtx context.Context, err error) string {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return "⏳ Too many requests to the model. Try again later."
	case errors.Is(err, domain.ErrUnavailable):
		return "❌ The model service is temporarily unavailable."
	case reqCtx.Err() != nil:
		return "⏳ Timed out waiting for a response."
	default:
		return "❌ Failed to generate a response. Try again later."
	}
}
