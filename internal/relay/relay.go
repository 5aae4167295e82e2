// Package relay converts a streamed completion into a bounded sequence of
// rate-limited Telegram message edits. The displayed text never regresses
// and converges to the exact concatenation of all fragments.
package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/set-night/telegpt/internal/config"
	"github.com/set-night/telegpt/internal/domain"
)

// Transport is the slice of the chat transport the relay needs. MessageIDs
// returned by SendMessage are opaque handles for later edits.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string) (int, error)
	EditMessage(ctx context.Context, chatID int64, messageID int, text string) error
}

// Relay drains one fragment stream into edits of a single reply message.
// A Relay is stateless between runs and safe to share across goroutines.
type Relay struct {
	transport Transport
	editBatch int
	editDelay time.Duration
	backoff   time.Duration
	sleep     func(ctx context.Context, d time.Duration)
}

func New(transport Transport) *Relay {
	return &Relay{
		transport: transport,
		editBatch: config.StreamEditBatch,
		editDelay: config.StreamEditDelay,
		backoff:   config.EditRetryBackoff,
		sleep:     sleepCtx,
	}
}

// Result reports the outcome of one relay run. Content is the full
// concatenation of all received fragments; MessageID is zero when no reply
// message was ever created (empty generation). Err is the terminal stream
// error, nil on a clean finish.
type Result struct {
	Content   string
	MessageID int
	Finish    string
	Err       error
}

// Run consumes the stream until its terminal finish marker, an error, or
// context cancellation. Edit failures are never fatal: the relay sleeps the
// backoff and keeps consuming, so the next successful edit includes every
// fragment accumulated during the failure window.
func (r *Relay) Run(ctx context.Context, chatID int64, stream domain.CompletionStream) Result {
	defer stream.Close()

	var buf strings.Builder
	var res Result
	pending := 0
	shown := ""

	for {
		if ctx.Err() != nil {
			res.Err = ctx.Err()
			break
		}

		frag, err := stream.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				res.Err = err
			}
			break
		}

		// A provider may emit empty role-only frames before any content.
		// The reply message must not exist until real content arrives.
		if buf.Len() == 0 && frag.DeltaContent == "" && frag.FinishReason == "" {
			continue
		}

		buf.WriteString(frag.DeltaContent)

		if res.MessageID == 0 && buf.Len() > 0 {
			id, err := r.transport.SendMessage(ctx, chatID, buf.String())
			if err != nil {
				slog.Error("failed to send reply message", "chat_id", chatID, "error", err)
				r.sleep(ctx, r.backoff)
			} else {
				res.MessageID = id
				shown = buf.String()
			}
			if frag.FinishReason != "" {
				res.Finish = frag.FinishReason
				break
			}
			continue
		}

		if frag.FinishReason != "" {
			res.Finish = frag.FinishReason
			break
		}

		pending++
		if pending < r.editBatch {
			continue
		}
		pending = 0

		r.sleep(ctx, r.editDelay)
		if err := r.transport.EditMessage(ctx, chatID, res.MessageID, buf.String()); err != nil {
			slog.Error("failed to edit message", "chat_id", chatID, "message_id", res.MessageID, "error", err)
			r.sleep(ctx, r.backoff)
			continue
		}
		shown = buf.String()
	}

	res.Content = buf.String()

	// Final reconciliation: the displayed text must equal the full buffer.
	// Best effort; the relay terminates either way.
	if res.Content != "" && res.Content != shown {
		if res.MessageID == 0 {
			id, err := r.transport.SendMessage(ctx, chatID, res.Content)
			if err != nil {
				slog.Error("failed to send final message", "chat_id", chatID, "error", err)
			} else {
				res.MessageID = id
			}
		} else if err := r.transport.EditMessage(ctx, chatID, res.MessageID, res.Content); err != nil {
			slog.Error("final edit failed", "chat_id", chatID, "message_id", res.MessageID, "error", err)
		}
	}

	return res
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
