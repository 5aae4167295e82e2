package domain

import "context"

// Completion is a full single-shot model response.
type Completion struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Fragment is one incremental piece of a streamed response. The terminal
// fragment carries a non-empty FinishReason.
type Fragment struct {
	DeltaContent string
	FinishReason string
}

// CompletionStream is a lazy, finite, non-restartable fragment sequence.
// Recv returns io.EOF once the underlying stream is exhausted.
type CompletionStream interface {
	Recv() (Fragment, error)
	Close() error
}

// ModelClient produces completions for a session history.
type ModelClient interface {
	Complete(ctx context.Context, history []Turn) (*Completion, error)
	StreamComplete(ctx context.Context, history []Turn) (CompletionStream, error)
}

// Transcriber converts voice audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// ImageGenerator renders an image for a prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}
