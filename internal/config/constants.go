package config

import "time"

const (
	// Streaming relay: fragments accumulated between message edits.
	StreamEditBatch = 10

	// Pause between consecutive edit calls to avoid back-to-back transport
	// requests. Not a correctness mechanism.
	StreamEditDelay = 10 * time.Millisecond

	// Sleep after a failed message edit before consuming further fragments.
	EditRetryBackoff = 40 * time.Second

	// AI request timeout
	RequestTimeout = 90 * time.Second

	// Telegram limits
	MaxTelegramMessageLen = 4096

	// Rate limit (messages per minute per chat)
	RateLimitPerMinute = 20
)
