package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	BotToken      string `env:"BOT_TOKEN,required"`
	OpenRouterKey string `env:"OPENROUTER_API_KEY,required"`
	Model         string `env:"MODEL" envDefault:"openai/gpt-3.5-turbo"`

	// Default system context for new sessions
	DefaultContext string `env:"DEFAULT_CONTEXT" envDefault:"You are chatting with someone on the telegram platform."`

	// Persistence: Postgres when DATABASE_URL is set, JSON file otherwise
	DatabaseURL  string `env:"DATABASE_URL"`
	SessionsFile string `env:"SESSIONS_FILE" envDefault:"sessions.json"`

	// Generation
	Temperature float64 `env:"TEMPERATURE" envDefault:"1"`

	// Pricing for the optional cost line after static answers (USD per 1M tokens).
	// Zero disables cost display.
	PromptPrice     float64 `env:"PROMPT_PRICE_PER_MTOK" envDefault:"0"`
	CompletionPrice float64 `env:"COMPLETION_PRICE_PER_MTOK" envDefault:"0"`
	MarkupPercent   float64 `env:"MARKUP_PERCENT" envDefault:"0"`

	// Glue capabilities
	AudioModel string `env:"AUDIO_MODEL" envDefault:"openai/whisper-1"`
	ImageModel string `env:"IMAGE_MODEL" envDefault:"openai/dall-e-3"`

	// Bot behavior
	DropPendingUpdates bool `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ShowCost reports whether a cost line should accompany usage figures.
func (c *Config) ShowCost() bool {
	return c.PromptPrice > 0 || c.CompletionPrice > 0
}
