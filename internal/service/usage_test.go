package service

import (
	"testing"

	"github.com/set-night/telegpt/internal/config"
	"github.com/set-night/telegpt/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateCost(t *testing.T) {
	// 1000 prompt tokens at $3/M + 500 completion tokens at $15/M
	cost := CalculateCost(1000, 500, 3, 15, 0)
	assert.True(t, cost.Equal(decimal.RequireFromString("0.0105")), "got %s", cost)

	withMarkup := CalculateCost(1000, 500, 3, 15, 100)
	assert.True(t, withMarkup.Equal(decimal.RequireFromString("0.021")), "got %s", withMarkup)

	free := CalculateCost(1000, 500, 0, 0, 30)
	assert.True(t, free.IsZero())
}

func TestFormatUsage(t *testing.T) {
	comp := &domain.Completion{PromptTokens: 10, CompletionTokens: 32, TotalTokens: 42}

	plain := FormatUsage(comp, &config.Config{})
	assert.Equal(t, "tokens used: 42", plain)

	priced := FormatUsage(comp, &config.Config{PromptPrice: 3, CompletionPrice: 15})
	assert.Contains(t, priced, "tokens used: 42")
	assert.Contains(t, priced, "cost: $")
}
