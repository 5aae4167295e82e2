package service

import (
	"fmt"

	"github.com/set-night/telegpt/internal/config"
	"github.com/set-night/telegpt/internal/domain"
	"github.com/shopspring/decimal"
)

// CalculateCost computes the USD cost of a request. Prices are per 1M tokens;
// markupPercent is applied on top of the base cost.
func CalculateCost(promptTokens, completionTokens int, promptPrice, completionPrice, markupPercent float64) decimal.Decimal {
	million := decimal.NewFromInt(1_000_000)

	prompt := decimal.NewFromInt(int64(promptTokens)).
		Mul(decimal.NewFromFloat(promptPrice)).
		Div(million)
	completion := decimal.NewFromInt(int64(completionTokens)).
		Mul(decimal.NewFromFloat(completionPrice)).
		Div(million)

	base := prompt.Add(completion)
	markup := decimal.NewFromFloat(1 + markupPercent/100)
	return base.Mul(markup)
}

// FormatUsage renders the usage suffix appended to static answers, with a
// cost line when pricing is configured.
func FormatUsage(comp *domain.Completion, cfg *config.Config) string {
	usage := fmt.Sprintf("tokens used: %d", comp.TotalTokens)
	if !cfg.ShowCost() {
		return usage
	}
	cost := CalculateCost(comp.PromptTokens, comp.CompletionTokens, cfg.PromptPrice, cfg.CompletionPrice, cfg.MarkupPercent)
	return fmt.Sprintf("%s | cost: $%s", usage, cost.StringFixed(6))
}
