package llm

import "math"

// ModelPrice is the USD price per 1K prompt and completion tokens.
type ModelPrice struct {
	PromptPer1K     float64
	CompletionPer1K float64
}

// modelPrices covers the models agents are expected to run on. Unknown
// models fall back to defaultPrice so cost accounting never silently drops
// to zero.
var modelPrices = map[string]ModelPrice{
	"gpt-4o":        {PromptPer1K: 2.50, CompletionPer1K: 10.00},
	"gpt-4o-mini":   {PromptPer1K: 0.15, CompletionPer1K: 0.60},
	"gpt-4.1":       {PromptPer1K: 2.00, CompletionPer1K: 8.00},
	"gpt-4.1-mini":  {PromptPer1K: 0.40, CompletionPer1K: 1.60},
	"gpt-3.5-turbo": {PromptPer1K: 0.50, CompletionPer1K: 1.50},
}

var defaultPrice = ModelPrice{PromptPer1K: 1.00, CompletionPer1K: 3.00}

// EstimateCost computes the USD cost of a completion, rounded to six decimal
// places.
func EstimateCost(model string, promptTokens, completionTokens int) float64 {
	price, ok := modelPrices[model]
	if !ok {
		price = defaultPrice
	}
	cost := float64(promptTokens)/1000*price.PromptPer1K +
		float64(completionTokens)/1000*price.CompletionPer1K
	return math.Round(cost*1e6) / 1e6
}
