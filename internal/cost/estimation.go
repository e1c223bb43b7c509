package cost

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// ModelPricing represents the list price of a generation model
type ModelPricing struct {
	Model                 string
	InputCostPer1MTokens  float64 // Cost per 1M input tokens in USD
	OutputCostPer1MTokens float64 // Cost per 1M output tokens in USD
}

// PricingTable contains list prices for the models tamgu is configured with
var PricingTable = map[string]ModelPricing{
	"gemini-2.5-flash": {
		Model:                 "gemini-2.5-flash",
		InputCostPer1MTokens:  0.30,
		OutputCostPer1MTokens: 2.50,
	},
	"gemini-2.5-pro": {
		Model:                 "gemini-2.5-pro",
		InputCostPer1MTokens:  1.25,
		OutputCostPer1MTokens: 10.00,
	},
	"gpt-4o-mini": {
		Model:                 "gpt-4o-mini",
		InputCostPer1MTokens:  0.15,
		OutputCostPer1MTokens: 0.60,
	},
	"gpt-4o": {
		Model:                 "gpt-4o",
		InputCostPer1MTokens:  2.50,
		OutputCostPer1MTokens: 10.00,
	},
}

// EstimateTokenCount provides a rough estimation of token count for text.
// Hangul syllables usually cost about one token each, so the estimate counts
// runes rather than bytes: roughly one token per 3.5 characters of mixed text.
func EstimateTokenCount(text string) int {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "\n", " ")

	charCount := utf8.RuneCountInString(text)
	return int(math.Ceil(float64(charCount) / 3.5))
}

// CallEstimate is the estimated size and price of one generation call
type CallEstimate struct {
	Model        string
	InputTokens  int
	OutputTokens int
	TotalCost    float64 // USD; zero when the model is not priced
	Priced       bool
}

// EstimateCall estimates the cost of a completed call from its prompt and response text.
func EstimateCall(model, prompt, completion string) CallEstimate {
	est := CallEstimate{
		Model:        model,
		InputTokens:  EstimateTokenCount(prompt),
		OutputTokens: EstimateTokenCount(completion),
	}

	pricing, ok := PricingTable[model]
	if !ok {
		return est
	}
	est.Priced = true
	est.TotalCost = float64(est.InputTokens)*pricing.InputCostPer1MTokens/1000000 +
		float64(est.OutputTokens)*pricing.OutputCostPer1MTokens/1000000
	return est
}

// TotalTokens returns input plus output tokens.
func (e CallEstimate) TotalTokens() int {
	return e.InputTokens + e.OutputTokens
}

// String formats the estimate for logs and the CLI.
func (e CallEstimate) String() string {
	if !e.Priced {
		return fmt.Sprintf("%s: ~%d tokens", e.Model, e.TotalTokens())
	}
	return fmt.Sprintf("%s: ~%d tokens (~$%.6f)", e.Model, e.TotalTokens(), e.TotalCost)
}
