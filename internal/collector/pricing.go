package collector

import (
	"math"
	"strings"
)

// modelPricing is the price per million tokens in USD.
type modelPricing struct {
	input         float64
	output        float64
	cacheCreation float64
	cacheRead     float64
}

var (
	opusPricing   = modelPricing{input: 15.0, output: 75.0, cacheCreation: 18.75, cacheRead: 1.5}
	sonnetPricing = modelPricing{input: 3.0, output: 15.0, cacheCreation: 3.75, cacheRead: 0.3}
	haikuPricing  = modelPricing{input: 0.25, output: 1.25, cacheCreation: 0.3, cacheRead: 0.03}
)

var pricingTable = map[string]modelPricing{
	"claude-3-opus":     opusPricing,
	"claude-opus-4":     opusPricing,
	"claude-3-sonnet":   sonnetPricing,
	"claude-3-5-sonnet": sonnetPricing,
	"claude-sonnet-4":   sonnetPricing,
	"claude-3-haiku":    haikuPricing,
	"claude-3-5-haiku":  haikuPricing,
}

// normalizePricingModel collapses a raw model identifier onto a pricing table
// key. Unrecognized models fall back to Sonnet pricing.
func normalizePricingModel(model string) string {
	m := strings.ToLower(model)

	switch {
	case strings.Contains(m, "opus-4"):
		return "claude-opus-4"
	case strings.Contains(m, "sonnet-4"):
		return "claude-sonnet-4"
	case strings.Contains(m, "opus"):
		return "claude-3-opus"
	case strings.Contains(m, "haiku"):
		if strings.Contains(m, "3.5") || strings.Contains(m, "3-5") {
			return "claude-3-5-haiku"
		}
		return "claude-3-haiku"
	case strings.Contains(m, "sonnet"):
		if strings.Contains(m, "3.5") || strings.Contains(m, "3-5") {
			return "claude-3-5-sonnet"
		}
		return "claude-3-sonnet"
	}
	return "claude-3-5-sonnet"
}

// CostUSD computes the cost of a usage record from the per-model price table,
// rounded to 6 decimal places. Used when a log event carries no cost of its
// own.
func CostUSD(model string, inputTokens, outputTokens, cacheCreationTokens, cacheReadTokens uint64) float64 {
	pricing, ok := pricingTable[normalizePricingModel(model)]
	if !ok {
		pricing = sonnetPricing
	}

	cost := float64(inputTokens)/1e6*pricing.input +
		float64(outputTokens)/1e6*pricing.output +
		float64(cacheCreationTokens)/1e6*pricing.cacheCreation +
		float64(cacheReadTokens)/1e6*pricing.cacheRead

	return roundCost(cost)
}

// roundCost rounds to 6 decimal places, the precision used everywhere costs
// are aggregated.
func roundCost(cost float64) float64 {
	return math.Round(cost*1e6) / 1e6
}

// PlanLimits describes the usage ceilings of a subscription plan within one
// session window.
type PlanLimits struct {
	TokenLimit   uint64
	CostLimit    float64
	MessageLimit uint32
}

// PlanLimitsFor returns the limits for a plan type (pro, max5, max20).
// Unknown plans get pro limits.
func PlanLimitsFor(planType string) PlanLimits {
	switch strings.ToLower(planType) {
	case "max5":
		return PlanLimits{TokenLimit: 88_000, CostLimit: 35.0, MessageLimit: 1_000}
	case "max20":
		return PlanLimits{TokenLimit: 220_000, CostLimit: 140.0, MessageLimit: 2_000}
	default:
		return PlanLimits{TokenLimit: 19_000, CostLimit: 18.0, MessageLimit: 250}
	}
}
