package finchat

import (
	"math"
	"testing"

	"github.com/asim800/finchat/providers"
)

func TestEstimateCostKnownModel(t *testing.T) {
	cost := EstimateCost("gpt-4o-mini", providers.TokenUsage{
		PromptTokens:     1_000_000,
		CompletionTokens: 1_000_000,
	})
	if cost == nil {
		t.Fatal("EstimateCost() = nil for known model")
	}
	if math.Abs(cost.PromptCost-0.150) > 1e-9 {
		t.Errorf("PromptCost = %v, want 0.150", cost.PromptCost)
	}
	if math.Abs(cost.CompletionCost-0.600) > 1e-9 {
		t.Errorf("CompletionCost = %v, want 0.600", cost.CompletionCost)
	}
	if math.Abs(cost.TotalCost-0.750) > 1e-9 {
		t.Errorf("TotalCost = %v, want 0.750", cost.TotalCost)
	}
}

func TestEstimateCostUnknownModel(t *testing.T) {
	if cost := EstimateCost("mystery-model", providers.TokenUsage{PromptTokens: 100}); cost != nil {
		t.Errorf("EstimateCost() = %+v, want nil for unknown model", cost)
	}
}

func TestEstimateCostNoUsage(t *testing.T) {
	if cost := EstimateCost("gpt-4o-mini", providers.TokenUsage{}); cost != nil {
		t.Errorf("EstimateCost() = %+v, want nil for zero usage", cost)
	}
}

func TestRegisterModelCostTakesPrecedence(t *testing.T) {
	RegisterModelCost("custom-model", ModelCostConfig{
		InputCostPer1MTokens:  1.00,
		OutputCostPer1MTokens: 2.00,
	})

	cost := EstimateCost("custom-model", providers.TokenUsage{
		PromptTokens:     500_000,
		CompletionTokens: 500_000,
	})
	if cost == nil {
		t.Fatal("EstimateCost() = nil for registered model")
	}
	if math.Abs(cost.TotalCost-1.50) > 1e-9 {
		t.Errorf("TotalCost = %v, want 1.50", cost.TotalCost)
	}
}
