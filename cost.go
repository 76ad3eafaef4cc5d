package finchat

import (
	"sync"

	"github.com/asim800/finchat/providers"
)

// CostInfo is the estimated USD cost of the model calls in a run.
type CostInfo struct {
	PromptCost     float64
	CompletionCost float64
	TotalCost      float64
}

// ModelCostConfig defines the pricing for a specific model.
type ModelCostConfig struct {
	InputCostPer1MTokens  float64 // USD per 1M input tokens
	OutputCostPer1MTokens float64 // USD per 1M output tokens
}

// defaultModelCosts holds pricing for common OpenAI models. Providers report
// token usage but not cost, so these are estimates; override with
// RegisterModelCost when prices change.
var defaultModelCosts = map[string]ModelCostConfig{
	"gpt-4o":      {InputCostPer1MTokens: 5.00, OutputCostPer1MTokens: 15.00},
	"gpt-4o-mini": {InputCostPer1MTokens: 0.150, OutputCostPer1MTokens: 0.600},
	"gpt-4-turbo": {InputCostPer1MTokens: 10.00, OutputCostPer1MTokens: 30.00},
}

var (
	customModelCosts = make(map[string]ModelCostConfig)
	costsMu          sync.RWMutex
)

// RegisterModelCost registers pricing for a model, taking precedence over the
// built-in table.
func RegisterModelCost(model string, cfg ModelCostConfig) {
	costsMu.Lock()
	defer costsMu.Unlock()
	customModelCosts[model] = cfg
}

func modelCost(model string) (ModelCostConfig, bool) {
	costsMu.RLock()
	cfg, ok := customModelCosts[model]
	costsMu.RUnlock()
	if ok {
		return cfg, true
	}
	cfg, ok = defaultModelCosts[model]
	return cfg, ok
}

// EstimateCost estimates the USD cost of the given token usage. Returns nil
// when no tokens were used or the model's pricing is unknown.
func EstimateCost(model string, usage providers.TokenUsage) *CostInfo {
	if usage.PromptTokens == 0 && usage.CompletionTokens == 0 {
		return nil
	}
	cfg, ok := modelCost(model)
	if !ok {
		return nil
	}

	promptCost := float64(usage.PromptTokens) * cfg.InputCostPer1MTokens / 1_000_000.0
	completionCost := float64(usage.CompletionTokens) * cfg.OutputCostPer1MTokens / 1_000_000.0

	return &CostInfo{
		PromptCost:     promptCost,
		CompletionCost: completionCost,
		TotalCost:      promptCost + completionCost,
	}
}
