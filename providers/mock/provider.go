// Package mock implements a deterministic Provider for testing.
package mock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/asim800/finchat/providers"
)

// ErrNoResponse is returned when the script of configured responses runs out.
var ErrNoResponse = errors.New("mock: no response configured")

type scripted struct {
	resp *providers.CompletionResponse
	err  error
}

// Provider implements providers.Provider with a fixed script of responses,
// consumed in order. The same script always produces the same loop behavior,
// which makes agent control flow reproducible in tests.
type Provider struct {
	mu        sync.Mutex
	script    []scripted
	callCount int
	requests  []providers.CompletionRequest
}

// New creates an empty mock provider.
func New() *Provider {
	return &Provider{}
}

// WithResponse appends a completion with the given content and tool calls.
func (m *Provider) WithResponse(content string, toolCalls []providers.ToolCall) *Provider {
	m.mu.Lock()
	defer m.mu.Unlock()

	resp := &providers.CompletionResponse{
		ID:           fmt.Sprintf("mock-resp-%d", len(m.script)+1),
		Content:      content,
		ToolCalls:    toolCalls,
		FinishReason: providers.FinishReasonStop,
		Model:        "mock-model",
		Created:      time.Now(),
		Usage: providers.TokenUsage{
			PromptTokens:     10,
			CompletionTokens: 20,
			TotalTokens:      30,
		},
	}
	if len(toolCalls) > 0 {
		resp.FinishReason = providers.FinishReasonToolCalls
	}

	m.script = append(m.script, scripted{resp: resp})
	return m
}

// WithError appends a failing generation step.
func (m *Provider) WithError(err error) *Provider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scripted{err: err})
	return m
}

// Name returns the provider name.
func (m *Provider) Name() string {
	return "mock"
}

// Complete returns the next scripted response or error.
func (m *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	m.requests = append(m.requests, req)

	if len(m.script) == 0 {
		return nil, ErrNoResponse
	}

	next := m.script[0]
	m.script = m.script[1:]
	if next.err != nil {
		return nil, next.err
	}
	return next.resp, nil
}

// CallCount returns how many times Complete was invoked.
func (m *Provider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Requests returns the completion requests seen so far, in call order.
func (m *Provider) Requests() []providers.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]providers.CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}
