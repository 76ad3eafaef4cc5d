package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/asim800/finchat/providers"
)

func TestProvider_ScriptOrder(t *testing.T) {
	p := New().
		WithResponse("first", nil).
		WithResponse("second", []providers.ToolCall{{ID: "call_1", Name: "lookup"}})

	resp, err := p.Complete(context.Background(), providers.CompletionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "first" {
		t.Errorf("expected first response, got %q", resp.Content)
	}
	if resp.FinishReason != providers.FinishReasonStop {
		t.Errorf("expected stop finish reason, got %s", resp.FinishReason)
	}

	resp, err = p.Complete(context.Background(), providers.CompletionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(resp.ToolCalls))
	}
	if resp.FinishReason != providers.FinishReasonToolCalls {
		t.Errorf("expected tool_calls finish reason, got %s", resp.FinishReason)
	}
}

func TestProvider_Exhausted(t *testing.T) {
	p := New()

	if _, err := p.Complete(context.Background(), providers.CompletionRequest{}); !errors.Is(err, ErrNoResponse) {
		t.Errorf("expected ErrNoResponse, got %v", err)
	}
}

func TestProvider_WithError(t *testing.T) {
	boom := errors.New("model unavailable")
	p := New().WithError(boom)

	if _, err := p.Complete(context.Background(), providers.CompletionRequest{}); !errors.Is(err, boom) {
		t.Errorf("expected scripted error, got %v", err)
	}
	if p.CallCount() != 1 {
		t.Errorf("expected call count 1, got %d", p.CallCount())
	}
}

func TestProvider_RecordsRequests(t *testing.T) {
	p := New().WithResponse("ok", nil)

	req := providers.CompletionRequest{Model: "mock-model", SystemPrompt: "sys"}
	if _, err := p.Complete(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := p.Requests()
	if len(got) != 1 {
		t.Fatalf("expected 1 recorded request, got %d", len(got))
	}
	if got[0].SystemPrompt != "sys" {
		t.Errorf("expected system prompt recorded, got %q", got[0].SystemPrompt)
	}
}
