package openai

import (
	"testing"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/asim800/finchat/providers"
)

func TestToAPIRequestSystemPrompt(t *testing.T) {
	req := providers.CompletionRequest{
		Model:        "gpt-4o-mini",
		SystemPrompt: "You are a financial assistant.",
		Messages: []providers.Message{
			{Role: providers.RoleUser, Content: "hi"},
		},
		Temperature: 0.7,
	}

	apiReq := toAPIRequest(req)
	if len(apiReq.Messages) != 2 {
		t.Fatalf("messages = %d, want 2 (system + user)", len(apiReq.Messages))
	}
	if apiReq.Messages[0].Role != goopenai.ChatMessageRoleSystem {
		t.Errorf("first message role = %q, want system", apiReq.Messages[0].Role)
	}
	if apiReq.Messages[0].Content != "You are a financial assistant." {
		t.Errorf("system content = %q", apiReq.Messages[0].Content)
	}
	if apiReq.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", apiReq.Model)
	}
}

func TestToAPIRequestNoSystemPrompt(t *testing.T) {
	req := providers.CompletionRequest{
		Model:    "gpt-4o-mini",
		Messages: []providers.Message{{Role: providers.RoleUser, Content: "hi"}},
	}

	apiReq := toAPIRequest(req)
	if len(apiReq.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(apiReq.Messages))
	}
}

func TestToAPIRequestToolMessages(t *testing.T) {
	req := providers.CompletionRequest{
		Model: "gpt-4o-mini",
		Messages: []providers.Message{
			{
				Role:    providers.RoleAssistant,
				Content: "checking",
				ToolCalls: []providers.ToolCall{
					{ID: "call_1", Name: "lookup", Arguments: map[string]any{"symbol": "AAPL"}},
				},
			},
			{
				Role:       providers.RoleTool,
				Content:    "Apple $150",
				ToolCallID: "call_1",
				Name:       "lookup",
			},
		},
	}

	apiReq := toAPIRequest(req)
	assistant := apiReq.Messages[0]
	if len(assistant.ToolCalls) != 1 {
		t.Fatalf("assistant tool calls = %d, want 1", len(assistant.ToolCalls))
	}
	if assistant.ToolCalls[0].Function.Name != "lookup" {
		t.Errorf("tool call name = %q", assistant.ToolCalls[0].Function.Name)
	}
	if assistant.ToolCalls[0].Function.Arguments == "" {
		t.Error("tool call arguments not serialized")
	}

	tool := apiReq.Messages[1]
	if tool.ToolCallID != "call_1" || tool.Name != "lookup" {
		t.Errorf("tool message = %+v, want call_1/lookup linkage", tool)
	}
}

func TestToAPIRequestTools(t *testing.T) {
	req := providers.CompletionRequest{
		Model:    "gpt-4o-mini",
		Messages: []providers.Message{{Role: providers.RoleUser, Content: "hi"}},
		Tools: []providers.ToolDefinition{
			{Name: "lookup", Description: "Look up a stock", Parameters: map[string]any{"type": "object"}},
		},
		ToolChoice: "auto",
	}

	apiReq := toAPIRequest(req)
	if len(apiReq.Tools) != 1 {
		t.Fatalf("tools = %d, want 1", len(apiReq.Tools))
	}
	if apiReq.Tools[0].Function.Name != "lookup" {
		t.Errorf("tool name = %q", apiReq.Tools[0].Function.Name)
	}
	if apiReq.ToolChoice != "auto" {
		t.Errorf("tool choice = %v, want auto", apiReq.ToolChoice)
	}
}

func TestFromAPIResponseToolCalls(t *testing.T) {
	resp := &goopenai.ChatCompletionResponse{
		ID:    "resp-1",
		Model: "gpt-4o-mini",
		Choices: []goopenai.ChatCompletionChoice{
			{
				Message: goopenai.ChatCompletionMessage{
					Content: "checking",
					ToolCalls: []goopenai.ToolCall{
						{
							ID:   "call_1",
							Type: goopenai.ToolTypeFunction,
							Function: goopenai.FunctionCall{
								Name:      "lookup",
								Arguments: `{"symbol":"AAPL"}`,
							},
						},
					},
				},
				FinishReason: goopenai.FinishReasonToolCalls,
			},
		},
		Usage: goopenai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}

	domain := fromAPIResponse(resp)
	if domain.FinishReason != providers.FinishReasonToolCalls {
		t.Errorf("finish reason = %q, want tool_calls", domain.FinishReason)
	}
	if len(domain.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(domain.ToolCalls))
	}
	call := domain.ToolCalls[0]
	if call.ID != "call_1" || call.Name != "lookup" {
		t.Errorf("call = %+v", call)
	}
	if call.Arguments["symbol"] != "AAPL" {
		t.Errorf("arguments = %v", call.Arguments)
	}
	if domain.Usage.TotalTokens != 15 {
		t.Errorf("usage = %+v", domain.Usage)
	}
}

func TestFromAPIResponseMalformedArguments(t *testing.T) {
	resp := &goopenai.ChatCompletionResponse{
		Choices: []goopenai.ChatCompletionChoice{
			{
				Message: goopenai.ChatCompletionMessage{
					ToolCalls: []goopenai.ToolCall{
						{
							ID:       "call_1",
							Function: goopenai.FunctionCall{Name: "lookup", Arguments: "{not json"},
						},
					},
				},
			},
		},
	}

	domain := fromAPIResponse(resp)
	if len(domain.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(domain.ToolCalls))
	}
	if domain.ToolCalls[0].Arguments == nil {
		t.Error("malformed arguments should decode to an empty map, not nil")
	}
}

func TestFromAPIResponsePlainText(t *testing.T) {
	resp := &goopenai.ChatCompletionResponse{
		Choices: []goopenai.ChatCompletionChoice{
			{
				Message:      goopenai.ChatCompletionMessage{Content: "hello"},
				FinishReason: goopenai.FinishReasonStop,
			},
		},
	}

	domain := fromAPIResponse(resp)
	if domain.Content != "hello" {
		t.Errorf("content = %q", domain.Content)
	}
	if domain.FinishReason != providers.FinishReasonStop {
		t.Errorf("finish reason = %q, want stop", domain.FinishReason)
	}
}

func TestProviderName(t *testing.T) {
	p := New("test-key", nil)
	if p.Name() != "openai" {
		t.Errorf("Name() = %q, want openai", p.Name())
	}
}
