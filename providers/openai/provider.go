// Package openai implements the Provider interface on OpenAI's Chat
// Completions API via the go-openai client.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/asim800/finchat/providers"
)

// Provider implements providers.Provider for OpenAI.
type Provider struct {
	client *goopenai.Client
	logger *slog.Logger
}

// New creates an OpenAI provider authenticated with apiKey.
func New(apiKey string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		client: goopenai.NewClient(apiKey),
		logger: logger,
	}
}

// NewWithClient creates a provider around an existing client. Useful for
// pointing at OpenAI-compatible endpoints via goopenai.ClientConfig.
func NewWithClient(client *goopenai.Client, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{client: client, logger: logger}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai"
}

// Complete generates a single chat completion.
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error) {
	apiReq := toAPIRequest(req)

	resp, err := p.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai chat completion: response contained no choices")
	}

	domainResp := fromAPIResponse(&resp)
	p.logger.Debug("completion received",
		"model", resp.Model,
		"finish_reason", domainResp.FinishReason,
		"tool_calls", len(domainResp.ToolCalls))

	return domainResp, nil
}

// toAPIRequest converts a provider-agnostic request to the go-openai request.
func toAPIRequest(req providers.CompletionRequest) goopenai.ChatCompletionRequest {
	messages := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages)+1)

	if req.SystemPrompt != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}

	for _, msg := range req.Messages {
		messages = append(messages, toAPIMessage(msg))
	}

	apiReq := goopenai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	if len(req.Tools) > 0 {
		apiReq.Tools = toAPITools(req.Tools)
		if req.ToolChoice != "" {
			apiReq.ToolChoice = req.ToolChoice
		}
	}

	return apiReq
}

func toAPIMessage(msg providers.Message) goopenai.ChatCompletionMessage {
	out := goopenai.ChatCompletionMessage{
		Role:    string(msg.Role),
		Content: msg.Content,
	}

	if msg.Role == providers.RoleTool {
		out.ToolCallID = msg.ToolCallID
		out.Name = msg.Name
	}

	for _, tc := range msg.ToolCalls {
		args, err := json.Marshal(tc.Arguments)
		if err != nil {
			args = []byte("{}")
		}
		out.ToolCalls = append(out.ToolCalls, goopenai.ToolCall{
			ID:   tc.ID,
			Type: goopenai.ToolTypeFunction,
			Function: goopenai.FunctionCall{
				Name:      tc.Name,
				Arguments: string(args),
			},
		})
	}

	return out
}

func toAPITools(tools []providers.ToolDefinition) []goopenai.Tool {
	apiTools := make([]goopenai.Tool, len(tools))
	for i, t := range tools {
		apiTools[i] = goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return apiTools
}

// fromAPIResponse converts a go-openai response to the provider-agnostic form.
func fromAPIResponse(resp *goopenai.ChatCompletionResponse) *providers.CompletionResponse {
	choice := resp.Choices[0]

	domainResp := &providers.CompletionResponse{
		ID:      resp.ID,
		Content: choice.Message.Content,
		Model:   resp.Model,
		Created: time.Unix(resp.Created, 0),
		Usage: providers.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	for _, tc := range choice.Message.ToolCalls {
		var args map[string]any
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				args = map[string]any{}
			}
		}
		if args == nil {
			args = map[string]any{}
		}
		domainResp.ToolCalls = append(domainResp.ToolCalls, providers.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	switch choice.FinishReason {
	case goopenai.FinishReasonToolCalls:
		domainResp.FinishReason = providers.FinishReasonToolCalls
	case goopenai.FinishReasonLength:
		domainResp.FinishReason = providers.FinishReasonLength
	default:
		if len(domainResp.ToolCalls) > 0 {
			domainResp.FinishReason = providers.FinishReasonToolCalls
		} else {
			domainResp.FinishReason = providers.FinishReasonStop
		}
	}

	return domainResp
}
