// Package finchat provides a conversational agent framework: a loop that
// alternates between model generation and tool invocation, with persistent
// multi-turn conversation state and engagement scoring.
package finchat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/asim800/finchat/internal/conversation"
	"github.com/asim800/finchat/internal/retry"
	"github.com/asim800/finchat/middleware"
	"github.com/asim800/finchat/providers"
	"github.com/asim800/finchat/providers/openai"
)

// Type aliases for internal package types
type (
	Conversation      = conversation.Conversation
	Turn              = conversation.Turn
	Role              = conversation.Role
	ToolCallRequest   = conversation.ToolCallRequest
	ConversationStore = conversation.Store
	RetryConfig       = retry.Config
	Middleware        = middleware.Middleware
)

// Role re-exports
const (
	RoleUser      = conversation.RoleUser
	RoleAssistant = conversation.RoleAssistant
	RoleTool      = conversation.RoleTool
)

// Function re-exports for convenience
var (
	NewMemoryStore          = conversation.NewMemoryStore
	NewConversation         = conversation.New
	DefaultRetryConfig      = retry.DefaultConfig
	ErrConversationNotFound = conversation.ErrConversationNotFound
)

// ToolMode selects how the model requests tool execution.
type ToolMode string

const (
	// ToolModeStructured uses the provider's native function-calling:
	// generations carry structured tool-call requests.
	ToolModeStructured ToolMode = "structured"

	// ToolModeText parses free-text Action / Action Input markers from the
	// generated text and feeds results back as inline observations.
	ToolModeText ToolMode = "text"
)

// SystemPromptFunc builds the system prompt from context.
type SystemPromptFunc func(ctx context.Context) string

// StaticPrompt wraps a fixed string as a SystemPromptFunc.
func StaticPrompt(prompt string) SystemPromptFunc {
	return func(context.Context) string { return prompt }
}

// maxIterationCeiling is the hard upper bound on the configurable iteration
// limit. Tool-call ping-pong must not be unbounded.
const maxIterationCeiling = 100

// Agent runs the conversation loop for one fixed configuration. It is safe
// for concurrent use across distinct (user, session) pairs; the tool
// registry is read-only after construction.
type Agent struct {
	provider      providers.Provider
	model         string
	systemPrompt  SystemPromptFunc
	registry      *Registry
	toolMode      ToolMode
	maxIterations int
	contextWindow int
	temperature   float32
	retryConfig   RetryConfig
	timeoutConfig TimeoutConfig
	loggingConfig LoggingConfig
	logger        *slog.Logger
	store         ConversationStore
	scorer        EngagementScorer
	tracer        Tracer
	middlewares   []Middleware
	agentName     string
}

// Config holds agent configuration. Values are frozen at construction and
// validated once.
type Config struct {
	// APIKey creates a default OpenAI provider when Provider is nil.
	APIKey string

	// Provider overrides the generation backend.
	Provider providers.Provider

	Model         string
	SystemPrompt  SystemPromptFunc
	Tools         []Tool
	ToolMode      ToolMode
	MaxIterations int

	// ContextWindow is the number of trailing turns cached as the recent
	// history slice on each loop pass.
	ContextWindow int

	Temperature float32
	Retry       *RetryConfig
	Timeout     *TimeoutConfig
	Logging     *LoggingConfig

	// Store persists conversations. Defaults to an in-memory store.
	Store ConversationStore

	Tracer Tracer

	// Scorer overrides the engagement formula.
	Scorer EngagementScorer

	AgentName string
}

// Common validation errors.
var (
	ErrMissingAPIKey        = errors.New("finchat: APIKey is required")
	ErrInvalidIterations    = fmt.Errorf("finchat: MaxIterations must be between 1 and %d", maxIterationCeiling)
	ErrInvalidTemperature   = errors.New("finchat: Temperature must be between 0.0 and 2.0")
	ErrInvalidContextWindow = errors.New("finchat: ContextWindow must be at least 1")
	ErrInvalidToolMode      = errors.New("finchat: ToolMode must be structured or text")
)

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.APIKey == "" && c.Provider == nil {
		return ErrMissingAPIKey
	}
	if c.MaxIterations < 0 || c.MaxIterations > maxIterationCeiling {
		return ErrInvalidIterations
	}
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return ErrInvalidTemperature
	}
	if c.ContextWindow < 0 {
		return ErrInvalidContextWindow
	}
	if c.ToolMode != "" && c.ToolMode != ToolModeStructured && c.ToolMode != ToolModeText {
		return ErrInvalidToolMode
	}
	return nil
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Model:         "gpt-4o-mini",
		ToolMode:      ToolModeStructured,
		MaxIterations: 5,
		ContextWindow: 10,
		Temperature:   0.7,
	}
}

// New creates a new agent with the given configuration.
func New(cfg Config) (*Agent, error) {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.ToolMode == "" {
		cfg.ToolMode = ToolModeStructured
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = 5
	}
	if cfg.ContextWindow == 0 {
		cfg.ContextWindow = 10
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent config: %w", err)
	}

	loggingConfig := DefaultLoggingConfig()
	if cfg.Logging != nil {
		loggingConfig = *cfg.Logging
	}
	logger := resolveLogger(loggingConfig)

	retryConfig := DefaultRetryConfig()
	if cfg.Retry != nil {
		retryConfig = *cfg.Retry
	}

	timeoutConfig := DefaultTimeoutConfig()
	if cfg.Timeout != nil {
		timeoutConfig = *cfg.Timeout
	}

	provider := cfg.Provider
	if provider == nil {
		provider = openai.New(cfg.APIKey, logger)
	}

	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = &NoOpTracer{}
	}

	scorer := cfg.Scorer
	if scorer == nil {
		scorer = DefaultEngagementScorer
	}

	agentName := cfg.AgentName
	if agentName == "" {
		agentName = cfg.Model
	}

	registry := NewRegistry(cfg.Tools...)

	// Text mode binds the raw Action Input to a tool's single declared
	// parameter; a multi-parameter tool can never be dispatched there.
	if cfg.ToolMode == ToolModeText {
		for _, name := range registry.Names() {
			tool, _ := registry.Resolve(name)
			if len(tool.ParameterNames()) > 1 {
				logger.Warn("tool is not dispatchable in text mode",
					"tool", name,
					"parameters", len(tool.ParameterNames()))
			}
		}
	}

	return &Agent{
		provider:      provider,
		model:         cfg.Model,
		systemPrompt:  cfg.SystemPrompt,
		registry:      registry,
		toolMode:      cfg.ToolMode,
		maxIterations: cfg.MaxIterations,
		contextWindow: cfg.ContextWindow,
		temperature:   cfg.Temperature,
		retryConfig:   retryConfig,
		timeoutConfig: timeoutConfig,
		loggingConfig: loggingConfig,
		logger:        logger,
		store:         store,
		scorer:        scorer,
		tracer:        tracer,
		agentName:     agentName,
	}, nil
}

// Tools returns the names of the agent's registered tools, sorted.
func (a *Agent) Tools() []string {
	return a.registry.Names()
}

// Use registers middleware for execution hooks.
func (a *Agent) Use(m Middleware) {
	if m == nil {
		return
	}
	a.middlewares = append(a.middlewares, m)
}

// GetConversation loads a conversation from the configured store.
func (a *Agent) GetConversation(ctx context.Context, userID, sessionID string) (Conversation, error) {
	return a.store.Load(ctx, userID, sessionID)
}

// Middleware application methods
func (a *Agent) applyRunStart(ctx context.Context, input string) context.Context {
	for _, m := range a.middlewares {
		ctx = m.OnRunStart(ctx, input)
	}
	return ctx
}

func (a *Agent) applyRunComplete(ctx context.Context, output string, err error) {
	for i := len(a.middlewares) - 1; i >= 0; i-- {
		a.middlewares[i].OnRunComplete(ctx, output, err)
	}
}

func (a *Agent) applyLLMCall(ctx context.Context, req any) context.Context {
	for _, m := range a.middlewares {
		ctx = m.OnLLMCall(ctx, req)
	}
	return ctx
}

func (a *Agent) applyLLMResponse(ctx context.Context, resp any, err error) {
	for i := len(a.middlewares) - 1; i >= 0; i-- {
		a.middlewares[i].OnLLMResponse(ctx, resp, err)
	}
}

func (a *Agent) applyToolStart(ctx context.Context, tool string, args any) context.Context {
	for _, m := range a.middlewares {
		ctx = m.OnToolStart(ctx, tool, args)
	}
	return ctx
}

func (a *Agent) applyToolComplete(ctx context.Context, tool string, result any, err error) {
	for i := len(a.middlewares) - 1; i >= 0; i-- {
		a.middlewares[i].OnToolComplete(ctx, tool, result, err)
	}
}

// Timeout helpers
func (a *Agent) withRunTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeoutConfig.RunExecution <= 0 {
		return ctx, nil
	}
	return context.WithTimeout(ctx, a.timeoutConfig.RunExecution)
}

func (a *Agent) withLLMTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeoutConfig.LLMCall <= 0 {
		return ctx, nil
	}
	return context.WithTimeout(ctx, a.timeoutConfig.LLMCall)
}

func (a *Agent) withToolTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeoutConfig.ToolExecution <= 0 {
		return ctx, nil
	}
	return context.WithTimeout(ctx, a.timeoutConfig.ToolExecution)
}

// buildSystemPrompt renders the configured prompt. In text mode the tool
// catalog and the Action / Action Input convention are disclosed through the
// prompt because the provider's native tool-calling is not used.
func (a *Agent) buildSystemPrompt(ctx context.Context) string {
	var base string
	if a.systemPrompt != nil {
		base = a.systemPrompt(ctx)
	}

	if a.toolMode != ToolModeText || a.registry.Len() == 0 {
		return base
	}

	var b strings.Builder
	if base != "" {
		b.WriteString(base)
		b.WriteString("\n\n")
	}
	b.WriteString("You have access to the following tools:\n")
	for _, name := range a.registry.Names() {
		tool, _ := a.registry.Resolve(name)
		fmt.Fprintf(&b, "- %s: %s\n", name, tool.Description())
	}
	b.WriteString("\nTo use a tool, respond with:\n")
	b.WriteString("Action: <tool name>\n")
	b.WriteString("Action Input: <input>\n")
	b.WriteString("\nThe result will be returned as an Observation. ")
	b.WriteString("When you have the final answer, respond with it directly.")
	return b.String()
}
