package finchat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/asim800/finchat/internal/conversation"
	"github.com/asim800/finchat/internal/retry"
	"github.com/asim800/finchat/providers"
)

// TerminatedReason reports how a loop run ended.
type TerminatedReason string

const (
	// TerminatedNatural means generation produced no further tool-call
	// request and the loop ended on its own.
	TerminatedNatural TerminatedReason = "natural"

	// TerminatedMaxIterations means the iteration ceiling was hit while the
	// model was still requesting tools. Normal termination, not an error.
	TerminatedMaxIterations TerminatedReason = "max_iterations"

	// TerminatedCancelled means the caller's context was cancelled.
	TerminatedCancelled TerminatedReason = "cancelled"
)

// RunResult is the outcome of one loop run.
type RunResult struct {
	// Response is the content of every assistant turn produced during this
	// run, joined with a blank line.
	Response string

	// SessionID identifies the conversation; generated when the caller
	// passed none.
	SessionID string

	// MessageID is the ID of the last assistant turn of the run.
	MessageID string

	// InteractionID uniquely identifies this run for evaluation linkage.
	InteractionID string

	EngagementScore  float64
	TerminatedReason TerminatedReason

	// Iterations is the number of generation passes consumed.
	Iterations int

	// Truncated is set when the run hit the iteration ceiling.
	Truncated bool

	Usage providers.TokenUsage

	// Cost is the estimated USD cost of the run's generations; nil when the
	// model's pricing is unknown.
	Cost *CostInfo
}

// contextKeyRecentHistory is the conversation context key holding the cached
// trailing window of turns.
const contextKeyRecentHistory = "recent_history"

// Run executes one loop pass for a user message: load or create the
// conversation, append the user turn, alternate generation and tool dispatch
// until termination, update the engagement score, and persist.
//
// Only generation and storage failures cross this boundary. A generation
// failure is fatal and nothing is persisted. A storage failure is returned
// alongside a valid result, since the computation itself succeeded.
func (a *Agent) Run(ctx context.Context, message, userID, sessionID string) (*RunResult, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	startTime := time.Now()
	ctx, endTrace := a.tracer.StartTrace(ctx, "agent.run",
		WithTraceUserID(userID),
		WithTraceSessionID(sessionID),
		WithTraceInput(message),
		WithTraceMetadata(map[string]any{"agent_name": a.agentName, "tool_mode": string(a.toolMode)}),
	)
	defer endTrace()

	ctx, cancel := a.withRunTimeout(ctx)
	if cancel != nil {
		defer cancel()
	}

	ctx = withSession(ctx, userID, sessionID)
	ctx = a.applyRunStart(ctx, message)

	conv, err := a.loadOrCreate(ctx, userID, sessionID)
	if err != nil {
		a.applyRunComplete(ctx, "", err)
		return nil, err
	}

	conv.Append(conversation.NewTurn(RoleUser, message))
	runStart := len(conv.Turns)

	a.logger.Debug("run started",
		"user_id", userID,
		"session_id", sessionID,
		"history_turns", runStart,
		"tool_mode", a.toolMode)

	reason, iterations, usage, runErr := a.runLoop(ctx, &conv)
	if runErr != nil {
		// Fatal generation failure: nothing persisted.
		a.applyRunComplete(ctx, "", runErr)
		return nil, runErr
	}

	conv.EngagementScore = a.scorer(conv.Turns, time.Now())

	result := &RunResult{
		Response:         a.assembleResponse(&conv, runStart),
		SessionID:        sessionID,
		MessageID:        lastAssistantID(&conv, runStart),
		InteractionID:    uuid.NewString(),
		EngagementScore:  conv.EngagementScore,
		TerminatedReason: reason,
		Iterations:       iterations,
		Truncated:        reason == TerminatedMaxIterations,
		Usage:            usage,
		Cost:             EstimateCost(a.model, usage),
	}

	// Persist exactly once, at the very end. The save must not be aborted by
	// the caller's cancellation: the run's result is already final.
	saveErr := a.store.Save(context.WithoutCancel(ctx), conv)
	if saveErr != nil {
		saveErr = &StorageError{Op: "save", Err: saveErr}
		a.logger.Error("conversation save failed",
			"session_id", sessionID, "error", saveErr)
	}

	a.applyRunComplete(ctx, result.Response, saveErr)
	a.logger.Info("run completed",
		"session_id", sessionID,
		"iterations", iterations,
		"reason", reason,
		"engagement_score", result.EngagementScore,
		"duration_ms", time.Since(startTime).Milliseconds())

	return result, saveErr
}

func (a *Agent) loadOrCreate(ctx context.Context, userID, sessionID string) (Conversation, error) {
	conv, err := a.store.Load(ctx, userID, sessionID)
	if err == nil {
		return conv, nil
	}
	if errors.Is(err, ErrConversationNotFound) {
		return conversation.New(userID, sessionID), nil
	}
	return Conversation{}, &StorageError{Op: "load", Err: err}
}

// runLoop alternates generation and tool dispatch until the model stops
// requesting tools, the iteration ceiling is hit, or ctx is cancelled.
func (a *Agent) runLoop(ctx context.Context, conv *Conversation) (TerminatedReason, int, providers.TokenUsage, error) {
	var totalUsage providers.TokenUsage
	iterations := 0

	for iteration := 0; iteration < a.maxIterations; iteration++ {
		if ctx.Err() != nil {
			a.logger.Warn("run cancelled before generation", "iteration", iteration)
			return TerminatedCancelled, iterations, totalUsage, nil
		}

		a.cacheRecentHistory(conv)

		resp, err := a.generate(ctx, conv)
		if err != nil {
			return TerminatedNatural, iterations, totalUsage, err
		}
		iterations = iteration + 1

		totalUsage.PromptTokens += resp.Usage.PromptTokens
		totalUsage.CompletionTokens += resp.Usage.CompletionTokens
		totalUsage.TotalTokens += resp.Usage.TotalTokens

		var dispatched bool
		var cancelled bool
		switch a.toolMode {
		case ToolModeText:
			dispatched, cancelled = a.stepText(ctx, conv, resp)
		default:
			dispatched, cancelled = a.stepStructured(ctx, conv, resp)
		}

		if cancelled {
			return TerminatedCancelled, iterations, totalUsage, nil
		}
		if !dispatched {
			a.logger.Debug("loop terminated naturally", "iterations", iterations)
			return TerminatedNatural, iterations, totalUsage, nil
		}
	}

	a.logger.Warn("max iterations reached", "max", a.maxIterations)
	return TerminatedMaxIterations, iterations, totalUsage, nil
}

// cacheRecentHistory refreshes the trailing-window slice in the conversation
// context. History order is never mutated.
func (a *Agent) cacheRecentHistory(conv *Conversation) {
	window := a.contextWindow
	if window > len(conv.Turns) {
		window = len(conv.Turns)
	}
	recent := make([]Turn, window)
	copy(recent, conv.Turns[len(conv.Turns)-window:])
	if conv.Context == nil {
		conv.Context = map[string]any{}
	}
	conv.Context[contextKeyRecentHistory] = recent
}

// generate invokes the provider once over the full ordered history. Failures
// are wrapped as *GenerationError and are fatal for the run.
func (a *Agent) generate(ctx context.Context, conv *Conversation) (*providers.CompletionResponse, error) {
	req := providers.CompletionRequest{
		Model:        a.model,
		SystemPrompt: a.buildSystemPrompt(ctx),
		Messages:     a.toProviderMessages(conv),
		Temperature:  a.temperature,
	}
	if a.toolMode == ToolModeStructured && a.registry.Len() > 0 {
		req.Tools = a.registry.Definitions()
		req.ToolChoice = "auto"
	}

	callCtx := a.applyLLMCall(ctx, req)
	callCtx, cancel := a.withLLMTimeout(callCtx)
	if cancel != nil {
		defer cancel()
	}

	callStart := time.Now()
	resp, err := retry.Do(callCtx, a.retryConfig, func() (*providers.CompletionResponse, error) {
		return a.provider.Complete(callCtx, req)
	})
	a.applyLLMResponse(callCtx, resp, err)
	a.logGeneration(ctx, req, resp, err, callStart)

	if err != nil {
		genErr := &GenerationError{Model: a.model, Err: err}
		a.logger.Error("generation failed", "model", a.model, "error", err)
		return nil, genErr
	}

	if a.loggingConfig.LogResponses {
		a.logger.Info("completion received",
			"content_length", len(resp.Content),
			"tool_calls", len(resp.ToolCalls),
			"finish_reason", resp.FinishReason)
	}

	return resp, nil
}

// stepStructured appends the assistant turn and dispatches its structured
// tool calls. Returns whether any dispatch happened (the loop continues) and
// whether the run was cancelled mid-dispatch.
func (a *Agent) stepStructured(ctx context.Context, conv *Conversation, resp *providers.CompletionResponse) (dispatched, cancelled bool) {
	turn := conversation.NewTurn(RoleAssistant, resp.Content)
	calls := toToolCallRequests(resp.ToolCalls)
	turn.ToolCalls = calls
	conv.Append(turn)

	if len(calls) == 0 {
		return false, false
	}

	conv.PendingToolCalls = calls
	defer func() { conv.PendingToolCalls = nil }()

	for _, call := range calls {
		if ctx.Err() != nil {
			a.logger.Warn("run cancelled before tool dispatch", "tool", call.Name)
			return true, true
		}
		content := a.dispatch(ctx, call.Name, call.Arguments)
		conv.Append(conversation.NewToolTurn(content, call.CallID, call.Name))
	}

	return true, false
}

// stepText appends the assistant turn, parses it for an action pattern, and
// dispatches at most one synthesized tool call. The observation is appended
// inline to the assistant turn's content rather than as a separate turn, so
// the model can continue the linear transcript.
func (a *Agent) stepText(ctx context.Context, conv *Conversation, resp *providers.CompletionResponse) (dispatched, cancelled bool) {
	conv.Append(conversation.NewTurn(RoleAssistant, resp.Content))

	action, ok := ParseAction(resp.Content)
	if !ok {
		return false, false
	}

	if ctx.Err() != nil {
		a.logger.Warn("run cancelled before tool dispatch", "tool", action.Name)
		return true, true
	}

	args, bindErr := a.bindTextInput(action)
	var observation string
	if bindErr != nil {
		a.logger.Warn("text-mode dispatch not possible", "tool", action.Name, "error", bindErr)
		observation = fmt.Sprintf("Error executing tool: %v", bindErr)
	} else {
		observation = a.dispatch(ctx, action.Name, args)
	}

	last, _ := conv.LastTurn()
	last.Content += "\nObservation: " + observation + "\nThought:"

	return true, false
}

// bindTextInput maps the raw Action Input onto the tool's declared
// parameters. One parameter binds the whole input; zero parameters take no
// arguments; more than one cannot be disambiguated from free text.
func (a *Agent) bindTextInput(action ActionRequest) (map[string]any, error) {
	tool, ok := a.registry.Resolve(action.Name)
	if !ok {
		// Resolution failure is reported by dispatch with the standard
		// not-found observation.
		return nil, nil
	}

	params := tool.ParameterNames()
	switch len(params) {
	case 0:
		return map[string]any{}, nil
	case 1:
		return map[string]any{params[0]: action.Input}, nil
	default:
		return nil, &UnsupportedDispatchError{Tool: action.Name, ParamCount: len(params)}
	}
}

// dispatch resolves and executes one tool call, converting every failure
// into observation content. Tool errors never abort the run.
func (a *Agent) dispatch(ctx context.Context, name string, args map[string]any) string {
	tool, ok := a.registry.Resolve(name)
	if !ok {
		a.logger.Warn("tool not found", "tool", name)
		return fmt.Sprintf("Error: Tool '%s' not found", name)
	}

	toolCtx, endSpan := a.tracer.StartSpan(ctx, "tool."+name,
		WithSpanType(SpanTypeTool),
		WithSpanInput(args),
	)
	defer endSpan()

	toolCtx = a.applyToolStart(toolCtx, name, args)
	toolCtx, cancel := a.withToolTimeout(toolCtx)
	if cancel != nil {
		defer cancel()
	}

	result, err := retry.Do(toolCtx, a.retryConfig, func() (string, error) {
		return tool.Execute(toolCtx, args)
	})
	a.applyToolComplete(toolCtx, name, result, err)

	if err != nil {
		a.logger.Error("tool execution failed", "tool", name, "error", err)
		return fmt.Sprintf("Error executing tool: %v", err)
	}

	if a.loggingConfig.LogToolCalls {
		a.logger.Info("tool executed", "tool", name, "result_length", len(result))
	}
	return result
}

// toProviderMessages converts the turn log into the provider message format.
func (a *Agent) toProviderMessages(conv *Conversation) []providers.Message {
	messages := make([]providers.Message, 0, len(conv.Turns))
	for _, turn := range conv.Turns {
		switch turn.Role {
		case RoleUser:
			messages = append(messages, providers.Message{
				Role:    providers.RoleUser,
				Content: turn.Content,
			})
		case RoleAssistant:
			messages = append(messages, providers.Message{
				Role:      providers.RoleAssistant,
				Content:   turn.Content,
				ToolCalls: toProviderToolCalls(turn.ToolCalls),
			})
		case RoleTool:
			messages = append(messages, providers.Message{
				Role:       providers.RoleTool,
				Content:    turn.Content,
				ToolCallID: turn.ToolCallID,
				Name:       turn.ToolName,
			})
		}
	}
	return messages
}

// assembleResponse joins the content of every assistant turn produced during
// the current run with a blank line. Falls back to the last turn's content
// when the run produced no assistant turn.
func (a *Agent) assembleResponse(conv *Conversation, runStart int) string {
	var parts []string
	for _, turn := range conv.Turns[runStart:] {
		if turn.Role == RoleAssistant && turn.Content != "" {
			parts = append(parts, turn.Content)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n\n")
	}
	if last, ok := conv.LastTurn(); ok {
		return last.Content
	}
	return ""
}

func lastAssistantID(conv *Conversation, runStart int) string {
	for i := len(conv.Turns) - 1; i >= runStart; i-- {
		if conv.Turns[i].Role == RoleAssistant {
			return conv.Turns[i].ID
		}
	}
	return ""
}

func (a *Agent) logGeneration(ctx context.Context, req providers.CompletionRequest, resp *providers.CompletionResponse, err error, start time.Time) {
	if _, isNoOp := a.tracer.(*NoOpTracer); isNoOp {
		return
	}

	gen := GenerationOptions{
		Name:  "llm.generate",
		Model: req.Model,
		ModelParameters: map[string]any{
			"temperature": req.Temperature,
			"tool_choice": req.ToolChoice,
		},
		Input: map[string]any{
			"system_prompt": req.SystemPrompt,
			"messages":      req.Messages,
			"tools":         req.Tools,
		},
		StartTime: start,
		EndTime:   time.Now(),
		Level:     LogLevelDefault,
	}

	if resp != nil {
		gen.Output = map[string]any{
			"content":       resp.Content,
			"tool_calls":    resp.ToolCalls,
			"finish_reason": resp.FinishReason,
		}
		gen.Usage = &UsageInfo{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	} else if err != nil {
		gen.Output = map[string]any{"error": err.Error()}
		gen.Level = LogLevelError
		gen.StatusMessage = err.Error()
	}

	_ = a.tracer.LogGeneration(ctx, gen)
}

// toToolCallRequests converts provider tool calls into conversation records,
// assigning IDs to any call the provider left without one so tool turns can
// always reference their originating call.
func toToolCallRequests(calls []providers.ToolCall) []ToolCallRequest {
	if len(calls) == 0 {
		return nil
	}
	out := make([]ToolCallRequest, 0, len(calls))
	for _, c := range calls {
		if c.Name == "" {
			continue
		}
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		args := c.Arguments
		if args == nil {
			args = map[string]any{}
		}
		out = append(out, ToolCallRequest{CallID: id, Name: c.Name, Arguments: args})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func toProviderToolCalls(calls []ToolCallRequest) []providers.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]providers.ToolCall, 0, len(calls))
	for _, c := range calls {
		out = append(out, providers.ToolCall{ID: c.CallID, Name: c.Name, Arguments: c.Arguments})
	}
	return out
}
