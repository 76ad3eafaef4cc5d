// Package middleware defines execution hooks for observability and
// instrumentation of agent runs.
package middleware

import "context"

// Middleware receives callbacks at the loop's external boundaries: run
// start/end, each generation call, and each tool dispatch. Hooks returning a
// context may enrich it; completion hooks run in reverse registration order.
type Middleware interface {
	OnRunStart(ctx context.Context, input string) context.Context
	OnRunComplete(ctx context.Context, output string, err error)
	OnLLMCall(ctx context.Context, req any) context.Context
	OnLLMResponse(ctx context.Context, resp any, err error)
	OnToolStart(ctx context.Context, tool string, args any) context.Context
	OnToolComplete(ctx context.Context, tool string, result any, err error)
}

// BaseMiddleware provides no-op implementations for Middleware. Embed it to
// implement only the hooks you need.
type BaseMiddleware struct{}

func (BaseMiddleware) OnRunStart(ctx context.Context, _ string) context.Context { return ctx }
func (BaseMiddleware) OnRunComplete(context.Context, string, error)             {}
func (BaseMiddleware) OnLLMCall(ctx context.Context, _ any) context.Context     { return ctx }
func (BaseMiddleware) OnLLMResponse(context.Context, any, error)                {}
func (BaseMiddleware) OnToolStart(ctx context.Context, _ string, _ any) context.Context {
	return ctx
}
func (BaseMiddleware) OnToolComplete(context.Context, string, any, error) {}
