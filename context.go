package finchat

import (
	"context"
	"errors"
)

// ErrDepsNotFound is returned when dependencies are not found in context.
var ErrDepsNotFound = errors.New("finchat: dependencies not found in context")

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const (
	depsKey    contextKey = "finchat_deps"
	sessionKey contextKey = "finchat_session"
)

// SessionInfo identifies the conversation a tool invocation belongs to.
type SessionInfo struct {
	UserID    string
	SessionID string
}

// WithDeps adds caller-owned dependencies (database handles, API clients) to
// the context so tool handlers can reach them.
func WithDeps(ctx context.Context, deps any) context.Context {
	return context.WithValue(ctx, depsKey, deps)
}

// GetDeps retrieves dependencies from the context.
func GetDeps[T any](ctx context.Context) (T, error) {
	deps, ok := ctx.Value(depsKey).(T)
	if !ok {
		var zero T
		return zero, ErrDepsNotFound
	}
	return deps, nil
}

func withSession(ctx context.Context, userID, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey, SessionInfo{UserID: userID, SessionID: sessionID})
}

// GetSession retrieves the conversation identity from a tool handler's
// context. It is set for every dispatch made by a loop run.
func GetSession(ctx context.Context) (SessionInfo, bool) {
	info, ok := ctx.Value(sessionKey).(SessionInfo)
	return info, ok
}
