// Package conversation holds the conversation data model and the in-memory
// store implementation.
package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrConversationNotFound is returned when a conversation doesn't exist.
var ErrConversationNotFound = errors.New("finchat: conversation not found")

// Role identifies the sender of a turn. The set is closed: consumers switch
// over it exhaustively.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCallRequest is one structured tool invocation requested by an
// assistant turn.
type ToolCallRequest struct {
	CallID    string         `json:"call_id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Turn is one message in a conversation.
//
// ToolCalls is set only on assistant turns that request tool execution.
// ToolCallID and ToolName are set only on tool turns and link the result back
// to the originating call.
type Turn struct {
	ID         string            `json:"id"`
	Role       Role              `json:"role"`
	Content    string            `json:"content"`
	Timestamp  time.Time         `json:"timestamp"`
	ToolCalls  []ToolCallRequest `json:"tool_calls,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	ToolName   string            `json:"tool_name,omitempty"`
}

// NewTurn creates a turn with a fresh ID and timestamp.
func NewTurn(role Role, content string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewToolTurn creates a tool result turn tagged with its originating call.
func NewToolTurn(content, callID, toolName string) Turn {
	t := NewTurn(RoleTool, content)
	t.ToolCallID = callID
	t.ToolName = toolName
	return t
}

// Conversation is the append-only turn log for one (user, session) pair plus
// derived state.
type Conversation struct {
	UserID          string         `json:"user_id"`
	SessionID       string         `json:"session_id"`
	Turns           []Turn         `json:"turns"`
	Context         map[string]any `json:"context,omitempty"`
	EngagementScore float64        `json:"engagement_score"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	// PendingToolCalls holds tool calls awaiting dispatch during a loop run.
	// Transient: cleared after dispatch, never persisted.
	PendingToolCalls []ToolCallRequest `json:"-"`
}

// New creates an empty conversation for a (user, session) pair.
func New(userID, sessionID string) Conversation {
	now := time.Now()
	return Conversation{
		UserID:    userID,
		SessionID: sessionID,
		Context:   map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Key returns the composite identity key for a conversation.
func Key(userID, sessionID string) string {
	return userID + "/" + sessionID
}

// Key returns the conversation's composite identity key.
func (c *Conversation) Key() string {
	return Key(c.UserID, c.SessionID)
}

// Append adds a turn to the end of the log.
func (c *Conversation) Append(turn Turn) {
	c.Turns = append(c.Turns, turn)
	c.UpdatedAt = time.Now()
}

// LastTurn returns the most recent turn, or false when the log is empty.
func (c *Conversation) LastTurn() (*Turn, bool) {
	if len(c.Turns) == 0 {
		return nil, false
	}
	return &c.Turns[len(c.Turns)-1], true
}

// Store persists conversations keyed by (user, session).
//
// Implementations must serialize writes per conversation key; concurrent
// writers to the same session resolve last-write-wins.
type Store interface {
	// Load retrieves a conversation, or ErrConversationNotFound.
	Load(ctx context.Context, userID, sessionID string) (Conversation, error)

	// Save persists the complete conversation state.
	Save(ctx context.Context, conv Conversation) error
}
