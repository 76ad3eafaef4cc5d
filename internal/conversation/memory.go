package conversation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store. Useful for testing and development;
// nothing survives process restart.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]Conversation
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]Conversation),
	}
}

// Load retrieves a conversation by its (user, session) key.
func (s *MemoryStore) Load(ctx context.Context, userID, sessionID string) (Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, exists := s.conversations[Key(userID, sessionID)]
	if !exists {
		return Conversation{}, ErrConversationNotFound
	}

	// Copy the turn slice so callers can't mutate stored state.
	turns := make([]Turn, len(conv.Turns))
	copy(turns, conv.Turns)
	conv.Turns = turns

	return conv, nil
}

// Save persists a complete conversation, last write wins.
func (s *MemoryStore) Save(ctx context.Context, conv Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv.UpdatedAt = time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = conv.UpdatedAt
	}
	conv.PendingToolCalls = nil

	turns := make([]Turn, len(conv.Turns))
	copy(turns, conv.Turns)
	conv.Turns = turns

	s.conversations[conv.Key()] = conv
	return nil
}

// Count returns the number of stored conversations. Useful for tests.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

// Clear removes all conversations. Useful for tests.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = make(map[string]Conversation)
}
