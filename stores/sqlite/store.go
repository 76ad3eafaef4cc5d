// Package sqlite provides a SQLite-backed conversation store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/asim800/finchat/internal/conversation"
)

// Store persists conversations in a SQLite database, keyed by
// (user_id, session_id). Turns and context are stored as JSON columns; a
// save replaces the whole row, so concurrent writers to the same session
// resolve last-write-wins.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Writes to one conversation key must serialize; a single connection
	// avoids SQLITE_BUSY races from the pool.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewWithDB creates a store over an existing database connection.
func NewWithDB(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS conversations (
			user_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			turns TEXT NOT NULL,
			context TEXT,
			engagement_score REAL NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (user_id, session_id)
		);
	`)
	return err
}

// Load retrieves a conversation, or conversation.ErrConversationNotFound.
func (s *Store) Load(ctx context.Context, userID, sessionID string) (conversation.Conversation, error) {
	var (
		turnsJSON   string
		contextJSON sql.NullString
		score       float64
		createdAt   string
		updatedAt   string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT turns, context, engagement_score, created_at, updated_at
		FROM conversations WHERE user_id = ? AND session_id = ?
	`, userID, sessionID).Scan(&turnsJSON, &contextJSON, &score, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return conversation.Conversation{}, conversation.ErrConversationNotFound
	}
	if err != nil {
		return conversation.Conversation{}, fmt.Errorf("load conversation: %w", err)
	}

	conv := conversation.Conversation{
		UserID:          userID,
		SessionID:       sessionID,
		EngagementScore: score,
	}

	if err := json.Unmarshal([]byte(turnsJSON), &conv.Turns); err != nil {
		return conversation.Conversation{}, fmt.Errorf("decode turns: %w", err)
	}
	if contextJSON.Valid && contextJSON.String != "" {
		if err := json.Unmarshal([]byte(contextJSON.String), &conv.Context); err != nil {
			return conversation.Conversation{}, fmt.Errorf("decode context: %w", err)
		}
	}
	if conv.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return conversation.Conversation{}, fmt.Errorf("decode created_at: %w", err)
	}
	if conv.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return conversation.Conversation{}, fmt.Errorf("decode updated_at: %w", err)
	}

	return conv, nil
}

// Save upserts the complete conversation state.
func (s *Store) Save(ctx context.Context, conv conversation.Conversation) error {
	turnsJSON, err := json.Marshal(conv.Turns)
	if err != nil {
		return fmt.Errorf("encode turns: %w", err)
	}

	var contextJSON []byte
	if len(conv.Context) > 0 {
		if contextJSON, err = json.Marshal(conv.Context); err != nil {
			return fmt.Errorf("encode context: %w", err)
		}
	}

	createdAt := conv.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (user_id, session_id, turns, context, engagement_score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, session_id) DO UPDATE SET
			turns = excluded.turns,
			context = excluded.context,
			engagement_score = excluded.engagement_score,
			updated_at = excluded.updated_at
	`, conv.UserID, conv.SessionID, string(turnsJSON), nullableString(contextJSON),
		conv.EngagementScore, createdAt.Format(time.RFC3339Nano), time.Now().Format(time.RFC3339Nano))

	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

// Sessions lists the session IDs stored for a user, most recent first.
func (s *Store) Sessions(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id FROM conversations
		WHERE user_id = ? ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, id)
	}
	return sessions, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
