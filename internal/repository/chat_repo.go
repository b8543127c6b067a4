package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agoraai/backend/internal/database"
	"github.com/agoraai/backend/internal/models"
)

// ErrChatSessionNotFound is returned when a chat session is not found
var ErrChatSessionNotFound = errors.New("chat session not found")

// ChatRepository handles PDF chat sessions and their messages
type ChatRepository struct {
	db *database.DB
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *database.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// CreateSession stores a new chat session
func (r *ChatRepository) CreateSession(ctx context.Context, session *models.ChatSession) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now
	if session.Messages == nil {
		session.Messages = []models.ChatMessage{}
	}

	query := `
		INSERT INTO chat_sessions (id, user_id, pdf_file_name, pdf_text, summary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		session.ID, session.UserID, session.PDFFileName, session.PDFText,
		session.Summary, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create chat session: %w", err)
	}

	return nil
}

// GetSession retrieves a user's chat session with its messages
func (r *ChatRepository) GetSession(ctx context.Context, userID, sessionID string) (*models.ChatSession, error) {
	query := `
		SELECT id, user_id, pdf_file_name, pdf_text, summary, created_at, updated_at
		FROM chat_sessions
		WHERE id = $1 AND user_id = $2
	`
	var session models.ChatSession
	err := r.db.QueryRow(ctx, query, sessionID, userID).Scan(
		&session.ID, &session.UserID, &session.PDFFileName, &session.PDFText,
		&session.Summary, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChatSessionNotFound
		}
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}

	messages, err := r.listMessages(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	session.Messages = messages

	return &session, nil
}

// ListSessionsByUser returns a user's chat sessions with messages,
// most recently updated first
func (r *ChatRepository) ListSessionsByUser(ctx context.Context, userID string) ([]models.ChatSession, error) {
	query := `
		SELECT id, user_id, pdf_file_name, pdf_text, summary, created_at, updated_at
		FROM chat_sessions
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.ChatSession
	for rows.Next() {
		var session models.ChatSession
		err := rows.Scan(&session.ID, &session.UserID, &session.PDFFileName,
			&session.PDFText, &session.Summary, &session.CreatedAt, &session.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chat sessions: %w", err)
	}

	for i := range sessions {
		messages, err := r.listMessages(ctx, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].Messages = messages
	}

	return sessions, nil
}

// DeleteSession removes a user's chat session; messages cascade
func (r *ChatRepository) DeleteSession(ctx context.Context, userID, sessionID string) error {
	rowsAffected, err := r.db.Exec(ctx,
		"DELETE FROM chat_sessions WHERE id = $1 AND user_id = $2", sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete chat session: %w", err)
	}

	if rowsAffected == 0 {
		return ErrChatSessionNotFound
	}

	return nil
}

// AddMessage appends a message to a session and bumps the session's
// updated_at so listings sort by recency
func (r *ChatRepository) AddMessage(ctx context.Context, msg *models.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	query := `
		INSERT INTO chat_messages (id, session_id, role, content, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, msg.ID, msg.SessionID, msg.Role, msg.Content, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to add chat message: %w", err)
	}

	_, err = r.db.Exec(ctx,
		"UPDATE chat_sessions SET updated_at = $2 WHERE id = $1", msg.SessionID, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to touch chat session: %w", err)
	}

	return nil
}

// CountSessions returns the total number of chat sessions
func (r *ChatRepository) CountSessions(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, "SELECT count(*) FROM chat_sessions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chat sessions: %w", err)
	}
	return n, nil
}

func (r *ChatRepository) listMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	query := `
		SELECT id, session_id, role, content, timestamp
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY timestamp ASC
	`
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chat messages: %w", err)
	}

	return messages, nil
}
