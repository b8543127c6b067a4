package models

import (
	"time"
)

// ChatSession is one PDF conversation: the extracted text, its summary
// and the message history.
type ChatSession struct {
	ID          string        `json:"id" db:"id"`
	UserID      string        `json:"user_id" db:"user_id"`
	PDFFileName string        `json:"pdfFileName" db:"pdf_file_name"`
	PDFText     string        `json:"pdfText" db:"pdf_text"`
	Summary     string        `json:"summary" db:"summary"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" db:"updated_at"`
	Messages    []ChatMessage `json:"messages"`
}

// ChatMessage is a single turn in a chat session.
type ChatMessage struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Role      string    `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// Chat message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
