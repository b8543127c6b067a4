package handlers

import (
	"errors"
	"net/http"

	"github.com/agoraai/backend/internal/api/request"
	"github.com/agoraai/backend/internal/api/response"
	"github.com/agoraai/backend/internal/auth"
	"github.com/agoraai/backend/internal/models"
	"github.com/agoraai/backend/internal/repository"
)

// ChatHandler manages saved PDF chat sessions
type ChatHandler struct {
	chats *repository.ChatRepository
}

// NewChatHandler creates a new chat history handler
func NewChatHandler(chats *repository.ChatRepository) *ChatHandler {
	return &ChatHandler{chats: chats}
}

// ListSessions handles GET /api/v1/chat-history
func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "")
		return
	}

	sessions, err := h.chats.ListSessionsByUser(r.Context(), user.ID)
	if err != nil {
		response.InternalError(w, "")
		return
	}

	response.Success(w, sessions)
}

// CreateSessionRequest is the body for POST /api/v1/chat-history
type CreateSessionRequest struct {
	PDFFileName string               `json:"pdfFileName"`
	PDFText     string               `json:"pdfText,omitempty"`
	Summary     string               `json:"summary,omitempty"`
	Messages    []models.ChatMessage `json:"messages,omitempty"`
}

// CreateSession handles POST /api/v1/chat-history
func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "")
		return
	}

	var req CreateSessionRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.PDFFileName == "" {
		response.BadRequest(w, "pdfFileName is required")
		return
	}

	session := &models.ChatSession{
		UserID:      user.ID,
		PDFFileName: req.PDFFileName,
		PDFText:     req.PDFText,
		Summary:     req.Summary,
	}
	if err := h.chats.CreateSession(r.Context(), session); err != nil {
		response.InternalError(w, "")
		return
	}

	for i := range req.Messages {
		req.Messages[i].SessionID = session.ID
		if err := h.chats.AddMessage(r.Context(), &req.Messages[i]); err != nil {
			response.InternalError(w, "")
			return
		}
	}
	session.Messages = req.Messages

	response.Created(w, session)
}

// GetSession handles GET /api/v1/chat-history/{sessionID}
func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "")
		return
	}

	sessionID := request.GetURLParam(r, "sessionID")
	session, err := h.chats.GetSession(r.Context(), user.ID, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrChatSessionNotFound) {
			response.NotFound(w, "Chat session not found")
			return
		}
		response.InternalError(w, "")
		return
	}

	response.Success(w, session)
}

// DeleteSession handles DELETE /api/v1/chat-history/{sessionID}
func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "")
		return
	}

	sessionID := request.GetURLParam(r, "sessionID")
	if err := h.chats.DeleteSession(r.Context(), user.ID, sessionID); err != nil {
		if errors.Is(err, repository.ErrChatSessionNotFound) {
			response.NotFound(w, "Chat session not found")
			return
		}
		response.InternalError(w, "")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// AddMessageRequest is the body for POST /api/v1/chat-history/messages
type AddMessageRequest struct {
	SessionID string `json:"sessionId"`
	Role      string `json:"role"`
	Content   string `json:"content"`
}

// AddMessage handles POST /api/v1/chat-history/messages
func (h *ChatHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "")
		return
	}

	var req AddMessageRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.SessionID == "" || req.Content == "" {
		response.BadRequest(w, "sessionId and content are required")
		return
	}
	if req.Role != models.RoleUser && req.Role != models.RoleAssistant {
		response.BadRequest(w, "role must be user or assistant")
		return
	}

	// ownership check before append
	if _, err := h.chats.GetSession(r.Context(), user.ID, req.SessionID); err != nil {
		if errors.Is(err, repository.ErrChatSessionNotFound) {
			response.NotFound(w, "Chat session not found")
			return
		}
		response.InternalError(w, "")
		return
	}

	msg := &models.ChatMessage{
		SessionID: req.SessionID,
		Role:      req.Role,
		Content:   req.Content,
	}
	if err := h.chats.AddMessage(r.Context(), msg); err != nil {
		response.InternalError(w, "")
		return
	}

	response.Created(w, msg)
}
