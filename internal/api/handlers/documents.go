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

// DocumentHandler manages the user's exported-document metadata
type DocumentHandler struct {
	docs *repository.DocumentRepository
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docs *repository.DocumentRepository) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

// List handles GET /api/v1/documents
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "")
		return
	}

	docs, err := h.docs.ListByUser(r.Context(), user.ID)
	if err != nil {
		response.InternalError(w, "")
		return
	}

	response.Success(w, docs)
}

// CreateDocumentRequest is the body for POST /api/v1/documents
type CreateDocumentRequest struct {
	FileName       string `json:"fileName"`
	MimeType       string `json:"mimeType"`
	DriveFileID    string `json:"driveFileId"`
	WebViewLink    string `json:"webViewLink,omitempty"`
	WebContentLink string `json:"webContentLink,omitempty"`
	FileSize       int64  `json:"fileSize"`
}

// Create handles POST /api/v1/documents
// Records metadata for a file already placed in Drive (client-side export).
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "")
		return
	}

	var req CreateDocumentRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.FileName == "" || req.DriveFileID == "" {
		response.BadRequest(w, "fileName and driveFileId are required")
		return
	}

	doc := &models.Document{
		UserID:         user.ID,
		FileName:       req.FileName,
		MimeType:       req.MimeType,
		DriveFileID:    req.DriveFileID,
		WebViewLink:    req.WebViewLink,
		WebContentLink: req.WebContentLink,
		FileSize:       req.FileSize,
	}
	if err := h.docs.Create(r.Context(), doc); err != nil {
		response.InternalError(w, "")
		return
	}

	response.Created(w, doc)
}

// Delete handles DELETE /api/v1/documents/{id}
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "")
		return
	}

	id := request.GetURLParam(r, "id")
	if err := h.docs.Delete(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			response.NotFound(w, "Document not found")
			return
		}
		response.InternalError(w, "")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}
