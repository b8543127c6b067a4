package handlers

import (
	"errors"
	"net/http"

	"github.com/agoraai/backend/internal/api/request"
	"github.com/agoraai/backend/internal/api/response"
	"github.com/agoraai/backend/internal/auth"
	"github.com/agoraai/backend/internal/drive"
	"github.com/agoraai/backend/internal/models"
	"github.com/agoraai/backend/internal/pricing"
	"github.com/agoraai/backend/internal/repository"
	"github.com/agoraai/backend/internal/service"
)

// maxUploadBytes caps a single Drive upload.
const maxUploadBytes = 50 << 20

// DriveHandler exports files to the user's Google Drive, enforcing the
// plan's storage byte budget against the sum of stored document sizes.
type DriveHandler struct {
	docs *repository.DocumentRepository
	subs *service.SubscriptionService
}

// NewDriveHandler creates a new drive handler
func NewDriveHandler(docs *repository.DocumentRepository, subs *service.SubscriptionService) *DriveHandler {
	return &DriveHandler{
		docs: docs,
		subs: subs,
	}
}

// Upload handles POST /api/v1/drive/upload (multipart, field "file")
func (h *DriveHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "")
		return
	}

	accessToken := auth.GoogleAccessToken(r.Context())
	if accessToken == "" {
		response.Forbidden(w, "Session has no Google Drive access; sign in again")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.BadRequest(w, "Invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "file is required")
		return
	}
	defer file.Close()

	if header.Size > maxUploadBytes {
		response.BadRequest(w, "File too large")
		return
	}

	sub, err := h.subs.GetCurrent(r.Context(), user.ID)
	if err != nil {
		response.InternalError(w, "")
		return
	}
	used, err := h.docs.TotalSizeByUser(r.Context(), user.ID)
	if err != nil {
		response.InternalError(w, "")
		return
	}
	limit := pricing.StorageLimitFor(sub.Plan)
	if used+header.Size > limit {
		response.JSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"error": "Storage limit reached for your plan",
			"storage": map[string]int64{
				"used":      used,
				"limit":     limit,
				"requested": header.Size,
			},
		})
		return
	}

	svc, err := drive.NewForToken(r.Context(), accessToken)
	if err != nil {
		response.InternalError(w, "")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	uploaded, err := svc.Upload(r.Context(), header.Filename, mimeType, file)
	if err != nil {
		response.BadGateway(w, "Drive upload failed")
		return
	}

	size := uploaded.Size
	if size == 0 {
		size = header.Size
	}
	doc := &models.Document{
		UserID:      user.ID,
		FileName:    uploaded.Name,
		MimeType:    uploaded.MimeType,
		DriveFileID: uploaded.ID,
		WebViewLink: uploaded.WebViewLink,
		FileSize:    size,
	}
	if err := h.docs.Create(r.Context(), doc); err != nil {
		response.InternalError(w, "")
		return
	}

	response.Created(w, doc)
}

// List handles GET /api/v1/drive/list
func (h *DriveHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "")
		return
	}

	accessToken := auth.GoogleAccessToken(r.Context())
	if accessToken == "" {
		response.Forbidden(w, "Session has no Google Drive access; sign in again")
		return
	}

	svc, err := drive.NewForToken(r.Context(), accessToken)
	if err != nil {
		response.InternalError(w, "")
		return
	}

	files, err := svc.List(r.Context())
	if err != nil {
		response.BadGateway(w, "Drive listing failed")
		return
	}

	response.Success(w, files)
}

// Delete handles DELETE /api/v1/drive/{fileID}
// Removes the file from Drive and the matching document row, freeing its
// bytes from the storage budget.
func (h *DriveHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "")
		return
	}

	accessToken := auth.GoogleAccessToken(r.Context())
	if accessToken == "" {
		response.Forbidden(w, "Session has no Google Drive access; sign in again")
		return
	}

	fileID := request.GetURLParam(r, "fileID")

	svc, err := drive.NewForToken(r.Context(), accessToken)
	if err != nil {
		response.InternalError(w, "")
		return
	}
	if err := svc.Delete(r.Context(), fileID); err != nil {
		response.BadGateway(w, "Drive delete failed")
		return
	}

	doc, err := h.docs.GetByDriveFileID(r.Context(), user.ID, fileID)
	if err == nil {
		if err := h.docs.Delete(r.Context(), user.ID, doc.ID); err != nil {
			response.InternalError(w, "")
			return
		}
	} else if !errors.Is(err, repository.ErrDocumentNotFound) {
		response.InternalError(w, "")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}
