package handlers

import (
	"net/http"
	"time"

	"github.com/agoraai/backend/internal/api/response"
	"github.com/agoraai/backend/internal/auth"
	"github.com/agoraai/backend/internal/models"
	"github.com/agoraai/backend/internal/repository"
	"github.com/agoraai/backend/internal/service"
)

// ExportHandler produces the user's full data bundle
type ExportHandler struct {
	users   *repository.UserRepository
	subs    *service.SubscriptionService
	usage   *service.UsageService
	docs    *repository.DocumentRepository
	chats   *repository.ChatRepository
	billing *repository.BillingRepository
}

// NewExportHandler creates a new data-export handler
func NewExportHandler(users *repository.UserRepository, subs *service.SubscriptionService, usage *service.UsageService, docs *repository.DocumentRepository, chats *repository.ChatRepository, billing *repository.BillingRepository) *ExportHandler {
	return &ExportHandler{
		users:   users,
		subs:    subs,
		usage:   usage,
		docs:    docs,
		chats:   chats,
		billing: billing,
	}
}

// DataExport is everything the system stores about one user.
type DataExport struct {
	ExportedAt   time.Time                   `json:"exportedAt"`
	User         *models.User                `json:"user"`
	Subscription models.SubscriptionResponse `json:"subscription"`
	Usage        []models.UsageSnapshot      `json:"usage"`
	Documents    []models.Document           `json:"documents"`
	ChatSessions []models.ChatSession        `json:"chatSessions"`
	Billing      []models.BillingRecord      `json:"billingHistory"`
}

// Export handles GET /api/v1/data-export
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "")
		return
	}
	ctx := r.Context()

	profile, err := h.users.GetByID(ctx, user.ID)
	if err != nil {
		response.InternalError(w, "")
		return
	}
	sub, err := h.subs.GetCurrent(ctx, user.ID)
	if err != nil {
		response.InternalError(w, "")
		return
	}
	snapshots, err := h.usage.AllUsage(ctx, user.ID)
	if err != nil {
		response.InternalError(w, "")
		return
	}
	docs, err := h.docs.ListByUser(ctx, user.ID)
	if err != nil {
		response.InternalError(w, "")
		return
	}
	sessions, err := h.chats.ListSessionsByUser(ctx, user.ID)
	if err != nil {
		response.InternalError(w, "")
		return
	}
	billing, err := h.billing.ListByUser(ctx, user.ID)
	if err != nil {
		response.InternalError(w, "")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="data-export.json"`)
	response.JSON(w, http.StatusOK, DataExport{
		ExportedAt:   time.Now().UTC(),
		User:         profile,
		Subscription: sub.ToResponse(),
		Usage:        snapshots,
		Documents:    docs,
		ChatSessions: sessions,
		Billing:      billing,
	})
}
