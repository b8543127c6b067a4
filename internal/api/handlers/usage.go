package handlers

import (
	"errors"
	"net/http"

	"github.com/agoraai/backend/internal/api/request"
	"github.com/agoraai/backend/internal/api/response"
	"github.com/agoraai/backend/internal/auth"
	"github.com/agoraai/backend/internal/middleware"
	"github.com/agoraai/backend/internal/service"
)

// UsageHandler exposes the usage ledger and entitlement checks
type UsageHandler struct {
	usage *service.UsageService
}

// NewUsageHandler creates a new usage handler
func NewUsageHandler(usage *service.UsageService) *UsageHandler {
	return &UsageHandler{usage: usage}
}

// GetUsage handles GET /api/v1/usage
// With ?feature=tag it returns the entitlement check for that feature;
// without it, snapshots of every metered feature.
func (h *UsageHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "")
		return
	}

	feature := request.GetQueryString(r, "feature", "")
	if feature != "" {
		amount := request.GetQueryInt(r, "amount", 1)
		snap, err := h.usage.CheckAccess(r.Context(), user.ID, feature, amount)
		if err != nil {
			response.InternalError(w, "")
			return
		}
		response.JSON(w, http.StatusOK, map[string]interface{}{
			"allowed": snap.Allowed,
			"usage":   snap,
		})
		return
	}

	snapshots, err := h.usage.AllUsage(r.Context(), user.ID)
	if err != nil {
		response.InternalError(w, "")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"usage": snapshots,
	})
}

// RecordUsageRequest is the body for POST /api/v1/usage
type RecordUsageRequest struct {
	Feature string `json:"feature"`
	Amount  int    `json:"amount,omitempty"`
}

// RecordUsage handles POST /api/v1/usage
// The feature is checked first; a denied check returns 429 with the
// snapshot and records nothing.
func (h *UsageHandler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "")
		return
	}

	var req RecordUsageRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Feature == "" {
		response.BadRequest(w, "feature is required")
		return
	}

	snap, err := h.usage.CheckAccess(r.Context(), user.ID, req.Feature, req.Amount)
	if err != nil {
		response.InternalError(w, "")
		return
	}
	if !snap.Allowed {
		middleware.ObserveQuotaDenial(req.Feature)
		response.QuotaExceeded(w, snap)
		return
	}

	updated, err := h.usage.RecordUsage(r.Context(), user.ID, req.Feature, req.Amount)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAmount) {
			response.BadRequest(w, err.Error())
			return
		}
		response.InternalError(w, "")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"usage":   updated,
	})
}
