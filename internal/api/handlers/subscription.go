package handlers

import (
	"errors"
	"net/http"

	"github.com/agoraai/backend/internal/api/request"
	"github.com/agoraai/backend/internal/api/response"
	"github.com/agoraai/backend/internal/auth"
	"github.com/agoraai/backend/internal/pricing"
	"github.com/agoraai/backend/internal/service"
)

// SubscriptionHandler exposes the user's plan and the pricing catalog
type SubscriptionHandler struct {
	subs  *service.SubscriptionService
	usage *service.UsageService
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subs *service.SubscriptionService, usage *service.UsageService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subs:  subs,
		usage: usage,
	}
}

// GetSubscription handles GET /api/v1/subscription
// Returns the current plan (materializing the free default), all usage
// snapshots and the plan's catalog entry.
func (h *SubscriptionHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "")
		return
	}

	if err := h.subs.EnsureDefault(r.Context(), user.ID); err != nil {
		response.InternalError(w, "")
		return
	}

	sub, err := h.subs.GetCurrent(r.Context(), user.ID)
	if err != nil {
		response.InternalError(w, "")
		return
	}

	snapshots, err := h.usage.AllUsage(r.Context(), user.ID)
	if err != nil {
		response.InternalError(w, "")
		return
	}

	tier, _ := pricing.Get(sub.Plan)

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"subscription": sub.ToResponse(),
		"usage":        snapshots,
		"planDetails":  tier,
	})
}

// SetPlanRequest is the body for POST /api/v1/subscription
type SetPlanRequest struct {
	Plan string `json:"plan"`
}

// SetPlan handles POST /api/v1/subscription
func (h *SubscriptionHandler) SetPlan(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "")
		return
	}

	var req SetPlanRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Plan == "" {
		response.BadRequest(w, "plan is required")
		return
	}

	sub, err := h.subs.SetPlan(r.Context(), user.ID, req.Plan)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPlan) {
			response.BadRequest(w, "Unknown plan: "+req.Plan)
			return
		}
		response.InternalError(w, "")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"subscription": sub.ToResponse(),
	})
}

// GetPricing handles GET /api/v1/pricing (public catalog)
func (h *SubscriptionHandler) GetPricing(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"tiers": pricing.Tiers(),
	})
}
