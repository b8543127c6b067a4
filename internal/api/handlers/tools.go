package handlers

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/agoraai/backend/internal/ai"
	"github.com/agoraai/backend/internal/api/request"
	"github.com/agoraai/backend/internal/api/response"
	"github.com/agoraai/backend/internal/auth"
	"github.com/agoraai/backend/internal/middleware"
	"github.com/agoraai/backend/internal/models"
	"github.com/agoraai/backend/internal/service"
)

// ToolsHandler proxies the AI tool endpoints with entitlement gating.
// Metered endpoints check quota before calling the backend and record
// usage only after the backend call succeeds, so a downstream failure
// never consumes quota.
type ToolsHandler struct {
	usage  *service.UsageService
	client *ai.Client
	cache  *ai.ResponseCache
}

// NewToolsHandler creates a new tools handler. cache may be nil, in which
// case responses are never cached.
func NewToolsHandler(usage *service.UsageService, client *ai.Client, cache *ai.ResponseCache) *ToolsHandler {
	return &ToolsHandler{
		usage:  usage,
		client: client,
		cache:  cache,
	}
}

// Summarize handles POST /api/v1/pdf-summarizer/summarize (unmetered)
func (h *ToolsHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	if auth.GetUser(r.Context()) == nil {
		response.Unauthorized(w, "")
		return
	}

	var req ai.SummarizeRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Text == "" {
		response.BadRequest(w, "text is required")
		return
	}

	if h.cache != nil {
		if cached, err := h.cache.GetSummary(r.Context(), &req); err == nil && cached != nil {
			response.Success(w, cached)
			return
		}
	}

	result, err := h.client.Summarize(r.Context(), &req)
	if err != nil {
		writeToolError(w, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.SetSummary(r.Context(), &req, result); err != nil {
			log.Warn().Err(err).Str("component", "tools").Msg("failed to cache summary")
		}
	}

	response.Success(w, result)
}

// Chat handles POST /api/v1/pdf-summarizer/chat (pdf_chat, 1 per question)
func (h *ToolsHandler) Chat(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "")
		return
	}

	var req ai.DocChatRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Question == "" {
		response.BadRequest(w, "question is required")
		return
	}

	snap, err := h.usage.CheckAccess(r.Context(), user.ID, models.FeaturePDFChat, 1)
	if err != nil {
		response.InternalError(w, "")
		return
	}
	if !snap.Allowed {
		middleware.ObserveQuotaDenial(models.FeaturePDFChat)
		response.QuotaExceeded(w, snap)
		return
	}

	result, err := h.client.DocChat(r.Context(), &req)
	if err != nil {
		writeToolError(w, err)
		return
	}

	updated := h.recordAfterSuccess(r, user.ID, models.FeaturePDFChat, 1)
	response.SuccessWithUsage(w, result, updated)
}

// KeyPoints handles POST /api/v1/pdf-summarizer/key-points (unmetered)
func (h *ToolsHandler) KeyPoints(w http.ResponseWriter, r *http.Request) {
	if auth.GetUser(r.Context()) == nil {
		response.Unauthorized(w, "")
		return
	}

	var req ai.KeyPointsRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Text == "" {
		response.BadRequest(w, "text is required")
		return
	}

	if h.cache != nil {
		if cached, err := h.cache.GetKeyPoints(r.Context(), &req); err == nil && cached != nil {
			response.Success(w, cached)
			return
		}
	}

	result, err := h.client.KeyPoints(r.Context(), &req)
	if err != nil {
		writeToolError(w, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.SetKeyPoints(r.Context(), &req, result); err != nil {
			log.Warn().Err(err).Str("component", "tools").Msg("failed to cache key points")
		}
	}

	response.Success(w, result)
}

// Questions handles POST /api/v1/pdf-summarizer/questions (unmetered)
func (h *ToolsHandler) Questions(w http.ResponseWriter, r *http.Request) {
	if auth.GetUser(r.Context()) == nil {
		response.Unauthorized(w, "")
		return
	}

	var req ai.QuestionsRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Text == "" {
		response.BadRequest(w, "text is required")
		return
	}

	result, err := h.client.Questions(r.Context(), &req)
	if err != nil {
		writeToolError(w, err)
		return
	}

	response.Success(w, result)
}

// Humanize handles POST /api/v1/humanize (text_humanizer, 1 per character)
func (h *ToolsHandler) Humanize(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "")
		return
	}

	var req ai.HumanizeRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Text == "" {
		response.BadRequest(w, "text is required")
		return
	}

	chars := utf8.RuneCountInString(req.Text)

	snap, err := h.usage.CheckAccess(r.Context(), user.ID, models.FeatureTextHumanizer, chars)
	if err != nil {
		response.InternalError(w, "")
		return
	}
	if !snap.Allowed {
		middleware.ObserveQuotaDenial(models.FeatureTextHumanizer)
		response.QuotaExceeded(w, snap)
		return
	}

	result, err := h.client.Humanize(r.Context(), &req)
	if err != nil {
		writeToolError(w, err)
		return
	}

	updated := h.recordAfterSuccess(r, user.ID, models.FeatureTextHumanizer, chars)
	response.SuccessWithUsage(w, result, updated)
}

// GenerateImages handles POST /api/v1/images/generate
// (image_generation, 1 per requested image)
func (h *ToolsHandler) GenerateImages(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "")
		return
	}

	var req ai.ImageRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Prompt == "" {
		response.BadRequest(w, "prompt is required")
		return
	}
	if req.Count < 1 {
		req.Count = 1
	}

	snap, err := h.usage.CheckAccess(r.Context(), user.ID, models.FeatureImageGeneration, req.Count)
	if err != nil {
		response.InternalError(w, "")
		return
	}
	if !snap.Allowed {
		middleware.ObserveQuotaDenial(models.FeatureImageGeneration)
		response.QuotaExceeded(w, snap)
		return
	}

	result, err := h.client.GenerateImages(r.Context(), &req)
	if err != nil {
		writeToolError(w, err)
		return
	}

	updated := h.recordAfterSuccess(r, user.ID, models.FeatureImageGeneration, req.Count)
	response.SuccessWithUsage(w, result, updated)
}

// recordAfterSuccess increments the ledger once the backend call has
// succeeded. A recording failure is logged rather than surfaced: the work
// was already delivered, so the ledger transiently under-counts.
func (h *ToolsHandler) recordAfterSuccess(r *http.Request, userID, feature string, amount int) *models.UsageSnapshot {
	updated, err := h.usage.RecordUsage(r.Context(), userID, feature, amount)
	if err != nil {
		log.Warn().Err(err).
			Str("component", "tools").
			Str("user_id", userID).
			Str("feature", feature).
			Msg("failed to record usage after successful call")
		return nil
	}
	return updated
}

// writeToolError maps a backend failure onto the client response. Client
// errors from the backend pass through as 400; everything else is a 502.
func writeToolError(w http.ResponseWriter, err error) {
	var apiErr *ai.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		response.BadRequest(w, apiErr.Message)
		return
	}
	log.Error().Err(err).Str("component", "tools").Msg("tools backend call failed")
	response.BadGateway(w, "")
}
