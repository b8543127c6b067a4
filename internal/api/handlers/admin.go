package handlers

import (
	"errors"
	"net/http"

	"github.com/agoraai/backend/internal/api/request"
	"github.com/agoraai/backend/internal/api/response"
	"github.com/agoraai/backend/internal/auth"
	"github.com/agoraai/backend/internal/models"
	"github.com/agoraai/backend/internal/repository"
	"github.com/agoraai/backend/internal/service"
)

// AdminHandler serves the password-gated admin dashboard
type AdminHandler struct {
	sessions *auth.AdminSessions
	admin    *service.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(sessions *auth.AdminSessions, admin *service.AdminService) *AdminHandler {
	return &AdminHandler{
		sessions: sessions,
		admin:    admin,
	}
}

// AdminAuthRequest is the body for POST /api/v1/admin/auth
type AdminAuthRequest struct {
	Password string `json:"password"`
}

// Login handles POST /api/v1/admin/auth
// A wrong password and a missing configuration both come back as a plain
// 401 so nothing leaks about which it was.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req AdminAuthRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	token, err := h.sessions.Login(r.Context(), req.Password)
	if err != nil {
		response.Unauthorized(w, "Invalid password")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.AdminSessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessions.SessionTTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// Check handles GET /api/v1/admin/auth
func (h *AdminHandler) Check(w http.ResponseWriter, r *http.Request) {
	err := h.sessions.Validate(r.Context(), auth.AdminTokenFromRequest(r))
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": err == nil,
	})
}

// Logout handles DELETE /api/v1/admin/auth
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), auth.AdminTokenFromRequest(r)); err != nil {
		response.InternalError(w, "")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.AdminSessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// Dashboard handles GET /api/v1/admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.admin.Dashboard(r.Context())
	if err != nil {
		response.InternalError(w, "")
		return
	}
	response.JSON(w, http.StatusOK, dash)
}

// AdminActionRequest is the body for POST /api/v1/admin/dashboard
type AdminActionRequest struct {
	Action  string `json:"action"`
	UserID  string `json:"userId"`
	Feature string `json:"feature,omitempty"`
}

// Action handles POST /api/v1/admin/dashboard
func (h *AdminHandler) Action(w http.ResponseWriter, r *http.Request) {
	var req AdminActionRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.UserID == "" {
		response.BadRequest(w, "userId is required")
		return
	}

	ctx := r.Context()
	switch req.Action {
	case "reset_usage":
		if req.Feature == "" {
			response.BadRequest(w, "feature is required for reset_usage")
			return
		}
		result, err := h.admin.ResetFeatureUsage(ctx, req.UserID, req.Feature)
		h.respond(w, result, err)
	case "reset_all_usage":
		result, err := h.admin.ResetAllUsage(ctx, req.UserID)
		h.respond(w, result, err)
	case "delete_user":
		result, err := h.admin.DeleteUser(ctx, req.UserID)
		h.respond(w, result, err)
	case "reset_to_free":
		result, err := h.admin.ResetToFree(ctx, req.UserID)
		h.respond(w, result, err)
	default:
		response.BadRequest(w, "Unknown action: "+req.Action)
	}
}

func (h *AdminHandler) respond(w http.ResponseWriter, result *models.AdminActionResult, err error) {
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.NotFound(w, "User not found")
			return
		}
		response.InternalError(w, "")
		return
	}
	response.JSON(w, http.StatusOK, result)
}
