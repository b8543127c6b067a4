package handlers

import (
	"net/http"

	"github.com/agoraai/backend/internal/api/request"
	"github.com/agoraai/backend/internal/api/response"
	"github.com/agoraai/backend/internal/auth"
	"github.com/agoraai/backend/internal/repository"
)

// AuthHandler implements the Google sign-in endpoints and session
// management.
type AuthHandler struct {
	google      *auth.GoogleAuth
	jwtService  *auth.JWTService
	users       *repository.UserRepository
	frontendURL string
	secure      bool
}

// NewAuthHandler creates a new auth handler. secure controls the Secure
// flag on session cookies and should be true outside development.
func NewAuthHandler(google *auth.GoogleAuth, jwtService *auth.JWTService, users *repository.UserRepository, frontendURL string, secure bool) *AuthHandler {
	return &AuthHandler{
		google:      google,
		jwtService:  jwtService,
		users:       users,
		frontendURL: frontendURL,
		secure:      secure,
	}
}

// GoogleLogin handles GET /api/v1/auth/google/login
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	url, err := h.google.LoginURL(r.Context())
	if err != nil {
		response.InternalError(w, "")
		return
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// GoogleCallback handles GET /api/v1/auth/google/callback
// On success the session cookie is set and the user is redirected back to
// the frontend; failures redirect with an error marker instead of a body
// so the OAuth detail stays server-side.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Get("error") != "" {
		http.Redirect(w, r, h.frontendURL+"/login?error=oauth_denied", http.StatusTemporaryRedirect)
		return
	}

	state := query.Get("state")
	code := query.Get("code")
	if state == "" || code == "" {
		http.Redirect(w, r, h.frontendURL+"/login?error=oauth_invalid", http.StatusTemporaryRedirect)
		return
	}

	_, sessionToken, err := h.google.HandleCallback(r.Context(), state, code)
	if err != nil {
		http.Redirect(w, r, h.frontendURL+"/login?error=oauth_failed", http.StatusTemporaryRedirect)
		return
	}

	h.setSessionCookie(w, sessionToken, int(h.jwtService.GetExpiration().Seconds()))
	http.Redirect(w, r, h.frontendURL+"/dashboard", http.StatusTemporaryRedirect)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "")
		return
	}

	full, err := h.users.GetByID(r.Context(), user.ID)
	if err != nil {
		response.Unauthorized(w, "")
		return
	}

	response.Success(w, full)
}

// RefreshRequest is the body for POST /api/v1/auth/refresh
type RefreshRequest struct {
	Token string `json:"token,omitempty"`
}

// Refresh handles POST /api/v1/auth/refresh
// The token comes from the body or falls back to the session cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	_ = request.DecodeJSON(r, &req)

	token := req.Token
	if token == "" {
		cookie, err := r.Cookie(auth.SessionCookie)
		if err != nil || cookie.Value == "" {
			response.Unauthorized(w, "")
			return
		}
		token = cookie.Value
	}

	refreshed, err := h.jwtService.Refresh(token)
	if err != nil {
		response.Unauthorized(w, "")
		return
	}

	h.setSessionCookie(w, refreshed, int(h.jwtService.GetExpiration().Seconds()))
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"token": refreshed,
	})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setSessionCookie(w, "", -1)
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
