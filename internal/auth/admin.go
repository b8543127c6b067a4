package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/agoraai/backend/internal/cache"
)

// AdminSessionCookie is the cookie carrying the opaque admin session token.
const AdminSessionCookie = "admin_session"

const adminSessionPrefix = "admin:session:"

var (
	// ErrAdminBadPassword is returned when the admin password does not match
	ErrAdminBadPassword = errors.New("invalid admin password")
	// ErrAdminSessionInvalid is returned when the session token is unknown
	// or has expired
	ErrAdminSessionInvalid = errors.New("invalid admin session")
	// ErrAdminDisabled is returned when no admin password hash is configured
	ErrAdminDisabled = errors.New("admin access is not configured")
)

// AdminSessions gates the admin dashboard. The password is verified
// against a bcrypt hash from configuration and successful logins get an
// opaque token stored in Redis with a TTL.
type AdminSessions struct {
	cache        *cache.Redis
	passwordHash string
	ttl          time.Duration
}

// NewAdminSessions creates the admin session manager.
func NewAdminSessions(redis *cache.Redis, passwordHash string, ttl time.Duration) *AdminSessions {
	return &AdminSessions{
		cache:        redis,
		passwordHash: passwordHash,
		ttl:          ttl,
	}
}

// Login verifies the password and mints a session token.
func (a *AdminSessions) Login(ctx context.Context, password string) (string, error) {
	if a.passwordHash == "" {
		return "", ErrAdminDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password)); err != nil {
		return "", ErrAdminBadPassword
	}

	token, err := randomToken()
	if err != nil {
		return "", err
	}
	if err := a.cache.Set(ctx, adminSessionPrefix+token, "1", a.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Validate checks that a session token is still live.
func (a *AdminSessions) Validate(ctx context.Context, token string) error {
	if token == "" {
		return ErrAdminSessionInvalid
	}
	ok, err := a.cache.Exists(ctx, adminSessionPrefix+token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAdminSessionInvalid
	}
	return nil
}

// Logout revokes a session token. Revoking an unknown token is not an error.
func (a *AdminSessions) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return a.cache.Delete(ctx, adminSessionPrefix+token)
}

// SessionTTL returns the configured session lifetime.
func (a *AdminSessions) SessionTTL() time.Duration {
	return a.ttl
}

// Middleware rejects requests without a live admin session. The token is
// read from the admin cookie or the X-Admin-Token header.
func (a *AdminSessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := a.Validate(r.Context(), AdminTokenFromRequest(r)); err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"error":   "unauthorized",
				"message": "Admin authentication required",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminTokenFromRequest extracts the admin session token from a request.
func AdminTokenFromRequest(r *http.Request) string {
	if token := r.Header.Get("X-Admin-Token"); token != "" {
		return token
	}
	cookie, err := r.Cookie(AdminSessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// HashAdminPassword produces a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashAdminPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
