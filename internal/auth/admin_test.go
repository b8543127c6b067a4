package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agoraai/backend/internal/cache"
)

func newAdminFixture(t *testing.T) (*AdminSessions, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisCache := cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	hash, err := HashAdminPassword("correct horse battery")
	require.NoError(t, err)

	return NewAdminSessions(redisCache, hash, time.Hour), mr
}

func TestAdminLogin_WrongPassword(t *testing.T) {
	sessions, _ := newAdminFixture(t)

	_, err := sessions.Login(context.Background(), "guess")
	assert.ErrorIs(t, err, ErrAdminBadPassword)
}

func TestAdminLogin_NoHashConfigured(t *testing.T) {
	mr := miniredis.RunT(t)
	redisCache := cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	sessions := NewAdminSessions(redisCache, "", time.Hour)

	_, err := sessions.Login(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrAdminDisabled)
}

func TestAdminSession_Lifecycle(t *testing.T) {
	sessions, _ := newAdminFixture(t)
	ctx := context.Background()

	token, err := sessions.Login(ctx, "correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, sessions.Validate(ctx, token))
	assert.ErrorIs(t, sessions.Validate(ctx, "bogus"), ErrAdminSessionInvalid)

	require.NoError(t, sessions.Logout(ctx, token))
	assert.ErrorIs(t, sessions.Validate(ctx, token), ErrAdminSessionInvalid)
}

func TestAdminSession_ExpiresWithTTL(t *testing.T) {
	sessions, mr := newAdminFixture(t)
	ctx := context.Background()

	token, err := sessions.Login(ctx, "correct horse battery")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	assert.ErrorIs(t, sessions.Validate(ctx, token), ErrAdminSessionInvalid)
}

func TestAdminMiddleware(t *testing.T) {
	sessions, _ := newAdminFixture(t)
	ctx := context.Background()

	token, err := sessions.Login(ctx, "correct horse battery")
	require.NoError(t, err)

	handler := sessions.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// no credentials
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// header token
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.Header.Set("X-Admin-Token", token)
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// cookie token
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: AdminSessionCookie, Value: token})
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
