package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agoraai/backend/internal/auth"
	"github.com/agoraai/backend/internal/cache"
	"github.com/agoraai/backend/internal/models"
	"github.com/agoraai/backend/internal/service"
	"github.com/agoraai/backend/internal/testutil"
)

type adminFixture struct {
	handler *AdminHandler
	usage   *testutil.FakeUsageStore
	subs    *testutil.FakeSubscriptionStore
	users   *testutil.FakeUserStore
}

func newAdminHandlerFixture(t *testing.T) *adminFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	redisCache := cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	hash, err := auth.HashAdminPassword("s3cret Admin1")
	require.NoError(t, err)
	sessions := auth.NewAdminSessions(redisCache, hash, time.Hour)

	users := testutil.NewFakeUserStore(
		&models.User{ID: "user-1", Email: "a@example.com"},
	)
	subs := testutil.NewFakeSubscriptionStore()
	usage := testutil.NewFakeUsageStore()
	admin := service.NewAdminService(users, subs, usage, &testutil.FakeChatStats{}).
		WithClock(func() time.Time {
			return time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
		})

	return &adminFixture{
		handler: NewAdminHandler(sessions, admin),
		usage:   usage,
		subs:    subs,
		users:   users,
	}
}

func TestAdminLogin_WrongPasswordIsOpaque401(t *testing.T) {
	f := newAdminHandlerFixture(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/auth", strings.NewReader(`{"password":"wrong"}`))
	f.handler.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), "bcrypt")
	assert.Empty(t, rec.Result().Cookies())
}

func TestAdminLogin_SetsSessionCookie(t *testing.T) {
	f := newAdminHandlerFixture(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/auth", strings.NewReader(`{"password":"s3cret Admin1"}`))
	f.handler.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.AdminSessionCookie, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	// the issued token validates
	check := httptest.NewRecorder()
	checkReq := httptest.NewRequest(http.MethodGet, "/api/v1/admin/auth", nil)
	checkReq.AddCookie(cookies[0])
	f.handler.Check(check, checkReq)

	var body struct {
		Authenticated bool `json:"authenticated"`
	}
	require.NoError(t, json.Unmarshal(check.Body.Bytes(), &body))
	assert.True(t, body.Authenticated)
}

func TestAdminAction_ResetAllUsage(t *testing.T) {
	f := newAdminHandlerFixture(t)

	_, err := f.usage.Add(context.Background(), "user-1", models.FeaturePDFChat, 3, 2025, 7)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/dashboard",
		strings.NewReader(`{"action":"reset_all_usage","userId":"user-1"}`))
	f.handler.Action(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result models.AdminActionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "All usage reset successfully", result.Message)

	stored, err := f.usage.Get(context.Background(), "user-1", models.FeaturePDFChat, 3, 2025)
	require.NoError(t, err)
	assert.Zero(t, stored.UsageCount)
}

func TestAdminAction_ResetToFree(t *testing.T) {
	f := newAdminHandlerFixture(t)

	_, err := f.subs.Upsert(context.Background(), "user-1", models.PlanPro, models.StatusActive)
	require.NoError(t, err)
	_, err = f.usage.Add(context.Background(), "user-1", models.FeatureImageGeneration, 3, 2025, 2)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/dashboard",
		strings.NewReader(`{"action":"reset_to_free","userId":"user-1"}`))
	f.handler.Action(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	sub, err := f.subs.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, sub.Plan)

	stored, err := f.usage.Get(context.Background(), "user-1", models.FeatureImageGeneration, 3, 2025)
	require.NoError(t, err)
	assert.Zero(t, stored.UsageCount)
}

func TestAdminAction_DeleteUnknownUser(t *testing.T) {
	f := newAdminHandlerFixture(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/dashboard",
		strings.NewReader(`{"action":"delete_user","userId":"nobody"}`))
	f.handler.Action(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminAction_UnknownAction(t *testing.T) {
	f := newAdminHandlerFixture(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/dashboard",
		strings.NewReader(`{"action":"explode","userId":"user-1"}`))
	f.handler.Action(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminDashboard(t *testing.T) {
	f := newAdminHandlerFixture(t)

	_, err := f.usage.Add(context.Background(), "user-1", models.FeaturePDFChat, 3, 2025, 5)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	f.handler.Dashboard(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var dash models.AdminDashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	require.Len(t, dash.Users, 1)
	require.Len(t, dash.Users[0].UsageRecords, 1)
	assert.Equal(t, int64(1), dash.Statistics.TotalUsers)
	require.Len(t, dash.Statistics.MonthlyUsage, 1)
	assert.Equal(t, int64(5), dash.Statistics.MonthlyUsage[0].Total)
}
