package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agoraai/backend/internal/models"
	"github.com/agoraai/backend/internal/pricing"
	"github.com/agoraai/backend/internal/service"
	"github.com/agoraai/backend/internal/testutil"
)

func newUsageHandlerFixture(t *testing.T) (*UsageHandler, *testutil.FakeUsageStore) {
	t.Helper()
	subs := testutil.NewFakeSubscriptionStore()
	usage := testutil.NewFakeUsageStore()
	svc := service.NewUsageService(subs, usage).WithClock(func() time.Time {
		return time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	})
	return NewUsageHandler(svc), usage
}

func TestGetUsage_AllFeatures(t *testing.T) {
	h, usage := newUsageHandlerFixture(t)

	_, err := usage.Add(context.Background(), "user-1", models.FeaturePDFChat, 3, 2025, 4)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.GetUsage(rec, authedRequest(http.MethodGet, "/api/v1/usage", ""))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Usage []models.UsageSnapshot `json:"usage"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Usage, len(models.MeteredFeatures))

	byFeature := make(map[string]models.UsageSnapshot)
	for _, s := range body.Usage {
		byFeature[s.Feature] = s
	}
	assert.Equal(t, 4, byFeature[models.FeaturePDFChat].CurrentUsage)
	assert.Equal(t, 0, byFeature[models.FeatureImageGeneration].CurrentUsage)
}

func TestGetUsage_SingleFeatureCheck(t *testing.T) {
	h, _ := newUsageHandlerFixture(t)

	rec := httptest.NewRecorder()
	h.GetUsage(rec, authedRequest(http.MethodGet, "/api/v1/usage?feature=pdf_chat", ""))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Allowed bool                  `json:"allowed"`
		Usage   *models.UsageSnapshot `json:"usage"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Allowed)
	require.NotNil(t, body.Usage)
	assert.Equal(t, pricing.LimitFor(models.PlanFree, models.FeaturePDFChat), body.Usage.Limit)
}

func TestGetUsage_Unauthorized(t *testing.T) {
	h, _ := newUsageHandlerFixture(t)

	rec := httptest.NewRecorder()
	h.GetUsage(rec, httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRecordUsage_MissingFeature(t *testing.T) {
	h, _ := newUsageHandlerFixture(t)

	rec := httptest.NewRecorder()
	h.RecordUsage(rec, authedRequest(http.MethodPost, "/api/v1/usage", `{}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordUsage_Increments(t *testing.T) {
	h, usage := newUsageHandlerFixture(t)

	rec := httptest.NewRecorder()
	h.RecordUsage(rec, authedRequest(http.MethodPost, "/api/v1/usage", `{"feature":"pdf_chat"}`))

	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := usage.Get(context.Background(), "user-1", models.FeaturePDFChat, 3, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsageCount)
}

func TestRecordUsage_DeniedAtLimit(t *testing.T) {
	h, usage := newUsageHandlerFixture(t)

	limit := pricing.LimitFor(models.PlanFree, models.FeaturePDFChat)
	_, err := usage.Add(context.Background(), "user-1", models.FeaturePDFChat, 3, 2025, limit)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.RecordUsage(rec, authedRequest(http.MethodPost, "/api/v1/usage", `{"feature":"pdf_chat"}`))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	stored, err := usage.Get(context.Background(), "user-1", models.FeaturePDFChat, 3, 2025)
	require.NoError(t, err)
	assert.Equal(t, limit, stored.UsageCount)
}
