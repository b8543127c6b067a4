package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agoraai/backend/internal/models"
	"github.com/agoraai/backend/internal/service"
	"github.com/agoraai/backend/internal/testutil"
)

func newSubscriptionHandlerFixture(t *testing.T) (*SubscriptionHandler, *testutil.FakeSubscriptionStore, *testutil.FakeBillingStore) {
	t.Helper()
	subs := testutil.NewFakeSubscriptionStore()
	billing := testutil.NewFakeBillingStore()
	usage := testutil.NewFakeUsageStore()

	subSvc := service.NewSubscriptionService(subs, billing)
	usageSvc := service.NewUsageService(subs, usage).WithClock(func() time.Time {
		return time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	})
	return NewSubscriptionHandler(subSvc, usageSvc), subs, billing
}

func TestGetSubscription_MaterializesFreeDefault(t *testing.T) {
	h, subs, _ := newSubscriptionHandlerFixture(t)

	rec := httptest.NewRecorder()
	h.GetSubscription(rec, authedRequest(http.MethodGet, "/api/v1/subscription", ""))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Subscription models.SubscriptionResponse `json:"subscription"`
		Usage        []models.UsageSnapshot      `json:"usage"`
		PlanDetails  struct {
			ID string `json:"id"`
		} `json:"planDetails"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, models.PlanFree, body.Subscription.Plan)
	assert.Len(t, body.Usage, len(models.MeteredFeatures))
	assert.Equal(t, models.PlanFree, body.PlanDetails.ID)

	// the default row was written
	stored, err := subs.Get(authedRequest(http.MethodGet, "/", "").Context(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, stored.Plan)
}

func TestSetPlan_Upgrade(t *testing.T) {
	h, subs, billing := newSubscriptionHandlerFixture(t)

	rec := httptest.NewRecorder()
	h.SetPlan(rec, authedRequest(http.MethodPost, "/api/v1/subscription", `{"plan":"pro"}`))

	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := subs.Get(authedRequest(http.MethodGet, "/", "").Context(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanPro, stored.Plan)
	require.Len(t, billing.Records, 1)
}

func TestSetPlan_UnknownPlan(t *testing.T) {
	h, _, billing := newSubscriptionHandlerFixture(t)

	rec := httptest.NewRecorder()
	h.SetPlan(rec, authedRequest(http.MethodPost, "/api/v1/subscription", `{"plan":"platinum"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, billing.Records)
}

func TestGetPricing_PublicCatalog(t *testing.T) {
	h, _, _ := newSubscriptionHandlerFixture(t)

	rec := httptest.NewRecorder()
	h.GetPricing(rec, httptest.NewRequest(http.MethodGet, "/api/v1/pricing", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tiers []struct {
			ID       string `json:"id"`
			Features struct {
				PDFChat struct {
					MonthlyLimit int `json:"monthlyLimit"`
				} `json:"pdfChat"`
			} `json:"features"`
		} `json:"tiers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Tiers, 2)
	assert.Equal(t, models.PlanFree, body.Tiers[0].ID)
	assert.Equal(t, 10, body.Tiers[0].Features.PDFChat.MonthlyLimit)
}
