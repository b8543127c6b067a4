package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agoraai/backend/internal/ai"
	"github.com/agoraai/backend/internal/auth"
	"github.com/agoraai/backend/internal/models"
	"github.com/agoraai/backend/internal/pricing"
	"github.com/agoraai/backend/internal/service"
	"github.com/agoraai/backend/internal/testutil"
)

type toolsFixture struct {
	handler *ToolsHandler
	usage   *testutil.FakeUsageStore
	subs    *testutil.FakeSubscriptionStore
	calls   *atomic.Int32
}

// newToolsFixture builds a tools handler backed by in-memory stores and
// an httptest backend driven by the given handler func.
func newToolsFixture(t *testing.T, backend http.HandlerFunc) *toolsFixture {
	t.Helper()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		backend(w, r)
	}))
	t.Cleanup(server.Close)

	subs := testutil.NewFakeSubscriptionStore()
	usage := testutil.NewFakeUsageStore()
	usageService := service.NewUsageService(subs, usage).WithClock(func() time.Time {
		return time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	})

	return &toolsFixture{
		handler: NewToolsHandler(usageService, ai.NewClient(server.URL, 5*time.Second), nil),
		usage:   usage,
		subs:    subs,
		calls:   &calls,
	}
}

func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := context.WithValue(req.Context(), auth.UserContextKey, &models.User{ID: "user-1", Email: "a@example.com"})
	return req.WithContext(ctx)
}

func ledgerCount(t *testing.T, f *toolsFixture, feature string) int {
	t.Helper()
	rec, err := f.usage.Get(context.Background(), "user-1", feature, 3, 2025)
	if err != nil {
		return 0
	}
	return rec.UsageCount
}

func TestChat_RecordsUsageOnSuccess(t *testing.T) {
	f := newToolsFixture(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ai.DocChatResponse{Answer: "42"})
	})

	rec := httptest.NewRecorder()
	f.handler.Chat(rec, authedRequest(http.MethodPost, "/api/v1/pdf-summarizer/chat", `{"question":"meaning of life?","context":"..."}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ledgerCount(t, f, models.FeaturePDFChat))

	var body struct {
		Data  ai.DocChatResponse    `json:"data"`
		Usage *models.UsageSnapshot `json:"usage"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "42", body.Data.Answer)
	require.NotNil(t, body.Usage)
	assert.Equal(t, 1, body.Usage.CurrentUsage)
}

func TestChat_NoQuotaConsumedOnBackendClientError(t *testing.T) {
	f := newToolsFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "context too long"})
	})

	rec := httptest.NewRecorder()
	f.handler.Chat(rec, authedRequest(http.MethodPost, "/api/v1/pdf-summarizer/chat", `{"question":"q","context":"c"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, ledgerCount(t, f, models.FeaturePDFChat))
}

func TestChat_NoQuotaConsumedWhenBackendDown(t *testing.T) {
	f := newToolsFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	// a short deadline cuts the retry loop off quickly
	req := authedRequest(http.MethodPost, "/api/v1/pdf-summarizer/chat", `{"question":"q","context":"c"}`)
	ctx, cancel := context.WithTimeout(req.Context(), 100*time.Millisecond)
	defer cancel()

	rec := httptest.NewRecorder()
	f.handler.Chat(rec, req.WithContext(ctx))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Zero(t, ledgerCount(t, f, models.FeaturePDFChat))
}

func TestChat_DeniedAtLimitWithoutBackendCall(t *testing.T) {
	f := newToolsFixture(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ai.DocChatResponse{Answer: "should not happen"})
	})

	limit := pricing.LimitFor(models.PlanFree, models.FeaturePDFChat)
	_, err := f.usage.Add(context.Background(), "user-1", models.FeaturePDFChat, 3, 2025, limit)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	f.handler.Chat(rec, authedRequest(http.MethodPost, "/api/v1/pdf-summarizer/chat", `{"question":"q","context":"c"}`))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Zero(t, f.calls.Load())
	assert.Equal(t, limit, ledgerCount(t, f, models.FeaturePDFChat))

	var body struct {
		Error string                `json:"error"`
		Usage *models.UsageSnapshot `json:"usage"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)
	require.NotNil(t, body.Usage)
	assert.False(t, body.Usage.Allowed)
	assert.Zero(t, body.Usage.Remaining)
}

func TestChat_Unauthorized(t *testing.T) {
	f := newToolsFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pdf-summarizer/chat", strings.NewReader(`{"question":"q"}`))
	f.handler.Chat(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, f.calls.Load())
}

func TestHumanize_ChargesCharacterCount(t *testing.T) {
	f := newToolsFixture(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ai.HumanizeResponse{HumanizedText: "better"})
	})

	text := strings.Repeat("a", 300)
	rec := httptest.NewRecorder()
	f.handler.Humanize(rec, authedRequest(http.MethodPost, "/api/v1/humanize", `{"text":"`+text+`"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 300, ledgerCount(t, f, models.FeatureTextHumanizer))
}

func TestHumanize_DeniedOverCharacterBudget(t *testing.T) {
	f := newToolsFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := f.usage.Add(context.Background(), "user-1", models.FeatureTextHumanizer, 3, 2025, 4800)
	require.NoError(t, err)

	text := strings.Repeat("a", 300)
	rec := httptest.NewRecorder()
	f.handler.Humanize(rec, authedRequest(http.MethodPost, "/api/v1/humanize", `{"text":"`+text+`"}`))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Zero(t, f.calls.Load())
	assert.Equal(t, 4800, ledgerCount(t, f, models.FeatureTextHumanizer))

	var body struct {
		Usage *models.UsageSnapshot `json:"usage"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Usage)
	assert.Equal(t, 200, body.Usage.Remaining)
}

func TestGenerateImages_ChargesRequestedCount(t *testing.T) {
	f := newToolsFixture(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ai.ImageResponse{Images: []string{"a", "b", "c"}})
	})

	rec := httptest.NewRecorder()
	f.handler.GenerateImages(rec, authedRequest(http.MethodPost, "/api/v1/images/generate", `{"prompt":"a fox","count":3}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, ledgerCount(t, f, models.FeatureImageGeneration))
}

func TestSummarize_Unmetered(t *testing.T) {
	f := newToolsFixture(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ai.SummarizeResponse{Summary: "short"})
	})

	rec := httptest.NewRecorder()
	f.handler.Summarize(rec, authedRequest(http.MethodPost, "/api/v1/pdf-summarizer/summarize", `{"text":"long"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	for _, feature := range models.MeteredFeatures {
		assert.Zero(t, ledgerCount(t, f, feature), feature)
	}
}
