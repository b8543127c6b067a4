package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Summarize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pdf-summarizer/summarize", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req SummarizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "long document text", req.Text)

		json.NewEncoder(w).Encode(SummarizeResponse{Summary: "short"})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	resp, err := client.Summarize(context.Background(), &SummarizeRequest{Text: "long document text"})
	require.NoError(t, err)
	assert.Equal(t, "short", resp.Summary)
}

func TestClient_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "text is required"})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Humanize(context.Background(), &HumanizeRequest{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "text is required", apiErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(HumanizeResponse{HumanizedText: "rewritten"})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	resp, err := client.Humanize(context.Background(), &HumanizeRequest{Text: "robotic text"})
	require.NoError(t, err)
	assert.Equal(t, "rewritten", resp.HumanizedText)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ContextCancelDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.GenerateImages(ctx, &ImageRequest{Prompt: "a fox"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_GenerateImagesDefaultsCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ImageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 1, req.Count)
		json.NewEncoder(w).Encode(ImageResponse{Images: []string{"https://img/1.png"}})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	resp, err := client.GenerateImages(context.Background(), &ImageRequest{Prompt: "a fox"})
	require.NoError(t, err)
	require.Len(t, resp.Images, 1)
}
