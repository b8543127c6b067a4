// Package ai talks to the external AI tools backend that performs the
// actual document summarization, humanizing and image generation work.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultBaseURL    = "http://127.0.0.1:8000"
	DefaultTimeout    = 60 * time.Second
	MaxRetries        = 3
	InitialBackoff    = 1 * time.Second
	MaxBackoff        = 30 * time.Second
	BackoffMultiplier = 2.0
)

// Client handles communication with the AI tools backend
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// SummarizeRequest asks for a summary of extracted PDF text
type SummarizeRequest struct {
	Text      string `json:"text"`
	Style     string `json:"style,omitempty"`
	MaxLength int    `json:"max_length,omitempty"`
	Language  string `json:"language,omitempty"`
}

// SummarizeResponse is the backend's summary payload
type SummarizeResponse struct {
	Summary  string `json:"summary"`
	Language string `json:"language,omitempty"`
}

// DocChatRequest asks a question against previously uploaded document text
type DocChatRequest struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

// DocChatResponse is the backend's answer payload
type DocChatResponse struct {
	Answer string `json:"answer"`
}

// KeyPointsRequest asks for the key points of a document
type KeyPointsRequest struct {
	Text  string `json:"text"`
	Count int    `json:"count,omitempty"`
}

// KeyPointsResponse lists extracted key points
type KeyPointsResponse struct {
	KeyPoints []string `json:"key_points"`
}

// QuestionsRequest asks for study questions generated from a document
type QuestionsRequest struct {
	Text  string `json:"text"`
	Count int    `json:"count,omitempty"`
}

// QuestionsResponse lists generated questions
type QuestionsResponse struct {
	Questions []string `json:"questions"`
}

// HumanizeRequest asks for AI-detectable text to be rewritten
type HumanizeRequest struct {
	Text string `json:"text"`
	Tone string `json:"tone,omitempty"`
}

// HumanizeResponse is the rewritten text
type HumanizeResponse struct {
	HumanizedText string `json:"humanized_text"`
}

// ImageRequest asks for generated images
type ImageRequest struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// ImageResponse carries generated image URLs or base64 payloads
type ImageResponse struct {
	Images []string `json:"images"`
}

// backendError is the error envelope the tools backend returns
type backendError struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// NewClient creates a new tools backend client
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
	}
}

// Summarize produces a summary of the given text
func (c *Client) Summarize(ctx context.Context, req *SummarizeRequest) (*SummarizeResponse, error) {
	var resp SummarizeResponse
	if err := c.post(ctx, "/pdf-summarizer/summarize", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DocChat answers a question against document context
func (c *Client) DocChat(ctx context.Context, req *DocChatRequest) (*DocChatResponse, error) {
	var resp DocChatResponse
	if err := c.post(ctx, "/pdf-summarizer/chat", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// KeyPoints extracts the key points of a document
func (c *Client) KeyPoints(ctx context.Context, req *KeyPointsRequest) (*KeyPointsResponse, error) {
	var resp KeyPointsResponse
	if err := c.post(ctx, "/pdf-summarizer/key-points", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Questions generates study questions from a document
func (c *Client) Questions(ctx context.Context, req *QuestionsRequest) (*QuestionsResponse, error) {
	var resp QuestionsResponse
	if err := c.post(ctx, "/pdf-summarizer/questions", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Humanize rewrites text in a natural register
func (c *Client) Humanize(ctx context.Context, req *HumanizeRequest) (*HumanizeResponse, error) {
	var resp HumanizeResponse
	if err := c.post(ctx, "/humanize", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateImages produces images from a prompt
func (c *Client) GenerateImages(ctx context.Context, req *ImageRequest) (*ImageResponse, error) {
	if req.Count == 0 {
		req.Count = 1
	}
	var resp ImageResponse
	if err := c.post(ctx, "/images/generate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post sends a JSON request with retry logic and decodes the response
func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	var lastErr error
	backoff := InitialBackoff

	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = time.Duration(float64(backoff) * BackoffMultiplier)
			if backoff > MaxBackoff {
				backoff = MaxBackoff
			}
		}

		err := c.doRequest(ctx, path, in, out)
		if err == nil {
			return nil
		}

		lastErr = err

		if !isRetryableError(err) {
			return err
		}
	}

	return fmt.Errorf("failed after %d retries: %w", MaxRetries, lastErr)
}

func (c *Client) doRequest(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var backendErr backendError
		if err := json.Unmarshal(respBody, &backendErr); err == nil && (backendErr.Error != "" || backendErr.Detail != "") {
			message := backendErr.Error
			if message == "" {
				message = backendErr.Detail
			}
			return &APIError{
				StatusCode: resp.StatusCode,
				Message:    message,
			}
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// APIError represents a tools backend error with status code and message
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tools backend error (%d): %s", e.StatusCode, e.Message)
}

// IsRateLimitError checks if the error is a rate limit error
func (e *APIError) IsRateLimitError() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsServerError checks if the error is a server error
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// isRetryableError checks if an error should be retried
func isRetryableError(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.IsRateLimitError() || apiErr.IsServerError()
	}
	return false
}
