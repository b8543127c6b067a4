package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agoraai/backend/internal/cache"
)

const (
	// DefaultCacheTTL is used when no TTL is configured
	DefaultCacheTTL = 1 * time.Hour

	// CacheKeyPrefix is the prefix for all AI cache keys
	CacheKeyPrefix = "ai:"
)

// ResponseCache caches deterministic tool responses so re-running the same
// summarization does not hit the backend (or the user's quota) twice.
type ResponseCache struct {
	redis *cache.Redis
	ttl   time.Duration
}

// NewResponseCache creates a new response cache wrapper. A non-positive
// ttl falls back to DefaultCacheTTL.
func NewResponseCache(redis *cache.Redis, ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResponseCache{redis: redis, ttl: ttl}
}

// summaryCacheKey hashes the full request so any parameter change misses
func summaryCacheKey(req *SummarizeRequest) string {
	return fmt.Sprintf("%ssummary:%s", CacheKeyPrefix, hashRequest(req))
}

func keyPointsCacheKey(req *KeyPointsRequest) string {
	return fmt.Sprintf("%skeypoints:%s", CacheKeyPrefix, hashRequest(req))
}

func hashRequest(req interface{}) string {
	data, _ := json.Marshal(req)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// GetSummary retrieves a cached summary result
func (c *ResponseCache) GetSummary(ctx context.Context, req *SummarizeRequest) (*SummarizeResponse, error) {
	data, err := c.redis.Get(ctx, summaryCacheKey(req))
	if err != nil {
		return nil, nil // cache miss, not an error
	}

	var result SummarizeResponse
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached summary: %w", err)
	}

	return &result, nil
}

// SetSummary caches a summary result
func (c *ResponseCache) SetSummary(ctx context.Context, req *SummarizeRequest, result *SummarizeResponse) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	if err := c.redis.Set(ctx, summaryCacheKey(req), string(data), c.ttl); err != nil {
		return fmt.Errorf("failed to cache summary: %w", err)
	}

	return nil
}

// GetKeyPoints retrieves a cached key-points result
func (c *ResponseCache) GetKeyPoints(ctx context.Context, req *KeyPointsRequest) (*KeyPointsResponse, error) {
	data, err := c.redis.Get(ctx, keyPointsCacheKey(req))
	if err != nil {
		return nil, nil // cache miss, not an error
	}

	var result KeyPointsResponse
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached key points: %w", err)
	}

	return &result, nil
}

// SetKeyPoints caches a key-points result
func (c *ResponseCache) SetKeyPoints(ctx context.Context, req *KeyPointsRequest, result *KeyPointsResponse) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal key points: %w", err)
	}

	if err := c.redis.Set(ctx, keyPointsCacheKey(req), string(data), c.ttl); err != nil {
		return fmt.Errorf("failed to cache key points: %w", err)
	}

	return nil
}
