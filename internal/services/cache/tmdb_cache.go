// Package cache stores TMDB responses in SQLite so repeated lookups stay
// inside the API's rate budget, with per-endpoint TTLs and a daily call
// counter for operator visibility.
package cache

import (
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/veyronhq/reqforge/internal/db/repository"
)

type TMDBCacheService struct {
	db *repository.Queries
}

func NewTMDBCacheService(database *repository.Queries) *TMDBCacheService {
	return &TMDBCacheService{
		db: database,
	}
}

// Cache TTL constants
const (
	SeasonDetailsTTL = 7 * 24 * time.Hour // 7 days for per-season episode lists
	ListingTTL       = 15 * time.Minute   // 15 minutes for popular/upcoming listings
)

// GenerateCacheKey creates a consistent cache key from endpoint and parameters
func (c *TMDBCacheService) GenerateCacheKey(endpoint string, params map[string]interface{}) string {
	// Create a consistent hash of the parameters
	paramJSON, _ := json.Marshal(params)
	hash := fmt.Sprintf("%x", md5.Sum(paramJSON))
	return fmt.Sprintf("tmdb:%s:%s", endpoint, hash)
}

// GetCachedData retrieves data from cache if it exists and is not expired
func (c *TMDBCacheService) GetCachedData(cacheKey string) ([]byte, bool, error) {
	ctx := context.Background()
	entry, err := c.db.GetCacheEntry(ctx, cacheKey)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil // Cache miss, not an error
		}
		return nil, false, fmt.Errorf("failed to get cache entry: %w", err)
	}

	return []byte(entry.Data), true, nil
}

// SetCachedData stores data in cache with appropriate TTL
func (c *TMDBCacheService) SetCachedData(cacheKey string, endpoint string, data []byte, ttl time.Duration) error {
	ctx := context.Background()
	expiresAt := time.Now().Add(ttl)

	err := c.db.SetCacheEntry(ctx, repository.SetCacheEntryParams{
		CacheKey:  cacheKey,
		Data:      string(data),
		Endpoint:  endpoint,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}

	return nil
}

// GetTTLForEndpoint returns appropriate TTL based on endpoint type
func (c *TMDBCacheService) GetTTLForEndpoint(endpoint string) time.Duration {
	if len(endpoint) > 3 && endpoint[:3] == "tv/" {
		return SeasonDetailsTTL
	}
	return ListingTTL
}

// TrackAPIUsage records one upstream API call for the daily counter.
func (c *TMDBCacheService) TrackAPIUsage(endpoint string) error {
	ctx := context.Background()
	err := c.db.IncrementAPIUsage(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("failed to track API usage: %w", err)
	}
	return nil
}

// GetAPIUsageToday reports how many upstream calls were made today.
func (c *TMDBCacheService) GetAPIUsageToday() (int64, error) {
	ctx := context.Background()
	usage, err := c.db.GetAPIUsageToday(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get API usage: %w", err)
	}
	return usage, nil
}
