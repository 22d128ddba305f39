// Package cached decorates the TMDB client with the SQLite response cache,
// so repeated category refreshes and season lookups stay within the API's
// rate budget.
package cached

import (
	"encoding/json"
	"log/slog"

	"github.com/veyronhq/reqforge/internal/integrations/tmdb"
	"github.com/veyronhq/reqforge/internal/services/cache"
	"github.com/veyronhq/reqforge/pkg/structures"
)

// TMDBService wraps the TMDB client with caching capabilities.
type TMDBService struct {
	tmdb  tmdb.Service
	cache *cache.TMDBCacheService
}

// NewTMDBService creates a new cached TMDB service.
func NewTMDBService(tmdbService tmdb.Service, cacheService *cache.TMDBCacheService) tmdb.Service {
	return &TMDBService{
		tmdb:  tmdbService,
		cache: cacheService,
	}
}

// mediaPage serves a listing endpoint through the cache: cache hit wins,
// misses fetch, store, and record the API call.
func (c *TMDBService) mediaPage(endpoint string, params map[string]interface{}, fetch func() (structures.TMDBMediaResponse, error)) (structures.TMDBMediaResponse, error) {
	cacheKey := c.cache.GenerateCacheKey(endpoint, params)

	if data, found, err := c.cache.GetCachedData(cacheKey); err == nil && found {
		var cached structures.TMDBMediaResponse
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	response, err := fetch()
	if err != nil {
		return response, err
	}

	if err := c.cache.TrackAPIUsage(endpoint); err != nil {
		slog.Debug("Failed to track TMDB API usage", "endpoint", endpoint, "error", err)
	}
	if data, err := json.Marshal(response); err == nil {
		ttl := c.cache.GetTTLForEndpoint(endpoint)
		if err := c.cache.SetCachedData(cacheKey, endpoint, data, ttl); err != nil {
			slog.Debug("Failed to cache TMDB response", "endpoint", endpoint, "error", err)
		}
	}
	return response, nil
}

func (c *TMDBService) GetMoviePopular(page string) (structures.TMDBMediaResponse, error) {
	return c.mediaPage("movie/popular", map[string]interface{}{"page": page}, func() (structures.TMDBMediaResponse, error) {
		return c.tmdb.GetMoviePopular(page)
	})
}

func (c *TMDBService) GetMovieUpcoming(page string) (structures.TMDBMediaResponse, error) {
	return c.mediaPage("movie/upcoming", map[string]interface{}{"page": page}, func() (structures.TMDBMediaResponse, error) {
		return c.tmdb.GetMovieUpcoming(page)
	})
}

func (c *TMDBService) DiscoverMovie(params structures.DiscoverMovieParams) (structures.TMDBMediaResponse, error) {
	return c.mediaPage("discover/movie", map[string]interface{}{"params": params}, func() (structures.TMDBMediaResponse, error) {
		return c.tmdb.DiscoverMovie(params)
	})
}

func (c *TMDBService) GetTVPopular(page string) (structures.TMDBMediaResponse, error) {
	return c.mediaPage("tv/popular", map[string]interface{}{"page": page}, func() (structures.TMDBMediaResponse, error) {
		return c.tmdb.GetTVPopular(page)
	})
}

func (c *TMDBService) GetTVUpcoming(page string) (structures.TMDBMediaResponse, error) {
	return c.mediaPage("tv/on_the_air", map[string]interface{}{"page": page}, func() (structures.TMDBMediaResponse, error) {
		return c.tmdb.GetTVUpcoming(page)
	})
}

func (c *TMDBService) GetSeasonDetails(seriesID string, seasonNumber string) (structures.SeasonDetails, error) {
	endpoint := "tv/" + seriesID + "/season/" + seasonNumber
	cacheKey := c.cache.GenerateCacheKey(endpoint, map[string]interface{}{
		"series": seriesID, "season": seasonNumber,
	})

	if data, found, err := c.cache.GetCachedData(cacheKey); err == nil && found {
		var cached structures.SeasonDetails
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	details, err := c.tmdb.GetSeasonDetails(seriesID, seasonNumber)
	if err != nil {
		return details, err
	}

	if err := c.cache.TrackAPIUsage(endpoint); err != nil {
		slog.Debug("Failed to track TMDB API usage", "endpoint", endpoint, "error", err)
	}
	if data, err := json.Marshal(details); err == nil {
		ttl := c.cache.GetTTLForEndpoint(endpoint)
		if err := c.cache.SetCachedData(cacheKey, endpoint, data, ttl); err != nil {
			slog.Debug("Failed to cache season details", "season", seasonNumber, "error", err)
		}
	}
	return details, nil
}

