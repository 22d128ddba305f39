// Package tmdb is the narrow catalog-metadata client the core consumes:
// the category listing pages the cache pre-computes and the per-season
// episode counts availability tracking needs. The browsing surface a
// presentation layer would build on this contract lives outside the core.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/veyronhq/reqforge/pkg/structures"
)

type Service interface {
	GetMoviePopular(page string) (structures.TMDBMediaResponse, error)
	GetMovieUpcoming(page string) (structures.TMDBMediaResponse, error)
	DiscoverMovie(params structures.DiscoverMovieParams) (structures.TMDBMediaResponse, error)

	GetTVPopular(page string) (structures.TMDBMediaResponse, error)
	GetTVUpcoming(page string) (structures.TMDBMediaResponse, error)
	GetSeasonDetails(seriesID string, seasonNumber string) (structures.SeasonDetails, error)
}

type tmdbService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration // optional: configurable timeout
}

func New(opts Options) (Service, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("TMDB API key is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.themoviedb.org/3"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	return &tmdbService{
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		client: &http.Client{
			Timeout: opts.Timeout,
		},
	}, nil
}

func (t *tmdbService) GetMoviePopular(page string) (structures.TMDBMediaResponse, error) {
	return t.makeRequest("/movie/popular", map[string]string{
		"page":     page,
		"language": "en-US",
	})
}

func (t *tmdbService) GetMovieUpcoming(page string) (structures.TMDBMediaResponse, error) {
	return t.makeRequest("/movie/upcoming", map[string]string{
		"page":     page,
		"language": "en-US",
	})
}

// DiscoverMovie runs a filtered discover query; the category cache uses it
// for listings the fixed endpoints don't cover (e.g. top rated).
func (t *tmdbService) DiscoverMovie(params structures.DiscoverMovieParams) (structures.TMDBMediaResponse, error) {
	v, err := query.Values(params)
	if err != nil {
		return structures.TMDBMediaResponse{}, fmt.Errorf("failed to encode query params: %w", err)
	}

	v.Set("api_key", t.apiKey)
	v.Set("language", "en-US")
	endpoint := t.baseURL + "/discover/movie?" + v.Encode()

	return t.fetchMediaResponse(endpoint)
}

func (t *tmdbService) GetTVPopular(page string) (structures.TMDBMediaResponse, error) {
	return t.makeRequest("/tv/popular", map[string]string{
		"page":     page,
		"language": "en-US",
	})
}

// GetTVUpcoming fetches TV shows on the air (upcoming episodes) from TMDB.
func (t *tmdbService) GetTVUpcoming(page string) (structures.TMDBMediaResponse, error) {
	return t.makeRequest("/tv/on_the_air", map[string]string{
		"page":     page,
		"language": "en-US",
	})
}

func (t *tmdbService) GetSeasonDetails(seriesID string, seasonNumber string) (structures.SeasonDetails, error) {
	endpoint := fmt.Sprintf("%s/tv/%s/season/%s?language=en-US&api_key=%s", t.baseURL, seriesID, seasonNumber, t.apiKey)

	ctx, cancel := context.WithTimeout(context.Background(), t.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return structures.SeasonDetails{}, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return structures.SeasonDetails{}, fmt.Errorf("failed to contact TMDB: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return structures.SeasonDetails{}, fmt.Errorf("TMDB returned status %d", resp.StatusCode)
	}

	var details structures.SeasonDetails
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return structures.SeasonDetails{}, fmt.Errorf("failed to decode season details: %w", err)
	}
	return details, nil
}

func (t *tmdbService) makeRequest(endpoint string, params map[string]string) (structures.TMDBMediaResponse, error) {
	u, err := url.Parse(t.baseURL + endpoint)
	if err != nil {
		return structures.TMDBMediaResponse{}, fmt.Errorf("invalid endpoint: %w", err)
	}

	q := u.Query()
	q.Set("api_key", t.apiKey)
	for key, value := range params {
		q.Set(key, value)
	}
	u.RawQuery = q.Encode()

	return t.fetchMediaResponse(u.String())
}

func (t *tmdbService) fetchMediaResponse(endpoint string) (structures.TMDBMediaResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), t.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return structures.TMDBMediaResponse{}, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return structures.TMDBMediaResponse{}, fmt.Errorf("failed to contact TMDB: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return structures.TMDBMediaResponse{}, fmt.Errorf("TMDB returned status %d", resp.StatusCode)
	}

	var response structures.TMDBMediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return structures.TMDBMediaResponse{}, fmt.Errorf("failed to decode TMDB response: %w", err)
	}
	return response, nil
}
