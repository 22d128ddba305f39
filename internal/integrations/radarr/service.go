package radarr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/veyronhq/reqforge/internal/db/repository"
)

// Service is the REST client for Radarr instances. Every operation is scoped
// to an explicit instance so the dispatcher and reconciler can fan out across
// a multi-instance deployment instead of always hitting the first row.
type Service interface {
	SystemStatus(ctx context.Context, instance repository.ArrService) (*SystemStatusResponse, error)
	GetRootFolders(ctx context.Context, instance repository.ArrService) ([]RootFolder, error)
	GetQualityProfiles(ctx context.Context, instance repository.ArrService) ([]QualityProfile, error)
	LookupMovie(ctx context.Context, instance repository.ArrService, tmdbID int64) (*MovieResponse, error)
	AddMovie(ctx context.Context, instance repository.ArrService, input AddMovieInput) (*AddMovieResponse, error)
	GetMovieByTMDBID(ctx context.Context, instance repository.ArrService, tmdbID int64) (*MovieResponse, error)
	GetMovies(ctx context.Context, instance repository.ArrService) ([]MovieResponse, error)
	GetQueue(ctx context.Context, instance repository.ArrService) ([]QueueRecord, error)
	SearchMovie(ctx context.Context, instance repository.ArrService, movieID int) error
}

type SystemStatusResponse struct {
	Version   string `json:"version"`
	AppName   string `json:"appName"`
	IsDocker  bool   `json:"isDocker"`
	StartTime string `json:"startTime"`
}

type RootFolder struct {
	ID         int    `json:"id"`
	Path       string `json:"path"`
	FreeSpace  int64  `json:"freeSpace"`
	Accessible bool   `json:"accessible"`
}

type QualityProfile struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type AddMovieResponse struct {
	ID                  int    `json:"id"`
	Title               string `json:"title"`
	TmdbID              int64  `json:"tmdbId"`
	QualityProfileID    int    `json:"qualityProfileId"`
	RootFolderPath      string `json:"rootFolderPath"`
	MinimumAvailability string `json:"minimumAvailability"`
	Monitored           bool   `json:"monitored"`
	Added               string `json:"added"`
}

type MovieResponse struct {
	ID                  int    `json:"id"`
	Title               string `json:"title"`
	TmdbID              int64  `json:"tmdbId"`
	HasFile             bool   `json:"hasFile"`
	Status              string `json:"status"`
	QualityProfileID    int    `json:"qualityProfileId"`
	RootFolderPath      string `json:"rootFolderPath"`
	MinimumAvailability string `json:"minimumAvailability"`
	Monitored           bool   `json:"monitored"`
}

type QueueRecord struct {
	ID       int     `json:"id"`
	MovieID  int     `json:"movieId"`
	Title    string  `json:"title"`
	Status   string  `json:"status"`
	Size     float64 `json:"size"`
	SizeLeft float64 `json:"sizeleft"`
}

// AddMovieInput carries the instance-configured add parameters resolved by
// the dispatcher from the instance's effective settings.
type AddMovieInput struct {
	TmdbID              int64
	Title               string
	QualityProfileID    int
	RootFolderPath      string
	MinimumAvailability string
	Tags                []int
	SearchForMovie      bool
}

type addMovieRequest struct {
	Title               string `json:"title"`
	TmdbID              int64  `json:"tmdbId"`
	QualityProfileID    int    `json:"qualityProfileId"`
	RootFolderPath      string `json:"rootFolderPath"`
	MinimumAvailability string `json:"minimumAvailability"`
	Monitored           bool   `json:"monitored"`
	Tags                []int  `json:"tags,omitempty"`
	AddOptions          struct {
		SearchForMovie bool `json:"searchForMovie"`
	} `json:"addOptions"`
}

type radarrService struct {
	repo   *repository.Queries
	client *http.Client

	// One limiter per instance id so a burst of approvals cannot hammer a
	// single Radarr while other instances sit idle.
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func New(repo *repository.Queries) Service {
	return &radarrService{
		repo:     repo,
		client:   &http.Client{Timeout: 10 * time.Second},
		limiters: make(map[string]*rate.Limiter),
	}
}

func (rs *radarrService) limiter(instanceID string) *rate.Limiter {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	l, ok := rs.limiters[instanceID]
	if !ok {
		l = rate.NewLimiter(rate.Limit(5), 10)
		rs.limiters[instanceID] = l
	}
	return l
}

func (rs *radarrService) do(ctx context.Context, instance repository.ArrService, method, path string, body interface{}, out interface{}) error {
	if err := rs.limiter(instance.ID).Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, instance.BaseUrl+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", instance.ApiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := rs.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to contact Radarr instance %s: %w", instance.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(resp.Body)
		return &UpstreamError{
			Instance:   instance.Name,
			StatusCode: resp.StatusCode,
			Body:       string(responseBody),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode Radarr response: %w", err)
		}
	}
	return nil
}

// UpstreamError preserves the downstream status code so callers can map it
// onto an integration error kind.
type UpstreamError struct {
	Instance   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Radarr instance %s returned status %d: %s", e.Instance, e.StatusCode, e.Body)
}

func (rs *radarrService) SystemStatus(ctx context.Context, instance repository.ArrService) (*SystemStatusResponse, error) {
	var status SystemStatusResponse
	if err := rs.do(ctx, instance, http.MethodGet, "/api/v3/system/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (rs *radarrService) GetRootFolders(ctx context.Context, instance repository.ArrService) ([]RootFolder, error) {
	var folders []RootFolder
	if err := rs.do(ctx, instance, http.MethodGet, "/api/v3/rootfolder", nil, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

func (rs *radarrService) GetQualityProfiles(ctx context.Context, instance repository.ArrService) ([]QualityProfile, error) {
	var profiles []QualityProfile
	if err := rs.do(ctx, instance, http.MethodGet, "/api/v3/qualityprofile", nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (rs *radarrService) LookupMovie(ctx context.Context, instance repository.ArrService, tmdbID int64) (*MovieResponse, error) {
	var results []MovieResponse
	path := fmt.Sprintf("/api/v3/movie/lookup?term=tmdb:%d", tmdbID)
	if err := rs.do(ctx, instance, http.MethodGet, path, nil, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

func (rs *radarrService) AddMovie(ctx context.Context, instance repository.ArrService, input AddMovieInput) (*AddMovieResponse, error) {
	// Adding twice must not create two downstream movies: if the instance
	// already tracks this tmdb id, return the existing record.
	existing, err := rs.GetMovieByTMDBID(ctx, instance, input.TmdbID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &AddMovieResponse{
			ID:                  existing.ID,
			Title:               existing.Title,
			TmdbID:              existing.TmdbID,
			QualityProfileID:    existing.QualityProfileID,
			RootFolderPath:      existing.RootFolderPath,
			MinimumAvailability: existing.MinimumAvailability,
			Monitored:           existing.Monitored,
		}, nil
	}

	addRequest := addMovieRequest{
		Title:               input.Title,
		TmdbID:              input.TmdbID,
		QualityProfileID:    input.QualityProfileID,
		RootFolderPath:      input.RootFolderPath,
		MinimumAvailability: input.MinimumAvailability,
		Monitored:           true,
		Tags:                input.Tags,
	}
	addRequest.AddOptions.SearchForMovie = input.SearchForMovie

	var response AddMovieResponse
	if err := rs.do(ctx, instance, http.MethodPost, "/api/v3/movie", addRequest, &response); err != nil {
		return nil, err
	}

	slog.Info("Movie added to Radarr",
		"instance", instance.Name,
		"radarr_id", response.ID,
		"title", response.Title,
		"root_folder", response.RootFolderPath)

	return &response, nil
}

func (rs *radarrService) GetMovieByTMDBID(ctx context.Context, instance repository.ArrService, tmdbID int64) (*MovieResponse, error) {
	var movies []MovieResponse
	path := fmt.Sprintf("/api/v3/movie?tmdbId=%d", tmdbID)
	if err := rs.do(ctx, instance, http.MethodGet, path, nil, &movies); err != nil {
		if upstream, ok := err.(*UpstreamError); ok && upstream.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if len(movies) == 0 {
		return nil, nil
	}
	return &movies[0], nil
}

func (rs *radarrService) GetMovies(ctx context.Context, instance repository.ArrService) ([]MovieResponse, error) {
	var movies []MovieResponse
	if err := rs.do(ctx, instance, http.MethodGet, "/api/v3/movie", nil, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

func (rs *radarrService) GetQueue(ctx context.Context, instance repository.ArrService) ([]QueueRecord, error) {
	var queue struct {
		Records []QueueRecord `json:"records"`
	}
	if err := rs.do(ctx, instance, http.MethodGet, "/api/v3/queue?pageSize=500", nil, &queue); err != nil {
		return nil, err
	}
	return queue.Records, nil
}

func (rs *radarrService) SearchMovie(ctx context.Context, instance repository.ArrService, movieID int) error {
	command := map[string]interface{}{
		"name":     "MoviesSearch",
		"movieIds": []int{movieID},
	}
	return rs.do(ctx, instance, http.MethodPost, "/api/v3/command", command, nil)
}
