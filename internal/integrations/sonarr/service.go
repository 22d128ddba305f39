package sonarr

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

// Monitor types understood by Sonarr's add endpoint. The dispatcher derives
// one from the shape of the request: episode-level selections win over
// season-level ones, and no selection at all monitors everything.
const (
	MonitorAll              = "all"
	MonitorSpecificSeasons  = "specificSeasons"
	MonitorSpecificEpisodes = "specificEpisodes"
)

// Service is the REST client for Sonarr instances. Every operation is scoped
// to an explicit instance so the dispatcher and reconciler can fan out across
// a multi-instance deployment instead of always hitting the first row.
type Service interface {
	SystemStatus(ctx context.Context, instance repository.ArrService) (*SystemStatusResponse, error)
	GetRootFolders(ctx context.Context, instance repository.ArrService) ([]RootFolder, error)
	GetQualityProfiles(ctx context.Context, instance repository.ArrService) ([]QualityProfile, error)
	GetLanguageProfiles(ctx context.Context, instance repository.ArrService) ([]LanguageProfile, error)
	LookupSeries(ctx context.Context, instance repository.ArrService, tmdbID int64) (*SeriesResponse, error)
	AddSeries(ctx context.Context, instance repository.ArrService, input AddSeriesInput) (*AddSeriesResponse, error)
	GetSeriesByTMDBID(ctx context.Context, instance repository.ArrService, tmdbID int64) (*SeriesResponse, error)
	GetSeries(ctx context.Context, instance repository.ArrService) ([]SeriesResponse, error)
	GetEpisodes(ctx context.Context, instance repository.ArrService, seriesID int) ([]Episode, error)
	SetEpisodesMonitored(ctx context.Context, instance repository.ArrService, episodeIDs []int, monitored bool) error
	GetQueue(ctx context.Context, instance repository.ArrService) ([]QueueRecord, error)
	SearchSeries(ctx context.Context, instance repository.ArrService, seriesID int) error
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

type LanguageProfile struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type AddSeriesResponse struct {
	ID               int    `json:"id"`
	Title            string `json:"title"`
	TmdbID           int64  `json:"tmdbId"`
	TvdbID           int64  `json:"tvdbId"`
	QualityProfileID int    `json:"qualityProfileId"`
	RootFolderPath   string `json:"rootFolderPath"`
	Monitored        bool   `json:"monitored"`
	Added            string `json:"added"`
}

type SeriesResponse struct {
	ID               int    `json:"id"`
	Title            string `json:"title"`
	TmdbID           int64  `json:"tmdbId"`
	TvdbID           int64  `json:"tvdbId"`
	QualityProfileID int    `json:"qualityProfileId"`
	RootFolderPath   string `json:"rootFolderPath"`
	Monitored        bool   `json:"monitored"`
	Status           string `json:"status"`
	Statistics       struct {
		EpisodeFileCount  int     `json:"episodeFileCount"`
		EpisodeCount      int     `json:"episodeCount"`
		TotalEpisodeCount int     `json:"totalEpisodeCount"`
		PercentOfEpisodes float64 `json:"percentOfEpisodes"`
	} `json:"statistics"`
	Seasons []struct {
		SeasonNumber int  `json:"seasonNumber"`
		Monitored    bool `json:"monitored"`
	} `json:"seasons"`
}

type Episode struct {
	ID            int  `json:"id"`
	SeriesID      int  `json:"seriesId"`
	SeasonNumber  int  `json:"seasonNumber"`
	EpisodeNumber int  `json:"episodeNumber"`
	HasFile       bool `json:"hasFile"`
	Monitored     bool `json:"monitored"`
}

type QueueRecord struct {
	ID       int     `json:"id"`
	SeriesID int     `json:"seriesId"`
	Title    string  `json:"title"`
	Status   string  `json:"status"`
	Size     float64 `json:"size"`
	SizeLeft float64 `json:"sizeleft"`
}

// AddSeriesInput carries instance-resolved add parameters plus the requested
// season/episode selection driving the monitor type.
type AddSeriesInput struct {
	TmdbID            int64
	Title             string
	QualityProfileID  int
	LanguageProfileID int
	RootFolderPath    string
	Tags              []int
	MonitorType       string
	Seasons           []int
	Episodes          map[int][]int
	SearchForMissing  bool
}

type addSeriesRequest struct {
	Title             string          `json:"title"`
	TmdbID            int64           `json:"tmdbId"`
	TvdbID            int64           `json:"tvdbId,omitempty"`
	QualityProfileID  int             `json:"qualityProfileId"`
	LanguageProfileID int             `json:"languageProfileId,omitempty"`
	RootFolderPath    string          `json:"rootFolderPath"`
	Monitored         bool            `json:"monitored"`
	MonitorType       string          `json:"monitorType"`
	Tags              []int           `json:"tags,omitempty"`
	Seasons           []seasonRequest `json:"seasons,omitempty"`
	AddOptions        struct {
		SearchForMissingEpisodes bool `json:"searchForMissingEpisodes"`
	} `json:"addOptions"`
}

type seasonRequest struct {
	SeasonNumber int  `json:"seasonNumber"`
	Monitored    bool `json:"monitored"`
}

type sonarrService struct {
	repo   *repository.Queries
	client *http.Client

	// One limiter per instance id so a burst of approvals cannot hammer a
	// single Sonarr while other instances sit idle.
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func New(repo *repository.Queries) Service {
	return &sonarrService{
		repo:     repo,
		client:   &http.Client{Timeout: 10 * time.Second},
		limiters: make(map[string]*rate.Limiter),
	}
}

func (ss *sonarrService) limiter(instanceID string) *rate.Limiter {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	l, ok := ss.limiters[instanceID]
	if !ok {
		l = rate.NewLimiter(rate.Limit(5), 10)
		ss.limiters[instanceID] = l
	}
	return l
}

func (ss *sonarrService) do(ctx context.Context, instance repository.ArrService, method, path string, body interface{}, out interface{}) error {
	if err := ss.limiter(instance.ID).Wait(ctx); err != nil {
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

	resp, err := ss.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to contact Sonarr instance %s: %w", instance.Name, err)
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
			return fmt.Errorf("failed to decode Sonarr response: %w", err)
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
	return fmt.Sprintf("Sonarr instance %s returned status %d: %s", e.Instance, e.StatusCode, e.Body)
}

func (ss *sonarrService) SystemStatus(ctx context.Context, instance repository.ArrService) (*SystemStatusResponse, error) {
	var status SystemStatusResponse
	if err := ss.do(ctx, instance, http.MethodGet, "/api/v3/system/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (ss *sonarrService) GetRootFolders(ctx context.Context, instance repository.ArrService) ([]RootFolder, error) {
	var folders []RootFolder
	if err := ss.do(ctx, instance, http.MethodGet, "/api/v3/rootfolder", nil, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

func (ss *sonarrService) GetQualityProfiles(ctx context.Context, instance repository.ArrService) ([]QualityProfile, error) {
	var profiles []QualityProfile
	if err := ss.do(ctx, instance, http.MethodGet, "/api/v3/qualityprofile", nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (ss *sonarrService) GetLanguageProfiles(ctx context.Context, instance repository.ArrService) ([]LanguageProfile, error) {
	var profiles []LanguageProfile
	if err := ss.do(ctx, instance, http.MethodGet, "/api/v3/languageprofile", nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (ss *sonarrService) LookupSeries(ctx context.Context, instance repository.ArrService, tmdbID int64) (*SeriesResponse, error) {
	var results []SeriesResponse
	path := fmt.Sprintf("/api/v3/series/lookup?term=tmdb:%d", tmdbID)
	if err := ss.do(ctx, instance, http.MethodGet, path, nil, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

func (ss *sonarrService) AddSeries(ctx context.Context, instance repository.ArrService, input AddSeriesInput) (*AddSeriesResponse, error) {
	// Idempotent by tmdb id: a series already tracked by the instance is
	// returned as-is rather than added a second time.
	existing, err := ss.GetSeriesByTMDBID(ctx, instance, input.TmdbID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// The series exists; newly selected episodes are added to its
		// monitoring. Season-level selections are not applied to an
		// existing series.
		if len(input.Episodes) > 0 {
			if err := ss.monitorSelection(ctx, instance, existing.ID, input); err != nil {
				slog.Warn("Failed to widen series monitoring", "series_id", existing.ID, "error", err)
			}
		}
		return &AddSeriesResponse{
			ID:               existing.ID,
			Title:            existing.Title,
			TmdbID:           existing.TmdbID,
			TvdbID:           existing.TvdbID,
			QualityProfileID: existing.QualityProfileID,
			RootFolderPath:   existing.RootFolderPath,
			Monitored:        existing.Monitored,
		}, nil
	}

	// Sonarr's add endpoint needs the lookup payload: it carries the tvdb
	// id and the season list the add request is shaped around.
	looked, err := ss.LookupSeries(ctx, instance, input.TmdbID)
	if err != nil {
		return nil, err
	}
	if looked == nil {
		return nil, fmt.Errorf("series tmdb:%d not found by Sonarr lookup", input.TmdbID)
	}

	monitorType := input.MonitorType
	if monitorType == "" {
		monitorType = MonitorAll
	}

	monitoredSeasons := make(map[int]bool)
	for _, season := range input.Seasons {
		monitoredSeasons[season] = true
	}
	for season := range input.Episodes {
		monitoredSeasons[season] = true
	}

	addRequest := addSeriesRequest{
		Title:             looked.Title,
		TmdbID:            input.TmdbID,
		TvdbID:            looked.TvdbID,
		QualityProfileID:  input.QualityProfileID,
		LanguageProfileID: input.LanguageProfileID,
		RootFolderPath:    input.RootFolderPath,
		Monitored:         true,
		MonitorType:       monitorType,
		Tags:              input.Tags,
	}
	addRequest.AddOptions.SearchForMissingEpisodes = input.SearchForMissing

	if len(monitoredSeasons) > 0 {
		for _, season := range looked.Seasons {
			addRequest.Seasons = append(addRequest.Seasons, seasonRequest{
				SeasonNumber: season.SeasonNumber,
				Monitored:    monitoredSeasons[season.SeasonNumber],
			})
		}
	}

	var response AddSeriesResponse
	if err := ss.do(ctx, instance, http.MethodPost, "/api/v3/series", addRequest, &response); err != nil {
		return nil, err
	}

	slog.Info("Series added to Sonarr",
		"instance", instance.Name,
		"sonarr_id", response.ID,
		"title", response.Title,
		"monitor_type", monitorType)

	// Episode-level selections need a second pass: the add call can only
	// monitor whole seasons.
	if monitorType == MonitorSpecificEpisodes && len(input.Episodes) > 0 {
		if err := ss.monitorSelection(ctx, instance, response.ID, input); err != nil {
			slog.Warn("Failed to narrow episode monitoring", "series_id", response.ID, "error", err)
		}
	}

	return &response, nil
}

// monitorSelection reconciles per-episode monitoring with the requested
// selection for an existing series.
func (ss *sonarrService) monitorSelection(ctx context.Context, instance repository.ArrService, seriesID int, input AddSeriesInput) error {
	if len(input.Episodes) == 0 {
		return nil
	}

	episodes, err := ss.GetEpisodes(ctx, instance, seriesID)
	if err != nil {
		return err
	}

	wanted := make(map[int]map[int]bool)
	for season, episodeNumbers := range input.Episodes {
		wanted[season] = make(map[int]bool)
		for _, episodeNumber := range episodeNumbers {
			wanted[season][episodeNumber] = true
		}
	}

	var toMonitor []int
	for _, episode := range episodes {
		if wanted[episode.SeasonNumber][episode.EpisodeNumber] && !episode.Monitored {
			toMonitor = append(toMonitor, episode.ID)
		}
	}
	if len(toMonitor) == 0 {
		return nil
	}
	return ss.SetEpisodesMonitored(ctx, instance, toMonitor, true)
}

func (ss *sonarrService) GetSeriesByTMDBID(ctx context.Context, instance repository.ArrService, tmdbID int64) (*SeriesResponse, error) {
	var series []SeriesResponse
	path := fmt.Sprintf("/api/v3/series?tmdbId=%d", tmdbID)
	if err := ss.do(ctx, instance, http.MethodGet, path, nil, &series); err != nil {
		if upstream, ok := err.(*UpstreamError); ok && upstream.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if len(series) == 0 {
		return nil, nil
	}
	return &series[0], nil
}

func (ss *sonarrService) GetSeries(ctx context.Context, instance repository.ArrService) ([]SeriesResponse, error) {
	var series []SeriesResponse
	if err := ss.do(ctx, instance, http.MethodGet, "/api/v3/series", nil, &series); err != nil {
		return nil, err
	}
	return series, nil
}

func (ss *sonarrService) GetEpisodes(ctx context.Context, instance repository.ArrService, seriesID int) ([]Episode, error) {
	var episodes []Episode
	path := fmt.Sprintf("/api/v3/episode?seriesId=%d", seriesID)
	if err := ss.do(ctx, instance, http.MethodGet, path, nil, &episodes); err != nil {
		return nil, err
	}
	return episodes, nil
}

func (ss *sonarrService) SetEpisodesMonitored(ctx context.Context, instance repository.ArrService, episodeIDs []int, monitored bool) error {
	body := map[string]interface{}{
		"episodeIds": episodeIDs,
		"monitored":  monitored,
	}
	return ss.do(ctx, instance, http.MethodPut, "/api/v3/episode/monitor", body, nil)
}

func (ss *sonarrService) GetQueue(ctx context.Context, instance repository.ArrService) ([]QueueRecord, error) {
	var queue struct {
		Records []QueueRecord `json:"records"`
	}
	if err := ss.do(ctx, instance, http.MethodGet, "/api/v3/queue?pageSize=500", nil, &queue); err != nil {
		return nil, err
	}
	return queue.Records, nil
}

func (ss *sonarrService) SearchSeries(ctx context.Context, instance repository.ArrService, seriesID int) error {
	command := map[string]interface{}{
		"name":     "SeriesSearch",
		"seriesId": seriesID,
	}
	return ss.do(ctx, instance, http.MethodPost, "/api/v3/command", command, nil)
}
