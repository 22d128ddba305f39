// Package dispatcher translates approved requests into downstream add
// operations. It is idempotent per request, caps every downstream call at a
// hard 30 seconds, and isolates flaky instances behind circuit breakers so
// one dead Radarr cannot absorb every worker.
package dispatcher

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/integrations/radarr"
	"github.com/veyronhq/reqforge/internal/integrations/sonarr"
	"github.com/veyronhq/reqforge/internal/services/instances"
	apiErrors "github.com/veyronhq/reqforge/pkg/api_errors"
	"github.com/veyronhq/reqforge/pkg/structures"
)

// dispatchTimeout caps the total wall-clock of one downstream dispatch.
const dispatchTimeout = 30 * time.Second

// Result reports where a request landed downstream.
type Result struct {
	Service   structures.ServiceType `json:"service"`
	ServiceID int64                  `json:"service_id"`
}

type Service struct {
	repo   *repository.Queries
	radarr radarr.Service
	sonarr sonarr.Service

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func New(repo *repository.Queries, radarrSvc radarr.Service, sonarrSvc sonarr.Service) *Service {
	return &Service{
		repo:     repo,
		radarr:   radarrSvc,
		sonarr:   sonarrSvc,
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

func (d *Service) breaker(instanceID, name string) *gobreaker.CircuitBreaker[any] {
	d.mu.Lock()
	defer d.mu.Unlock()
	cb, ok := d.breakers[instanceID]
	if !ok {
		cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    2 * time.Minute,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("Instance circuit breaker state change", "instance", name, "from", from.String(), "to", to.String())
			},
		})
		d.breakers[instanceID] = cb
	}
	return cb
}

// loadInstance resolves and validates the request's target instance.
func (d *Service) loadInstance(ctx context.Context, request repository.Request) (repository.ArrService, error) {
	if !request.ServiceInstanceID.Valid || request.ServiceInstanceID.String == "" {
		return repository.ArrService{}, apiErrors.ErrInstanceUnavailable().SetDetail("Request %d has no target instance", request.ID)
	}

	instance, err := d.repo.GetArrServiceByID(ctx, request.ServiceInstanceID.String)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ArrService{}, apiErrors.ErrInstanceUnavailable().SetDetail("Target instance no longer exists")
		}
		return repository.ArrService{}, err
	}
	if !instance.Enabled {
		return repository.ArrService{}, apiErrors.ErrInstanceUnavailable().SetDetail("Target instance %s is disabled", instance.Name)
	}

	expected := structures.MediaType(request.MediaType).ServiceType().String()
	if instance.Type != expected {
		return repository.ArrService{}, apiErrors.ErrInstanceUnavailable().SetDetail("Instance %s serves %s, not %s", instance.Name, instance.Type, expected)
	}
	return instance, nil
}

// mapDispatchErr folds timeout and upstream errors into their dedicated
// kinds so callers and operators can tell them apart.
func mapDispatchErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apiErrors.ErrIntegrationTimeout()
	}
	var radarrUpstream *radarr.UpstreamError
	if errors.As(err, &radarrUpstream) {
		return apiErrors.ErrIntegrationUpstreamError().
			SetFields(apiErrors.Fields{"status_code": radarrUpstream.StatusCode, "instance": radarrUpstream.Instance}).
			SetDetail("%s", radarrUpstream.Error())
	}
	var sonarrUpstream *sonarr.UpstreamError
	if errors.As(err, &sonarrUpstream) {
		return apiErrors.ErrIntegrationUpstreamError().
			SetFields(apiErrors.Fields{"status_code": sonarrUpstream.StatusCode, "instance": sonarrUpstream.Instance}).
			SetDetail("%s", sonarrUpstream.Error())
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apiErrors.ErrIntegrationUpstreamError().SetDetail("Instance temporarily unavailable (circuit open)")
	}
	return err
}

// Integrate dispatches a single request. A nil result with nil error means
// the instance has integration disabled and the dispatch was suppressed.
// Errors never roll back the request's approved status.
func (d *Service) Integrate(ctx context.Context, request repository.Request) (*Result, error) {
	// Idempotence by request id: a request already holding a downstream id
	// reports it instead of producing a second downstream entity.
	if request.RadarrID.Valid {
		return &Result{Service: structures.ServiceTypeRadarr, ServiceID: request.RadarrID.Int64}, nil
	}
	if request.SonarrID.Valid {
		return &Result{Service: structures.ServiceTypeSonarr, ServiceID: request.SonarrID.Int64}, nil
	}

	switch structures.MediaType(request.MediaType) {
	case structures.MediaTypeMovie:
		return d.dispatchMovie(ctx, request)
	case structures.MediaTypeTV:
		return d.IntegrateSeriesBatch(ctx, []repository.Request{request})
	default:
		return nil, apiErrors.ErrInvalidMediaType().SetDetail("Unsupported media type: %s", request.MediaType)
	}
}

func (d *Service) dispatchMovie(ctx context.Context, request repository.Request) (*Result, error) {
	instance, err := d.loadInstance(ctx, request)
	if err != nil {
		return nil, err
	}

	settings, err := instances.EffectiveSettings(instance)
	if err != nil {
		return nil, err
	}
	if !settings.Integrate() {
		slog.Info("Integration suppressed for instance", "instance", instance.Name, "request_id", request.ID)
		return nil, nil
	}
	if !request.TmdbID.Valid {
		return nil, apiErrors.ErrMissingTMDBID()
	}

	callCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	response, err := d.breaker(instance.ID, instance.Name).Execute(func() (any, error) {
		return d.radarr.AddMovie(callCtx, instance, radarr.AddMovieInput{
			TmdbID:              request.TmdbID.Int64,
			Title:               request.Title.String,
			QualityProfileID:    settings.QualityProfileID,
			RootFolderPath:      settings.RootFolderPath,
			MinimumAvailability: settings.MinimumAvailability,
			Tags:                settings.Tags,
			SearchForMovie:      settings.AutoSearch(),
		})
	})
	if err != nil {
		return nil, mapDispatchErr(err)
	}

	added := response.(*radarr.AddMovieResponse)
	if err := d.repo.SetRequestRadarrID(ctx, repository.SetRequestRadarrIDParams{
		RadarrID: sql.NullInt64{Int64: int64(added.ID), Valid: true},
		ID:       request.ID,
	}); err != nil {
		return nil, fmt.Errorf("failed to record radarr id: %w", err)
	}
	if _, err := d.repo.TransitionRequestToDownloading(ctx, request.ID); err != nil {
		slog.Error("Failed to transition request to downloading", "request_id", request.ID, "error", err)
	}

	return &Result{Service: structures.ServiceTypeRadarr, ServiceID: int64(added.ID)}, nil
}

// selection is the union of seasons and episodes across a dispatch batch.
type selection struct {
	seasons  []int
	episodes map[int][]int
}

func batchSelection(requests []repository.Request) selection {
	seasonSet := make(map[int]bool)
	episodes := make(map[int][]int)

	for _, request := range requests {
		switch {
		case request.IsEpisodeRequest && request.SeasonNumber.Valid && request.EpisodeNumber.Valid:
			season := int(request.SeasonNumber.Int64)
			episodes[season] = append(episodes[season], int(request.EpisodeNumber.Int64))
		case request.IsSeasonRequest && request.SeasonNumber.Valid:
			seasonSet[int(request.SeasonNumber.Int64)] = true
		case request.Seasons.Valid && request.Seasons.String != "":
			// Legacy whole-request rows carry a seasons JSON list.
			var list []int
			if err := json.Unmarshal([]byte(request.Seasons.String), &list); err == nil {
				for _, season := range list {
					seasonSet[season] = true
				}
			}
		}
	}

	var seasons []int
	for season := range seasonSet {
		seasons = append(seasons, season)
	}
	return selection{seasons: seasons, episodes: episodes}
}

// monitorType derives the Sonarr monitor mode from a selection: episodes
// present means specificEpisodes (also when mixed with seasons), seasons
// alone means specificSeasons, and an empty selection monitors everything.
func monitorType(sel selection) string {
	if len(sel.episodes) > 0 {
		return sonarr.MonitorSpecificEpisodes
	}
	if len(sel.seasons) > 0 {
		return sonarr.MonitorSpecificSeasons
	}
	return sonarr.MonitorAll
}

// IntegrateSeriesBatch dispatches a set of rows for the same series as one
// coordinated downstream call carrying the union of their selections.
func (d *Service) IntegrateSeriesBatch(ctx context.Context, requests []repository.Request) (*Result, error) {
	if len(requests) == 0 {
		return nil, nil
	}
	lead := requests[0]

	// Rows already dispatched keep the batch idempotent.
	for _, request := range requests {
		if request.SonarrID.Valid {
			return &Result{Service: structures.ServiceTypeSonarr, ServiceID: request.SonarrID.Int64}, nil
		}
	}

	instance, err := d.loadInstance(ctx, lead)
	if err != nil {
		return nil, err
	}

	settings, err := instances.EffectiveSettings(instance)
	if err != nil {
		return nil, err
	}
	if !settings.Integrate() {
		slog.Info("Integration suppressed for instance", "instance", instance.Name, "request_id", lead.ID)
		return nil, nil
	}
	if !lead.TmdbID.Valid {
		return nil, apiErrors.ErrMissingTMDBID()
	}

	sel := batchSelection(requests)

	// Seasons covered by episode selections join the season list so Sonarr
	// monitors the containing season records.
	seasonSet := make(map[int]bool)
	for _, season := range sel.seasons {
		seasonSet[season] = true
	}
	for season := range sel.episodes {
		seasonSet[season] = true
	}
	var seasons []int
	for season := range seasonSet {
		seasons = append(seasons, season)
	}

	callCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	response, err := d.breaker(instance.ID, instance.Name).Execute(func() (any, error) {
		return d.sonarr.AddSeries(callCtx, instance, sonarr.AddSeriesInput{
			TmdbID:            lead.TmdbID.Int64,
			Title:             lead.Title.String,
			QualityProfileID:  settings.QualityProfileID,
			LanguageProfileID: settings.LanguageProfileID,
			RootFolderPath:    settings.RootFolderPath,
			Tags:              settings.Tags,
			MonitorType:       monitorType(sel),
			Seasons:           seasons,
			Episodes:          sel.episodes,
			SearchForMissing:  settings.AutoSearch(),
		})
	})
	if err != nil {
		return nil, mapDispatchErr(err)
	}

	added := response.(*sonarr.AddSeriesResponse)
	for _, request := range requests {
		if err := d.repo.SetRequestSonarrID(ctx, repository.SetRequestSonarrIDParams{
			SonarrID: sql.NullInt64{Int64: int64(added.ID), Valid: true},
			ID:       request.ID,
		}); err != nil {
			return nil, fmt.Errorf("failed to record sonarr id: %w", err)
		}
		if _, err := d.repo.TransitionRequestToDownloading(ctx, request.ID); err != nil {
			slog.Error("Failed to transition request to downloading", "request_id", request.ID, "error", err)
		}
	}

	return &Result{Service: structures.ServiceTypeSonarr, ServiceID: int64(added.ID)}, nil
}
