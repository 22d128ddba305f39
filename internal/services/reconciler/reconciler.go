// Package reconciler is the pull-based status loop: it polls downstream
// queues and library listings and advances requests to DOWNLOADING or
// AVAILABLE without relying on webhooks. It never sets DOWNLOADED.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/integrations/radarr"
	"github.com/veyronhq/reqforge/internal/integrations/sonarr"
	"github.com/veyronhq/reqforge/pkg/structures"
)

type Service struct {
	repo   *repository.Queries
	radarr radarr.Service
	sonarr sonarr.Service
}

func New(repo *repository.Queries, radarrSvc radarr.Service, sonarrSvc sonarr.Service) *Service {
	return &Service{
		repo:   repo,
		radarr: radarrSvc,
		sonarr: sonarrSvc,
	}
}

// Summary counts the transitions one reconciliation pass performed.
type Summary struct {
	Checked     int `json:"checked"`
	Downloading int `json:"downloading"`
	Available   int `json:"available"`
}

// instanceState is one instance's ground truth: which tmdb ids are mid
// download and which already have files on disk.
type instanceState struct {
	inProgress map[int64]bool
	hasFile    map[int64]bool
}

// Run performs one reconciliation pass. Instances are polled concurrently;
// a dead instance is skipped, not fatal, so one outage cannot freeze every
// other instance's transitions.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	active, err := s.repo.GetActiveRequests(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to load active requests: %w", err)
	}
	summary.Checked = len(active)
	if len(active) == 0 {
		return summary, nil
	}

	var (
		mu     sync.Mutex
		movies = make(map[string]instanceState)
		series = make(map[string]instanceState)
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(4)

	radarrInstances, err := s.repo.GetArrServiceByType(ctx, structures.ServiceTypeRadarr.String())
	if err != nil {
		return summary, err
	}
	for _, instance := range radarrInstances {
		instance := instance
		group.Go(func() error {
			state, err := s.pollRadarr(groupCtx, instance)
			if err != nil {
				slog.Warn("Skipping unreachable Radarr instance", "instance", instance.Name, "error", err)
				return nil
			}
			mu.Lock()
			movies[instance.ID] = state
			mu.Unlock()
			return nil
		})
	}

	sonarrInstances, err := s.repo.GetArrServiceByType(ctx, structures.ServiceTypeSonarr.String())
	if err != nil {
		return summary, err
	}
	for _, instance := range sonarrInstances {
		instance := instance
		group.Go(func() error {
			state, err := s.pollSonarr(groupCtx, instance)
			if err != nil {
				slog.Warn("Skipping unreachable Sonarr instance", "instance", instance.Name, "error", err)
				return nil
			}
			mu.Lock()
			series[instance.ID] = state
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return summary, err
	}

	for _, request := range active {
		if !request.TmdbID.Valid {
			continue
		}

		var states map[string]instanceState
		if structures.MediaType(request.MediaType) == structures.MediaTypeMovie {
			states = movies
		} else {
			states = series
		}

		// Prefer the request's own instance; fall back to any polled
		// instance of the right type so orphaned rows still converge.
		candidates := states
		if request.ServiceInstanceID.Valid {
			if state, ok := states[request.ServiceInstanceID.String]; ok {
				candidates = map[string]instanceState{request.ServiceInstanceID.String: state}
			}
		}

		for _, state := range candidates {
			if state.hasFile[request.TmdbID.Int64] {
				// Transitions are guarded updates: a concurrent pass
				// flipping the same row first just makes this a no-op.
				n, err := s.repo.TransitionRequestToAvailable(ctx, request.ID)
				if err != nil {
					slog.Error("Failed to mark request available", "request_id", request.ID, "error", err)
					continue
				}
				if n > 0 {
					summary.Available++
					slog.Info("Request available", "request_id", request.ID, "tmdb_id", request.TmdbID.Int64)
				}
				break
			}
			if state.inProgress[request.TmdbID.Int64] {
				n, err := s.repo.TransitionRequestToDownloading(ctx, request.ID)
				if err != nil {
					slog.Error("Failed to mark request downloading", "request_id", request.ID, "error", err)
					continue
				}
				if n > 0 {
					summary.Downloading++
				}
				break
			}
		}
	}

	return summary, nil
}

func (s *Service) pollRadarr(ctx context.Context, instance repository.ArrService) (instanceState, error) {
	state := instanceState{
		inProgress: make(map[int64]bool),
		hasFile:    make(map[int64]bool),
	}

	library, err := s.radarr.GetMovies(ctx, instance)
	if err != nil {
		return state, err
	}
	movieTmdb := make(map[int]int64, len(library))
	for _, movie := range library {
		movieTmdb[movie.ID] = movie.TmdbID
		if movie.HasFile {
			state.hasFile[movie.TmdbID] = true
		}
	}

	queue, err := s.radarr.GetQueue(ctx, instance)
	if err != nil {
		return state, err
	}
	for _, record := range queue {
		if tmdbID, ok := movieTmdb[record.MovieID]; ok {
			state.inProgress[tmdbID] = true
		}
	}
	return state, nil
}

func (s *Service) pollSonarr(ctx context.Context, instance repository.ArrService) (instanceState, error) {
	state := instanceState{
		inProgress: make(map[int64]bool),
		hasFile:    make(map[int64]bool),
	}

	library, err := s.sonarr.GetSeries(ctx, instance)
	if err != nil {
		return state, err
	}
	seriesTmdb := make(map[int]int64, len(library))
	for _, show := range library {
		seriesTmdb[show.ID] = show.TmdbID
		// The series-level "has file" signal is any episode file on the
		// record; per-season granularity is best effort and never blocks
		// the transition.
		if show.Statistics.EpisodeFileCount > 0 {
			state.hasFile[show.TmdbID] = true
		}
	}

	queue, err := s.sonarr.GetQueue(ctx, instance)
	if err != nil {
		return state, err
	}
	for _, record := range queue {
		if tmdbID, ok := seriesTmdb[record.SeriesID]; ok {
			state.inProgress[tmdbID] = true
		}
	}
	return state, nil
}
