package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/global"
	"github.com/veyronhq/reqforge/internal/integrations/emby"
	"github.com/veyronhq/reqforge/internal/services/season_availability"
	"github.com/veyronhq/reqforge/pkg/structures"
)

// LibrarySyncFullJob rebuilds the library mirror from scratch: clear, then
// re-list everything the library server reports. The mirror is the source
// of truth AVAILABLE transitions are confirmed against.
type LibrarySyncFullJob struct {
	*BaseJob
	repo                      *repository.Queries
	embyService               emby.Service
	seasonAvailabilityService *season_availability.SeasonAvailabilityService

	mu         sync.Mutex
	lastResult string
}

func NewLibrarySyncFull(gctx global.Context, config JobConfig) (*LibrarySyncFullJob, error) {
	embyService := emby.New(gctx)
	repo := gctx.Crate().Sqlite.Query()

	return &LibrarySyncFullJob{
		BaseJob:                   NewBaseJob(gctx, structures.JobLibrarySyncFull, config),
		repo:                      repo,
		embyService:               embyService,
		seasonAvailabilityService: season_availability.NewSeasonAvailabilityService(repo, embyService, nil),
	}, nil
}

func (j *LibrarySyncFullJob) Start(ctx context.Context) error {
	slog.Info("Starting full library sync job", "interval", j.Config().Interval)
	return j.BaseJob.Start(ctx)
}

func (j *LibrarySyncFullJob) Trigger(ctx context.Context) error {
	items, err := j.embyService.GetAllLibraryItems()
	if err != nil {
		return fmt.Errorf("failed to list library items: %w", err)
	}

	// Full sync replaces the mirror wholesale so removals propagate.
	if err := j.repo.ClearLibraryItems(ctx); err != nil {
		return fmt.Errorf("failed to clear library mirror: %w", err)
	}

	upserted, skipped, tvShows := upsertLibraryItems(ctx, j.repo, items)

	// Refresh per-season availability for every synced show.
	for _, show := range tvShows {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		j.syncSeasons(ctx, show)
	}

	slog.Info("Full library sync complete", "upserted", upserted, "skipped", skipped, "shows", len(tvShows))

	data, _ := json.Marshal(map[string]int{
		"upserted": upserted,
		"skipped":  skipped,
		"shows":    len(tvShows),
	})
	j.mu.Lock()
	j.lastResult = string(data)
	j.mu.Unlock()
	return nil
}

func (j *LibrarySyncFullJob) syncSeasons(ctx context.Context, show structures.EmbyMediaItem) {
	tmdbID, err := strconv.Atoi(show.TmdbID)
	if err != nil {
		return
	}
	if err := j.seasonAvailabilityService.SyncShowAvailability(ctx, tmdbID); err != nil {
		slog.Warn("Failed to sync season availability", "tmdb_id", tmdbID, "name", show.Name, "error", err)
	}
}

// LastResult exposes the most recent pass summary for the execution row.
func (j *LibrarySyncFullJob) LastResult() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastResult
}

// upsertLibraryItems writes items carrying a tmdb id into the mirror and
// collects the distinct TV shows seen, for season-availability refresh.
func upsertLibraryItems(ctx context.Context, repo *repository.Queries, items []structures.EmbyMediaItem) (upserted, skipped int, tvShows []structures.EmbyMediaItem) {
	seenShows := make(map[string]bool)

	for _, item := range items {
		// Items without the tmdb join key can never match a request.
		if item.TmdbID == "" {
			skipped++
			continue
		}

		arg := repository.UpsertLibraryItemParams{
			ID:     item.ID,
			Name:   item.Name,
			Type:   item.Type,
			TmdbID: sql.NullString{String: item.TmdbID, Valid: true},
		}
		if item.SeriesID != "" {
			arg.SeriesID = sql.NullString{String: item.SeriesID, Valid: true}
		}
		if item.Type == "episode" {
			arg.SeasonNumber = sql.NullInt64{Int64: int64(item.SeasonNumber), Valid: true}
			arg.EpisodeNumber = sql.NullInt64{Int64: int64(item.EpisodeNumber), Valid: true}
		}
		if item.Year > 0 {
			arg.Year = sql.NullInt64{Int64: int64(item.Year), Valid: true}
		}

		if err := repo.UpsertLibraryItem(ctx, arg); err != nil {
			slog.Error("Failed to upsert library item", "item_id", item.ID, "name", item.Name, "error", err)
			continue
		}
		upserted++

		if item.Type == "tv" && !seenShows[item.TmdbID] {
			seenShows[item.TmdbID] = true
			tvShows = append(tvShows, item)
		}
	}
	return upserted, skipped, tvShows
}
