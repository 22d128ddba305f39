// Package catalogcache pre-computes catalog listing pages joined with local
// library and request state, so the presentation layer reads one row instead
// of fanning out to TMDB and the mirror on every page view.
package catalogcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/integrations/tmdb"
	"github.com/veyronhq/reqforge/pkg/structures"
)

// TTL bounds how long a cached page is served before a refresh.
const TTL = 24 * time.Hour

// Item statuses rendered on cached pages, in priority order.
const (
	StatusInPlex               = "in_plex"
	StatusAvailable            = "available"
	StatusRequestedPending     = "requested_pending"
	StatusRequestedApproved    = "requested_approved"
	StatusRequestedDownloading = "requested_downloading"
	StatusRequestedDownloaded  = "requested_downloaded"
)

// Categories refreshed per media type.
var movieCategories = []string{"popular", "upcoming", "top_rated"}
var tvCategories = []string{"popular", "on_the_air"}

// AnnotatedItem is a catalog entry decorated with local state.
type AnnotatedItem struct {
	structures.TMDBMediaItem
	InPlex bool   `json:"in_plex"`
	Status string `json:"status,omitempty"`
}

// Page is the cached value for one (media_type, category, page) key.
type Page struct {
	MediaType string          `json:"media_type"`
	Category  string          `json:"category"`
	Page      int64           `json:"page"`
	Items     []AnnotatedItem `json:"items"`
	TotalPage int64           `json:"total_pages"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Service struct {
	repo *repository.Queries
	tmdb tmdb.Service
}

func New(repo *repository.Queries, tmdbSvc tmdb.Service) *Service {
	return &Service{
		repo: repo,
		tmdb: tmdbSvc,
	}
}

// Get returns the cached page and whether it was a fresh hit. A stale row
// is still returned (hit=false) so callers can render while a refresh runs.
func (s *Service) Get(ctx context.Context, mediaType structures.MediaType, category string, page int64) (*Page, bool, error) {
	key := repository.GetCategoryCacheEntryParams{
		MediaType: mediaType.String(),
		Category:  category,
		Page:      page,
	}

	entry, err := s.repo.GetCategoryCacheEntry(ctx, key)
	hit := err == nil
	if errors.Is(err, sql.ErrNoRows) {
		entry, err = s.repo.GetStaleCategoryCacheEntry(ctx, key)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
	}
	if err != nil {
		return nil, false, err
	}

	var cached Page
	if err := json.Unmarshal([]byte(entry.Data), &cached); err != nil {
		return nil, false, fmt.Errorf("malformed category cache row: %w", err)
	}
	return &cached, hit, nil
}

// RefreshAll rebuilds every configured category page and drops expired
// rows. Returns the number of pages written.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	if s.tmdb == nil {
		slog.Warn("Category cache refresh skipped: TMDB not configured")
		return 0, nil
	}

	written := 0
	for _, category := range movieCategories {
		if err := s.refresh(ctx, structures.MediaTypeMovie, category, 1); err != nil {
			return written, err
		}
		written++
	}
	for _, category := range tvCategories {
		if err := s.refresh(ctx, structures.MediaTypeTV, category, 1); err != nil {
			return written, err
		}
		written++
	}

	deleted, err := s.repo.DeleteExpiredCategoryCache(ctx)
	if err != nil {
		slog.Error("Failed to prune expired category cache rows", "error", err)
	} else if deleted > 0 {
		slog.Debug("Pruned expired category cache rows", "count", deleted)
	}

	return written, nil
}

func (s *Service) fetch(mediaType structures.MediaType, category string, page int64) (structures.TMDBMediaResponse, error) {
	pageStr := strconv.FormatInt(page, 10)
	if mediaType == structures.MediaTypeMovie {
		switch category {
		case "popular":
			return s.tmdb.GetMoviePopular(pageStr)
		case "upcoming":
			return s.tmdb.GetMovieUpcoming(pageStr)
		case "top_rated":
			// No fixed endpoint carries the vote-count floor, so this
			// category goes through discover.
			return s.tmdb.DiscoverMovie(structures.DiscoverMovieParams{
				Page:         int(page),
				SortBy:       "vote_average.desc",
				VoteCountGTE: 300,
			})
		}
	} else {
		switch category {
		case "popular":
			return s.tmdb.GetTVPopular(pageStr)
		case "on_the_air":
			return s.tmdb.GetTVUpcoming(pageStr)
		}
	}
	return structures.TMDBMediaResponse{}, fmt.Errorf("unknown category %s/%s", mediaType, category)
}

func (s *Service) refresh(ctx context.Context, mediaType structures.MediaType, category string, page int64) error {
	response, err := s.fetch(mediaType, category, page)
	if err != nil {
		return fmt.Errorf("failed to fetch %s/%s page %d: %w", mediaType, category, page, err)
	}

	annotated, err := s.Annotate(ctx, mediaType, response.Results)
	if err != nil {
		return err
	}

	payload := Page{
		MediaType: mediaType.String(),
		Category:  category,
		Page:      page,
		Items:     annotated,
		TotalPage: response.TotalPages,
		UpdatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal category page: %w", err)
	}

	return s.repo.UpsertCategoryCacheEntry(ctx, repository.UpsertCategoryCacheEntryParams{
		MediaType: mediaType.String(),
		Category:  category,
		Page:      page,
		Data:      string(data),
		ExpiresAt: time.Now().UTC().Add(TTL),
	})
}

// Annotate decorates catalog items with in-library and request state using
// two batched queries, one per concern, instead of one per item.
func (s *Service) Annotate(ctx context.Context, mediaType structures.MediaType, items []structures.TMDBMediaItem) ([]AnnotatedItem, error) {
	libraryIDs, err := s.repo.GetLibraryTmdbIDsByType(ctx, mediaType.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load library mirror ids: %w", err)
	}
	inLibrary := make(map[int64]bool, len(libraryIDs))
	for _, id := range libraryIDs {
		if !id.Valid {
			continue
		}
		if parsed, err := strconv.ParseInt(id.String, 10, 64); err == nil {
			inLibrary[parsed] = true
		}
	}

	tmdbIDs := make([]int64, 0, len(items))
	for _, item := range items {
		tmdbIDs = append(tmdbIDs, item.ID)
	}
	statuses, err := s.repo.BatchRequestStatusLookup(ctx, repository.BatchRequestStatusLookupParams{
		MediaType: mediaType.String(),
		TmdbIds:   tmdbIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to batch-resolve request statuses: %w", err)
	}
	requested := make(map[int64]string, len(statuses))
	for _, row := range statuses {
		if !row.TmdbID.Valid {
			continue
		}
		// Rows are newest-first; keep the first status seen per id.
		if _, seen := requested[row.TmdbID.Int64]; !seen {
			requested[row.TmdbID.Int64] = row.Status
		}
	}

	annotated := make([]AnnotatedItem, 0, len(items))
	for _, item := range items {
		entry := AnnotatedItem{TMDBMediaItem: item}
		switch {
		case inLibrary[item.ID]:
			entry.InPlex = true
			entry.Status = StatusInPlex
		default:
			switch structures.RequestStatus(requested[item.ID]) {
			case structures.StatusPending:
				entry.Status = StatusRequestedPending
			case structures.StatusApproved:
				entry.Status = StatusRequestedApproved
			case structures.StatusDownloading:
				entry.Status = StatusRequestedDownloading
			case structures.StatusDownloaded:
				entry.Status = StatusRequestedDownloaded
			case structures.StatusAvailable:
				entry.Status = StatusAvailable
			}
		}
		annotated = append(annotated, entry)
	}
	return annotated, nil
}
