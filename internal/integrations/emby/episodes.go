package emby

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/veyronhq/reqforge/pkg/structures"
)

// GetEpisodesByTMDB fetches all episodes for a TV show by TMDB ID. The
// availability tracker uses the result to count what is on disk per season.
func (es *embyService) GetEpisodesByTMDB(ctx context.Context, tmdbID int) ([]structures.EmbyMediaItem, error) {
	series, err := es.GetSeriesByTMDBID(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	if series == nil {
		slog.Debug("No series in library for tmdb id", "tmdb_id", tmdbID)
		return []structures.EmbyMediaItem{}, nil
	}

	baseURL, apiKey := es.getConfig()
	url := fmt.Sprintf("%s/Shows/%s/Episodes?Fields=%s&api_key=%s", baseURL, series.ID, itemFields, apiKey)

	items, err := es.fetchItems(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch episodes: %w", err)
	}

	return convertItems(items), nil
}

// GetEpisodesByTMDBAndSeason fetches episodes for a specific season of a TV
// show by TMDB ID.
func (es *embyService) GetEpisodesByTMDBAndSeason(ctx context.Context, tmdbID int, seasonNumber int) ([]structures.EmbyMediaItem, error) {
	allEpisodes, err := es.GetEpisodesByTMDB(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	var seasonEpisodes []structures.EmbyMediaItem
	for _, episode := range allEpisodes {
		if episode.SeasonNumber == seasonNumber {
			seasonEpisodes = append(seasonEpisodes, episode)
		}
	}

	return seasonEpisodes, nil
}
