package emby

import (
	"context"
	"fmt"

	"github.com/veyronhq/reqforge/pkg/structures"
)

// lookupByTMDB finds one item of the given server type by its tmdb id.
func (es *embyService) lookupByTMDB(ctx context.Context, itemType string, tmdbID int) (*structures.EmbyMediaItem, error) {
	baseURL, apiKey := es.getConfig()

	url := fmt.Sprintf("%s/Items?IncludeItemTypes=%s&Fields=%s&Recursive=true&AnyProviderIdEquals=tmdb.%d&api_key=%s",
		baseURL, itemType, itemFields, tmdbID, apiKey)

	items, err := es.fetchItems(ctx, url)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	converted := convertItems(items[:1])
	return &converted[0], nil
}

// GetMovieByTMDBID fetches a specific movie by TMDB ID.
func (es *embyService) GetMovieByTMDBID(ctx context.Context, tmdbID int) (*structures.EmbyMediaItem, error) {
	return es.lookupByTMDB(ctx, "Movie", tmdbID)
}

// GetSeriesByTMDBID fetches a specific TV series by TMDB ID.
func (es *embyService) GetSeriesByTMDBID(ctx context.Context, tmdbID int) (*structures.EmbyMediaItem, error) {
	return es.lookupByTMDB(ctx, "Series", tmdbID)
}
