// Package emby is the library-server client. The core uses it for one
// thing: learning what the library currently possesses, keyed by the
// tmdb provider ids that join items to requests.
package emby

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/veyronhq/reqforge/internal/global"
	"github.com/veyronhq/reqforge/pkg/structures"
	"github.com/veyronhq/reqforge/utils"
)

// itemFields is the metadata set every listing call asks for; the mirror
// needs ids, typing, and placement, nothing more.
const itemFields = "ProviderIds,ProductionYear,DateCreated,ParentIndexNumber,IndexNumber,SeriesId"

type Service interface {
	getConfig() (string, string)
	GetAllLibraryItems() ([]structures.EmbyMediaItem, error)
	GetRecentlyAddedItems(maxAge string) ([]structures.EmbyMediaItem, error)
	GetEpisodesByTMDB(ctx context.Context, tmdbID int) ([]structures.EmbyMediaItem, error)
	GetEpisodesByTMDBAndSeason(ctx context.Context, tmdbID int, seasonNumber int) ([]structures.EmbyMediaItem, error)
	GetMovieByTMDBID(ctx context.Context, tmdbID int) (*structures.EmbyMediaItem, error)
	GetSeriesByTMDBID(ctx context.Context, tmdbID int) (*structures.EmbyMediaItem, error)
}

type embyService struct {
	gctx   global.Context
	client *http.Client
}

func New(gctx global.Context) Service {
	return &embyService{
		gctx:   gctx,
		client: utils.NewHTTPClient(),
	}
}

func (es *embyService) getConfig() (baseURL string, apiKey string) {
	cfg := es.gctx.Crate().Config.Get()
	baseURL = cfg.MediaServer.URL.String()
	apiKey = cfg.MediaServer.APIKey.String()

	return baseURL, apiKey
}

// baseItemDto mirrors the slice of the server's item schema the core reads.
type baseItemDto struct {
	Name          string            `json:"Name"`
	ID            string            `json:"Id"`
	SeriesId      string            `json:"SeriesId,omitempty"`
	SeasonNumber  int               `json:"ParentIndexNumber,omitempty"`
	EpisodeNumber int               `json:"IndexNumber,omitempty"`
	Type          string            `json:"Type"`
	ProviderIds   map[string]string `json:"ProviderIds,omitempty"`
	ProductionYear int              `json:"ProductionYear,omitempty"`
	DateCreated   string            `json:"DateCreated,omitempty"`
}

type itemsResponse struct {
	Items            []baseItemDto `json:"Items"`
	TotalRecordCount int           `json:"TotalRecordCount"`
}

func (es *embyService) fetchItems(ctx context.Context, url string) ([]baseItemDto, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := es.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from media server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media server returned status %d", resp.StatusCode)
	}

	var response itemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode media server response: %w", err)
	}
	return response.Items, nil
}

// convertItems maps server items onto the mirror's narrow shape. Server
// types collapse onto the request domain's: Series -> tv.
func convertItems(items []baseItemDto) []structures.EmbyMediaItem {
	result := make([]structures.EmbyMediaItem, 0, len(items))
	for _, item := range items {
		mediaType := "movie"
		switch item.Type {
		case "Series":
			mediaType = "tv"
		case "Episode":
			mediaType = "episode"
		}

		result = append(result, structures.EmbyMediaItem{
			ID:            item.ID,
			Name:          item.Name,
			Type:          mediaType,
			SeriesID:      item.SeriesId,
			SeasonNumber:  item.SeasonNumber,
			EpisodeNumber: item.EpisodeNumber,
			Year:          item.ProductionYear,
			TmdbID:        item.ProviderIds["Tmdb"],
			ImdbID:        item.ProviderIds["Imdb"],
			TvdbID:        item.ProviderIds["Tvdb"],
			DateCreated:   item.DateCreated,
		})
	}
	return result
}

// GetAllLibraryItems lists every movie and series the library holds; the
// full-sync job rebuilds the mirror from this.
func (es *embyService) GetAllLibraryItems() ([]structures.EmbyMediaItem, error) {
	baseURL, apiKey := es.getConfig()

	url := fmt.Sprintf("%s/Items?IncludeItemTypes=Movie,Series&Fields=%s&Recursive=true&api_key=%s",
		baseURL, itemFields, apiKey)

	items, err := es.fetchItems(context.Background(), url)
	if err != nil {
		return nil, err
	}
	return convertItems(items), nil
}

// GetRecentlyAddedItems lists items added since maxAge; the incremental
// sync job tops the mirror up from this.
func (es *embyService) GetRecentlyAddedItems(maxAge string) ([]structures.EmbyMediaItem, error) {
	baseURL, apiKey := es.getConfig()

	url := fmt.Sprintf("%s/Items?IncludeItemTypes=Movie,Series&Fields=%s&Recursive=true&MinDateCreated=%s&SortBy=DateCreated&SortOrder=Descending&api_key=%s",
		baseURL, itemFields, maxAge, apiKey)

	items, err := es.fetchItems(context.Background(), url)
	if err != nil {
		return nil, err
	}
	return convertItems(items), nil
}
