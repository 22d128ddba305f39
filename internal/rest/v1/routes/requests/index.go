package requests

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/global"
	"github.com/veyronhq/reqforge/internal/integrations"
	"github.com/veyronhq/reqforge/internal/services/dispatcher"
	"github.com/veyronhq/reqforge/internal/services/instances"
	permsvc "github.com/veyronhq/reqforge/internal/services/permissions"
	reqsvc "github.com/veyronhq/reqforge/internal/services/requests"
	"github.com/veyronhq/reqforge/pkg/structures"
)

type RouteGroup struct {
	gctx     global.Context
	service  *reqsvc.Service
	perms    *permsvc.Engine
	validate *validator.Validate
}

func NewRouteGroup(gctx global.Context, integ *integrations.Integration) *RouteGroup {
	repo := gctx.Crate().Sqlite.Query()
	perms := permsvc.NewEngine(repo, gctx.Crate().Config)
	selector := instances.New(repo, perms)
	disp := dispatcher.New(repo, integ.Radarr, integ.Sonarr)
	service := reqsvc.New(repo, perms, selector, disp, gctx.Crate().NotificationService)

	return &RouteGroup{
		gctx:     gctx,
		service:  service,
		perms:    perms,
		validate: validator.New(),
	}
}

// toAPIRequest converts a repository row to its API shape.
func toAPIRequest(request repository.Request) structures.Request {
	api := structures.Request{
		ID:               request.ID,
		UserID:           request.UserID,
		MediaType:        request.MediaType,
		Status:           request.Status,
		QualityTier:      request.QualityTier,
		IsSeasonRequest:  request.IsSeasonRequest,
		IsEpisodeRequest: request.IsEpisodeRequest,
		CreatedAt:        request.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:        request.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}

	if request.TmdbID.Valid {
		tmdbID := request.TmdbID.Int64
		api.TmdbID = &tmdbID
	}
	if request.Title.Valid {
		api.Title = request.Title.String
	}
	if request.Notes.Valid {
		api.Notes = request.Notes.String
	}
	if request.PosterUrl.Valid {
		api.PosterURL = request.PosterUrl.String
	}
	if request.OnBehalfOf.Valid {
		api.OnBehalfOf = request.OnBehalfOf.String
	}
	if request.ApproverID.Valid {
		api.ApproverID = request.ApproverID.String
	}
	if request.ApprovedAt.Valid {
		api.ApprovedAt = request.ApprovedAt.Time.Format("2006-01-02T15:04:05Z")
	}
	if request.ServiceInstanceID.Valid {
		api.ServiceInstanceID = request.ServiceInstanceID.String
	}
	if request.RadarrID.Valid {
		radarrID := request.RadarrID.Int64
		api.RadarrID = &radarrID
	}
	if request.SonarrID.Valid {
		sonarrID := request.SonarrID.Int64
		api.SonarrID = &sonarrID
	}
	if request.SeasonNumber.Valid {
		seasonNumber := request.SeasonNumber.Int64
		api.SeasonNumber = &seasonNumber
	}
	if request.EpisodeNumber.Valid {
		episodeNumber := request.EpisodeNumber.Int64
		api.EpisodeNumber = &episodeNumber
	}
	if request.FulfilledAt.Valid {
		api.FulfilledAt = request.FulfilledAt.Time.Format("2006-01-02T15:04:05Z")
	}
	if request.Seasons.Valid {
		var seasons []int
		if err := json.Unmarshal([]byte(request.Seasons.String), &seasons); err == nil {
			api.Seasons = seasons
		}
	}
	if request.SeasonStatuses.Valid {
		var seasonStatuses map[string]structures.SeasonInfo
		if err := json.Unmarshal([]byte(request.SeasonStatuses.String), &seasonStatuses); err == nil {
			api.SeasonStatuses = seasonStatuses
		}
	}

	return api
}
