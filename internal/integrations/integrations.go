package integrations

import (
	"context"
	"log/slog"
	"time"

	"github.com/veyronhq/reqforge/internal/global"
	"github.com/veyronhq/reqforge/internal/integrations/cached"
	"github.com/veyronhq/reqforge/internal/integrations/emby"
	"github.com/veyronhq/reqforge/internal/integrations/radarr"
	"github.com/veyronhq/reqforge/internal/integrations/sonarr"
	"github.com/veyronhq/reqforge/internal/integrations/tmdb"
	"github.com/veyronhq/reqforge/internal/services/cache"
	"github.com/veyronhq/reqforge/pkg/structures"
)

type Integration struct {
	Radarr radarr.Service
	Sonarr sonarr.Service
	Emby   emby.Service
	TMDB   tmdb.Service
}

func New(gctx global.Context) *Integration {
	integration := &Integration{
		Radarr: radarr.New(gctx.Crate().Sqlite.Query()),
		Sonarr: sonarr.New(gctx.Crate().Sqlite.Query()),
		Emby:   emby.New(gctx),
	}

	// The TMDB key lives in the settings row, not the environment, so a
	// fresh install without a key simply runs with discovery disabled.
	ctx, cancel := context.WithTimeout(gctx, 5*time.Second)
	defer cancel()

	apiKey, err := gctx.Crate().Sqlite.Query().GetSetting(ctx, structures.SettingTMDBAPIKey.String())
	if err != nil || apiKey == "" {
		slog.Warn("TMDB API key not configured; discovery endpoints disabled")
		return integration
	}

	tmdbService, err := tmdb.New(tmdb.Options{APIKey: apiKey})
	if err != nil {
		slog.Warn("Failed to initialize TMDB client", "error", err)
		return integration
	}

	cacheService := cache.NewTMDBCacheService(gctx.Crate().Sqlite.Query())
	integration.TMDB = cached.NewTMDBService(tmdbService, cacheService)

	return integration
}
