package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/veyronhq/reqforge/internal/global"
	"github.com/veyronhq/reqforge/internal/integrations"
	"github.com/veyronhq/reqforge/internal/services/catalogcache"
	"github.com/veyronhq/reqforge/pkg/structures"
)

// CategoryCacheJob refreshes the pre-computed discovery category pages.
type CategoryCacheJob struct {
	*BaseJob
	cache *catalogcache.Service

	mu         sync.Mutex
	lastResult string
}

func NewCategoryCacheJob(gctx global.Context, integ *integrations.Integration, config JobConfig) (Job, error) {
	return &CategoryCacheJob{
		BaseJob: NewBaseJob(gctx, structures.JobCategoryCache, config),
		cache:   catalogcache.New(gctx.Crate().Sqlite.Query(), integ.TMDB),
	}, nil
}

func (j *CategoryCacheJob) Start(ctx context.Context) error {
	slog.Info("Starting category cache job", "interval", j.Config().Interval)
	return j.BaseJob.Start(ctx)
}

func (j *CategoryCacheJob) Trigger(ctx context.Context) error {
	written, err := j.cache.RefreshAll(ctx)
	if err != nil {
		return err
	}

	// The TMDB response cache shares this maintenance slot: expired rows
	// and stale API-usage counters go out with the same sweep.
	queries := j.Context().Crate().Sqlite.Query()
	if err := queries.DeleteExpiredCache(ctx); err != nil {
		slog.Error("Failed to prune expired TMDB cache rows", "error", err)
	}
	if err := queries.CleanupOldAPIUsage(ctx); err != nil {
		slog.Error("Failed to prune old TMDB API usage rows", "error", err)
	}

	slog.Debug("Category cache refresh complete", "pages", written)

	j.mu.Lock()
	j.lastResult = fmt.Sprintf(`{"pages_refreshed":%d}`, written)
	j.mu.Unlock()
	return nil
}

// LastResult exposes the most recent pass summary for the execution row.
func (j *CategoryCacheJob) LastResult() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastResult
}
