package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/global"
	"github.com/veyronhq/reqforge/pkg/structures"
)

// requestRetention is how long terminal requests are kept before deletion.
const requestRetention = 30 * 24 * time.Hour

// executionHistoryRetention bounds the job_executions table.
const executionHistoryRetention = 90 * 24 * time.Hour

// RequestCleanupJob prunes terminal requests past retention and trims old
// job execution history.
type RequestCleanupJob struct {
	*BaseJob
	repo *repository.Queries

	mu         sync.Mutex
	lastResult string
}

func NewRequestCleanup(gctx global.Context, config JobConfig) (Job, error) {
	return &RequestCleanupJob{
		BaseJob: NewBaseJob(gctx, structures.JobRequestCleanup, config),
		repo:    gctx.Crate().Sqlite.Query(),
	}, nil
}

func (j *RequestCleanupJob) Start(ctx context.Context) error {
	slog.Info("Starting request cleanup job", "interval", j.Config().Interval)
	return j.BaseJob.Start(ctx)
}

func (j *RequestCleanupJob) Trigger(ctx context.Context) error {
	requestCutoff := time.Now().UTC().Add(-requestRetention)
	deletedRequests, err := j.repo.DeleteTerminalRequestsBefore(ctx, requestCutoff)
	if err != nil {
		return err
	}

	historyCutoff := time.Now().UTC().Add(-executionHistoryRetention)
	deletedExecutions, err := j.repo.DeleteJobExecutionsBefore(ctx, historyCutoff)
	if err != nil {
		return err
	}

	if deletedRequests > 0 || deletedExecutions > 0 {
		slog.Info("Request cleanup complete",
			"requests_deleted", deletedRequests,
			"executions_deleted", deletedExecutions)
	}

	data, _ := json.Marshal(map[string]int64{
		"requests_deleted":   deletedRequests,
		"executions_deleted": deletedExecutions,
	})
	j.mu.Lock()
	j.lastResult = string(data)
	j.mu.Unlock()

	return nil
}

// LastResult exposes the most recent pass summary for the execution row.
func (j *RequestCleanupJob) LastResult() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastResult
}
