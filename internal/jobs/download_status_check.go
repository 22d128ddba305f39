package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/veyronhq/reqforge/internal/global"
	"github.com/veyronhq/reqforge/internal/integrations"
	"github.com/veyronhq/reqforge/internal/services/reconciler"
	"github.com/veyronhq/reqforge/pkg/structures"
)

// DownloadStatusCheckJob runs the status reconciler: poll downstream queues
// and libraries and advance approved requests toward availability.
type DownloadStatusCheckJob struct {
	*BaseJob
	reconciler *reconciler.Service

	mu         sync.Mutex
	lastResult string
}

func NewDownloadStatusCheck(gctx global.Context, integ *integrations.Integration, config JobConfig) (Job, error) {
	svc := reconciler.New(gctx.Crate().Sqlite.Query(), integ.Radarr, integ.Sonarr)
	return &DownloadStatusCheckJob{
		BaseJob:    NewBaseJob(gctx, structures.JobDownloadStatusCheck, config),
		reconciler: svc,
	}, nil
}

func (j *DownloadStatusCheckJob) Start(ctx context.Context) error {
	slog.Info("Starting download status check job", "interval", j.Config().Interval)
	return j.BaseJob.Start(ctx)
}

func (j *DownloadStatusCheckJob) Trigger(ctx context.Context) error {
	start := time.Now()

	summary, err := j.reconciler.Run(ctx)
	if err != nil {
		return err
	}

	if summary.Downloading > 0 || summary.Available > 0 {
		slog.Info("Reconciliation pass complete",
			"checked", summary.Checked,
			"now_downloading", summary.Downloading,
			"now_available", summary.Available,
			"duration", time.Since(start))
	}

	data, _ := json.Marshal(summary)
	j.mu.Lock()
	j.lastResult = string(data)
	j.mu.Unlock()
	return nil
}

// LastResult exposes the most recent pass summary for the execution row.
func (j *DownloadStatusCheckJob) LastResult() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastResult
}
