package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/global"
	"github.com/veyronhq/reqforge/internal/integrations"
	"github.com/veyronhq/reqforge/internal/services/dispatcher"
	"github.com/veyronhq/reqforge/pkg/structures"
)

// RequestSubmissionJob is the deferred-dispatch safety net: any approved
// request that never reached its downstream instance (dispatch error,
// timeout, process death mid-approve) is picked up here and retried.
type RequestSubmissionJob struct {
	*BaseJob
	repo       *repository.Queries
	dispatcher *dispatcher.Service

	mu         sync.Mutex
	lastResult string
}

func NewRequestSubmission(gctx global.Context, integ *integrations.Integration, config JobConfig) (*RequestSubmissionJob, error) {
	repo := gctx.Crate().Sqlite.Query()
	return &RequestSubmissionJob{
		BaseJob:    NewBaseJob(gctx, structures.JobRequestSubmission, config),
		repo:       repo,
		dispatcher: dispatcher.New(repo, integ.Radarr, integ.Sonarr),
	}, nil
}

func (j *RequestSubmissionJob) Start(ctx context.Context) error {
	slog.Info("Starting request submission job", "interval", j.Config().Interval)
	return j.BaseJob.Start(ctx)
}

// batchKey groups undispatched TV rows so one series goes downstream as a
// single coordinated call carrying the union of its selections.
type batchKey struct {
	userID string
	tmdbID int64
}

func (j *RequestSubmissionJob) Trigger(ctx context.Context) error {
	undispatched, err := j.repo.GetUndispatchedApprovedRequests(ctx)
	if err != nil {
		return err
	}
	if len(undispatched) == 0 {
		return nil
	}

	slog.Info("Dispatching approved requests without downstream ids", "count", len(undispatched))

	dispatched := 0
	failed := 0

	seriesBatches := make(map[batchKey][]repository.Request)
	for _, request := range undispatched {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if structures.MediaType(request.MediaType) == structures.MediaTypeTV && request.TmdbID.Valid {
			key := batchKey{userID: request.UserID, tmdbID: request.TmdbID.Int64}
			seriesBatches[key] = append(seriesBatches[key], request)
			continue
		}

		if _, err := j.dispatcher.Integrate(ctx, request); err != nil {
			failed++
			slog.Error("Deferred dispatch failed", "request_id", request.ID, "error", err)
			continue
		}
		dispatched++
	}

	for key, batch := range seriesBatches {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := j.dispatcher.IntegrateSeriesBatch(ctx, batch); err != nil {
			failed += len(batch)
			slog.Error("Deferred series dispatch failed", "tmdb_id", key.tmdbID, "rows", len(batch), "error", err)
			continue
		}
		dispatched += len(batch)
	}

	data, _ := json.Marshal(map[string]int{
		"undispatched": len(undispatched),
		"dispatched":   dispatched,
		"failed":       failed,
	})
	j.mu.Lock()
	j.lastResult = string(data)
	j.mu.Unlock()

	return nil
}

// LastResult exposes the most recent pass summary for the execution row.
func (j *RequestSubmissionJob) LastResult() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastResult
}
