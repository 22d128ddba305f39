package jobs

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/global"
	"github.com/veyronhq/reqforge/internal/jobs"
	"github.com/veyronhq/reqforge/internal/rest/v1/respond"
	apiErrors "github.com/veyronhq/reqforge/pkg/api_errors"
	"github.com/veyronhq/reqforge/pkg/structures"
)

type RouteGroup struct {
	gctx    global.Context
	manager *jobs.Manager
}

func NewRouteGroup(gctx global.Context, manager *jobs.Manager) *RouteGroup {
	return &RouteGroup{
		gctx:    gctx,
		manager: manager,
	}
}

type jobStatus struct {
	Name     string          `json:"name"`
	Enabled  bool            `json:"enabled"`
	Interval string          `json:"interval"`
	Metrics  jobs.JobMetrics `json:"metrics"`
}

// ListJobs reports every registered job with its schedule and counters.
func (rg *RouteGroup) ListJobs(ctx *respond.Ctx) error {
	var statuses []jobStatus
	for _, job := range rg.manager.ListJobs() {
		config := job.Config()
		statuses = append(statuses, jobStatus{
			Name:     job.Name().String(),
			Enabled:  config.Enabled,
			Interval: config.Interval.String(),
			Metrics:  job.Metrics(),
		})
	}
	return ctx.JSON(statuses)
}

// TriggerJob runs a job immediately. A job with an open execution returns
// 409 {reason: "already_running"}.
func (rg *RouteGroup) TriggerJob(ctx *respond.Ctx) error {
	name := structures.Job(ctx.Params("name"))
	if !name.Valid() {
		return apiErrors.ErrUnknownJob().SetDetail("No job named '%s'", name)
	}

	executionID, err := rg.manager.TriggerJob(ctx.Context(), name, structures.JobTriggerManual)
	if err != nil {
		if errors.Is(err, jobs.ErrAlreadyRunning) {
			return apiErrors.ErrJobAlreadyRunning().SetFields(apiErrors.Fields{"reason": "already_running"})
		}
		if errors.Is(err, jobs.ErrUnknownJob) {
			return apiErrors.ErrUnknownJob().SetDetail("No job named '%s'", name)
		}
		slog.Error("Failed to trigger job", "name", name, "error", err)
		return apiErrors.ErrInternalServerError().SetDetail("Failed to trigger job")
	}

	slog.Info("Job triggered manually", "name", name, "execution_id", executionID)

	ctx.Status(202)
	return ctx.JSON(map[string]interface{}{
		"execution_id": executionID,
	})
}

type scheduleRequest struct {
	IntervalSeconds int64 `json:"interval_seconds"`
	Enabled         bool  `json:"enabled"`
}

// UpdateSchedule persists a new interval/enabled pair for a job.
func (rg *RouteGroup) UpdateSchedule(ctx *respond.Ctx) error {
	name := structures.Job(ctx.Params("name"))
	if !name.Valid() {
		return apiErrors.ErrUnknownJob().SetDetail("No job named '%s'", name)
	}

	var req scheduleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apiErrors.ErrBadRequest().SetDetail("Invalid request body")
	}
	if req.IntervalSeconds < 60 {
		return apiErrors.ErrValidationRejected().SetDetail("Interval must be at least 60 seconds")
	}

	if err := rg.manager.Schedule(ctx.Context(), name, time.Duration(req.IntervalSeconds)*time.Second, req.Enabled); err != nil {
		if errors.Is(err, jobs.ErrUnknownJob) {
			return apiErrors.ErrUnknownJob().SetDetail("No job named '%s'", name)
		}
		slog.Error("Failed to update job schedule", "name", name, "error", err)
		return apiErrors.ErrInternalServerError().SetDetail("Failed to update schedule")
	}

	return ctx.JSON(map[string]interface{}{
		"job_name":         name,
		"interval_seconds": req.IntervalSeconds,
		"enabled":          req.Enabled,
	})
}

type executionResponse struct {
	ID              int64    `json:"id"`
	JobName         string   `json:"job_name"`
	StartedAt       string   `json:"started_at"`
	CompletedAt     *string  `json:"completed_at,omitempty"`
	Status          string   `json:"status"`
	ResultData      *string  `json:"result_data,omitempty"`
	ErrorMessage    *string  `json:"error_message,omitempty"`
	TriggeredBy     string   `json:"triggered_by"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
}

// GetHistory returns paginated execution history, optionally filtered by
// job name.
func (rg *RouteGroup) GetHistory(ctx *respond.Ctx) error {
	limit, err := strconv.ParseInt(ctx.Query("limit", "50"), 10, 64)
	if err != nil || limit < 1 || limit > 500 {
		limit = 50
	}
	offset, err := strconv.ParseInt(ctx.Query("offset", "0"), 10, 64)
	if err != nil || offset < 0 {
		offset = 0
	}

	var executions []repository.JobExecution
	if name := ctx.Query("job_name"); name != "" {
		if !structures.Job(name).Valid() {
			return apiErrors.ErrUnknownJob().SetDetail("No job named '%s'", name)
		}
		executions, err = rg.gctx.Crate().Sqlite.Query().ListJobExecutionsByName(ctx.Context(), repository.ListJobExecutionsByNameParams{
			JobName: name,
			Limit:   limit,
			Offset:  offset,
		})
	} else {
		executions, err = rg.gctx.Crate().Sqlite.Query().ListJobExecutions(ctx.Context(), repository.ListJobExecutionsParams{
			Limit:  limit,
			Offset: offset,
		})
	}
	if err != nil {
		slog.Error("Failed to list job executions", "error", err)
		return apiErrors.ErrInternalServerError().SetDetail("Failed to retrieve history")
	}

	total, err := rg.gctx.Crate().Sqlite.Query().CountJobExecutions(ctx.Context())
	if err != nil {
		slog.Error("Failed to count job executions", "error", err)
		total = int64(len(executions))
	}

	responses := make([]executionResponse, 0, len(executions))
	for _, execution := range executions {
		responses = append(responses, toExecutionResponse(execution))
	}

	return ctx.JSON(map[string]interface{}{
		"total":      total,
		"limit":      limit,
		"offset":     offset,
		"executions": responses,
	})
}

func toExecutionResponse(row repository.JobExecution) executionResponse {
	response := executionResponse{
		ID:          row.ID,
		JobName:     row.JobName,
		StartedAt:   row.StartedAt.Format(time.RFC3339),
		Status:      row.Status,
		TriggeredBy: row.TriggeredBy,
	}
	if row.CompletedAt.Valid {
		completed := row.CompletedAt.Time.Format(time.RFC3339)
		response.CompletedAt = &completed
	}
	if row.ResultData.Valid {
		response.ResultData = &row.ResultData.String
	}
	if row.ErrorMessage.Valid {
		response.ErrorMessage = &row.ErrorMessage.String
	}
	if row.DurationSeconds.Valid {
		response.DurationSeconds = &row.DurationSeconds.Float64
	}
	return response
}
