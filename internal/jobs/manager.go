package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/global"
	"github.com/veyronhq/reqforge/internal/websocket"
	"github.com/veyronhq/reqforge/pkg/structures"
)

// ErrAlreadyRunning is returned by TriggerJob when the named job has an open
// execution; the HTTP layer maps it to 409 {reason: "already_running"}.
var ErrAlreadyRunning = errors.New("job already running")

// ErrUnknownJob is returned for trigger calls naming an unregistered job.
var ErrUnknownJob = errors.New("unknown job")

// ResultReporter is optionally implemented by jobs that produce a structured
// result worth persisting with the execution row.
type ResultReporter interface {
	LastResult() string
}

// Manager coordinates all job execution: one runner goroutine per job, a
// single-flight gate shared by the ticker and manual triggers, and a
// persistent execution-history row per run.
type Manager struct {
	gctx     global.Context
	jobs     map[structures.Job]Job
	mu       sync.RWMutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup

	// flight dedupes concurrent entries in-process; the partial unique
	// index on job_executions is the cross-process backstop.
	flight singleflight.Group
}

// NewManager creates a new job manager
func NewManager(gctx global.Context) *Manager {
	return &Manager{
		gctx:     gctx,
		jobs:     make(map[structures.Job]Job),
		stopChan: make(chan struct{}),
	}
}

func (m *Manager) repo() *repository.Queries {
	return m.gctx.Crate().Sqlite.Query()
}

// Register registers a job with the manager
func (m *Manager) Register(job Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := job.Name()
	if _, exists := m.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	m.jobs[name] = job
	slog.Info("Registered job", "name", name)
	return nil
}

// Start loads persisted schedules, heals interrupted executions, and starts
// one runner per enabled job. A job whose next-run moment passed while the
// process was down gets exactly one coalesced catch-up run.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("job manager already running")
	}

	// Rows still marked running belong to a dead process.
	if healed, err := m.repo().FailInterruptedJobExecutions(ctx); err != nil {
		slog.Error("Failed to heal interrupted job executions", "error", err)
	} else if healed > 0 {
		slog.Warn("Marked interrupted job executions as failed", "count", healed)
	}

	if err := m.loadSchedules(ctx); err != nil {
		slog.Error("Failed to load persisted job schedules", "error", err)
	}

	slog.Info("Starting job manager", "job_count", len(m.jobs))
	m.running = true

	for name, job := range m.jobs {
		m.wg.Add(1)
		go m.runJob(ctx, job)
		slog.Info("Started job runner", "name", name, "enabled", job.Config().Enabled)
	}

	return nil
}

// loadSchedules overlays persisted intervals and enabled flags onto the
// registered defaults and persists defaults for jobs seen for the first
// time, so schedules survive restart in either direction.
func (m *Manager) loadSchedules(ctx context.Context) error {
	schedules, err := m.repo().GetJobSchedules(ctx)
	if err != nil {
		return err
	}

	persisted := make(map[string]repository.JobSchedule, len(schedules))
	for _, schedule := range schedules {
		persisted[schedule.JobName] = schedule
	}

	for name, job := range m.jobs {
		if schedule, ok := persisted[name.String()]; ok {
			config := job.Config()
			config.Interval = time.Duration(schedule.IntervalSeconds) * time.Second
			config.Enabled = schedule.Enabled
			if err := job.SetConfig(config); err != nil {
				return err
			}
			continue
		}

		config := job.Config()
		if err := m.repo().UpsertJobSchedule(ctx, repository.UpsertJobScheduleParams{
			JobName:         name.String(),
			IntervalSeconds: int64(config.Interval / time.Second),
			Enabled:         config.Enabled,
		}); err != nil {
			return err
		}
	}
	return nil
}

// Schedule persists and applies a new interval/enabled pair for a job. Live
// runners pick up the change on their next tick.
func (m *Manager) Schedule(ctx context.Context, name structures.Job, interval time.Duration, enabled bool) error {
	job, exists := m.GetJob(name)
	if !exists {
		return ErrUnknownJob
	}

	if err := m.repo().UpsertJobSchedule(ctx, repository.UpsertJobScheduleParams{
		JobName:         name.String(),
		IntervalSeconds: int64(interval / time.Second),
		Enabled:         enabled,
	}); err != nil {
		return err
	}

	config := job.Config()
	config.Interval = interval
	config.Enabled = enabled
	return job.SetConfig(config)
}

// Stop stops all jobs gracefully: no new work is accepted, in-flight runs
// are cancelled through their contexts, and the manager waits out the
// caller's deadline.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}

	slog.Info("Stopping job manager")
	m.running = false
	close(m.stopChan)

	for name, job := range m.jobs {
		if err := job.Stop(ctx); err != nil {
			slog.Error("Failed to stop job", "name", name, "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("All jobs stopped successfully")
	case <-ctx.Done():
		slog.Warn("Timeout waiting for jobs to stop")
		return ctx.Err()
	}

	return nil
}

// runJob manages the lifecycle of a single job
func (m *Manager) runJob(ctx context.Context, job Job) {
	defer m.wg.Done()

	name := job.Name()

	if err := job.Start(ctx); err != nil {
		slog.Error("Failed to start job", "name", name, "error", err)
		job.OnError(ctx, err)
		return
	}

	// Coalesced catch-up: however many cycles were missed while the
	// process was down, at most one immediate run happens here.
	config := job.Config()
	if config.Enabled && m.isOverdue(ctx, name, config) {
		slog.Info("Running overdue job once at startup", "name", name)
		if _, err := m.executeJob(ctx, job, structures.JobTriggerScheduler); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			slog.Warn("Startup catch-up run failed", "name", name, "error", err)
		}
	} else if config.Enabled && config.RunOnStartup {
		if _, err := m.executeJob(ctx, job, structures.JobTriggerScheduler); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			slog.Warn("Startup run failed", "name", name, "error", err)
		}
	}

	// A timer rather than a ticker so interval changes from Schedule take
	// effect on the next arm.
	timer := time.NewTimer(job.Config().Interval)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			config := job.Config()
			if config.Enabled {
				if _, err := m.executeJob(ctx, job, structures.JobTriggerScheduler); err != nil && !errors.Is(err, ErrAlreadyRunning) {
					slog.Debug("Scheduled run failed", "name", name, "error", err)
				}
			}
			timer.Reset(config.Interval)
		case <-m.stopChan:
			slog.Debug("Job runner stopping", "name", name)
			return
		case <-ctx.Done():
			slog.Debug("Job runner context cancelled", "name", name)
			return
		}
	}
}

// isOverdue reports whether the job's persisted next-run moment has passed.
func (m *Manager) isOverdue(ctx context.Context, name structures.Job, config JobConfig) bool {
	schedule, err := m.repo().GetJobSchedule(ctx, name.String())
	if err != nil || !schedule.LastRun.Valid {
		return false
	}
	return time.Since(schedule.LastRun.Time) > config.Interval
}

// executeJob runs one execution under the single-flight gate and records it
// in the history table. The returned id identifies the execution row.
func (m *Manager) executeJob(ctx context.Context, job Job, trigger structures.JobTrigger) (int64, error) {
	name := job.Name()

	type runOutcome struct {
		executionID int64
	}

	value, err, shared := m.flight.Do(name.String(), func() (interface{}, error) {
		execution, err := m.repo().BeginJobExecution(ctx, repository.BeginJobExecutionParams{
			JobName:     name.String(),
			TriggeredBy: trigger.String(),
		})
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// A running row exists; the insert was suppressed.
				return nil, ErrAlreadyRunning
			}
			return nil, err
		}

		runErr := m.runWithRetries(ctx, job)
		m.finishExecution(ctx, job, execution.ID, runErr)
		return runOutcome{executionID: execution.ID}, runErr
	})

	if shared && trigger != structures.JobTriggerScheduler {
		// A concurrent caller rode along on someone else's run; for a
		// manual trigger that still counts as "already running".
		jobRejectedTotal.WithLabelValues(name.String()).Inc()
		return 0, ErrAlreadyRunning
	}
	if err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			jobRejectedTotal.WithLabelValues(name.String()).Inc()
		}
		if outcome, ok := value.(runOutcome); ok {
			return outcome.executionID, err
		}
		return 0, err
	}
	return value.(runOutcome).executionID, nil
}

// runWithRetries applies the job's timeout and retry policy to one logical
// execution.
func (m *Manager) runWithRetries(ctx context.Context, job Job) error {
	name := job.Name()
	config := job.Config()
	start := time.Now()

	execCtx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("Retrying job execution", "name", name, "attempt", attempt, "max_retries", config.MaxRetries)
			select {
			case <-time.After(config.RetryDelay):
			case <-execCtx.Done():
				return execCtx.Err()
			}
		}

		err := job.Trigger(execCtx)
		if err == nil {
			duration := time.Since(start)
			slog.Debug("Job executed successfully", "name", name, "duration", duration)
			job.OnSuccess(execCtx, duration)
			return nil
		}

		lastErr = err
		if execCtx.Err() != nil {
			lastErr = execCtx.Err()
			break
		}
		slog.Warn("Job execution failed", "name", name, "attempt", attempt+1, "error", err)
	}

	slog.Error("Job failed after all retries", "name", name, "error", lastErr)
	job.OnError(execCtx, lastErr)
	return lastErr
}

// finishExecution closes the history row and advances the persisted
// schedule clock.
func (m *Manager) finishExecution(ctx context.Context, job Job, executionID int64, runErr error) {
	name := job.Name().String()

	// The run context may be cancelled; finalization uses a short
	// independent deadline so history rows never stay open.
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	execution, err := m.repo().GetLastJobExecution(finishCtx, name)
	var duration float64
	if err == nil && execution.ID == executionID {
		duration = time.Since(execution.StartedAt).Seconds()
	}

	status := structures.JobExecutionSuccess
	var errorMessage sql.NullString
	if runErr != nil {
		status = structures.JobExecutionFailed
		message := runErr.Error()
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			message = "cancelled"
		}
		errorMessage = sql.NullString{String: message, Valid: true}
	}

	var resultData sql.NullString
	if reporter, ok := job.(ResultReporter); ok && runErr == nil {
		if result := reporter.LastResult(); result != "" {
			resultData = sql.NullString{String: result, Valid: true}
		}
	}

	if err := m.repo().CompleteJobExecution(finishCtx, repository.CompleteJobExecutionParams{
		Status:          status.String(),
		ResultData:      resultData,
		ErrorMessage:    errorMessage,
		DurationSeconds: sql.NullFloat64{Float64: duration, Valid: duration > 0},
		ID:              executionID,
	}); err != nil {
		slog.Error("Failed to finalize job execution row", "name", name, "execution_id", executionID, "error", err)
	}

	if err := m.repo().SetJobScheduleLastRun(finishCtx, repository.SetJobScheduleLastRunParams{
		LastRun: sql.NullTime{Time: time.Now().UTC(), Valid: true},
		JobName: name,
	}); err != nil {
		slog.Error("Failed to persist job last-run", "name", name, "error", err)
	}

	// Failed executions surface to operators as a system alert.
	if runErr != nil && m.gctx.Crate().NotificationService != nil {
		if err := m.gctx.Crate().NotificationService.NotifySystemAlert(finishCtx,
			"Job failed: "+name,
			fmt.Sprintf("Execution %d failed: %v", executionID, runErr),
			structures.NotificationPriorityHigh,
		); err != nil {
			slog.Error("Failed to send job-failure alert", "name", name, "error", err)
		}
	}

	websocket.BroadcastToAll(structures.OpcodeJobExecution, structures.JobExecutionPayload{
		ExecutionID: executionID,
		JobName:     name,
		Status:      status.String(),
	})

	jobRunsTotal.WithLabelValues(name, status.String()).Inc()
	jobDurationSeconds.WithLabelValues(name).Observe(duration)
}

// GetJob returns a specific job by name
func (m *Manager) GetJob(name structures.Job) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, exists := m.jobs[name]
	return job, exists
}

// ListJobs returns all registered jobs
func (m *Manager) ListJobs() []Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// TriggerJob runs a job immediately, subject to single-flight, and returns
// the new execution row's id.
func (m *Manager) TriggerJob(ctx context.Context, name structures.Job, trigger structures.JobTrigger) (int64, error) {
	m.mu.RLock()
	accepting := m.running
	m.mu.RUnlock()
	if !accepting {
		return 0, fmt.Errorf("job manager is shutting down")
	}

	job, exists := m.GetJob(name)
	if !exists {
		return 0, ErrUnknownJob
	}

	// The running row must exist before this returns so a caller polling
	// the history API immediately after sees it; the run itself continues
	// in the background.
	execution, err := m.repo().BeginJobExecution(ctx, repository.BeginJobExecutionParams{
		JobName:     name.String(),
		TriggeredBy: trigger.String(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jobRejectedTotal.WithLabelValues(name.String()).Inc()
			return 0, ErrAlreadyRunning
		}
		return 0, err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		runErr := m.runWithRetries(m.gctx, job)
		m.finishExecution(m.gctx, job, execution.ID, runErr)
	}()

	return execution.ID, nil
}
