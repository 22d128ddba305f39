package jobs

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/veyronhq/reqforge/config"
	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/global"
	"github.com/veyronhq/reqforge/internal/testutil"
	"github.com/veyronhq/reqforge/pkg/structures"
)

// testSqlite satisfies the sqlite.Service interface over the test database.
type testSqlite struct {
	db      *sql.DB
	queries *repository.Queries
}

func (s *testSqlite) DB() *sql.DB                  { return s.db }
func (s *testSqlite) Query() *repository.Queries   { return s.queries }
func (s *testSqlite) Close() error                 { return nil }

// blockingJob runs until released, so tests can observe the running state.
type blockingJob struct {
	*BaseJob
	release chan struct{}
	started chan struct{}
}

func newBlockingJob(gctx global.Context, name structures.Job) *blockingJob {
	return &blockingJob{
		BaseJob: NewBaseJob(gctx, name, JobConfig{
			Enabled:    false, // ticker stays quiet; tests trigger manually
			Interval:   time.Hour,
			MaxRetries: 0,
			RetryDelay: time.Second,
			Timeout:    time.Minute,
		}),
		release: make(chan struct{}, 8),
		started: make(chan struct{}, 8),
	}
}

func (j *blockingJob) Trigger(ctx context.Context) error {
	j.started <- struct{}{}
	select {
	case <-j.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newTestManager(t *testing.T) (*Manager, *blockingJob, *repository.Queries) {
	t.Helper()

	conn, queries := testutil.NewDB(t)

	gctx := global.New(context.Background(), &config.Bootstrap{Version: "test"}, "test", "now")
	gctx.Crate().Sqlite = &testSqlite{db: conn, queries: queries}

	manager := NewManager(gctx)
	job := newBlockingJob(gctx, structures.Job("library_sync_full"))
	if err := manager.Register(job); err != nil {
		t.Fatal(err)
	}
	if err := manager.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		manager.Stop(stopCtx)
	})

	return manager, job, queries
}

func TestTriggerJobSingleFlight(t *testing.T) {
	manager, job, queries := newTestManager(t)
	ctx := context.Background()

	first, err := manager.TriggerJob(ctx, job.Name(), structures.JobTriggerManual)
	if err != nil {
		t.Fatalf("first trigger: %v", err)
	}
	<-job.started

	// Re-entry while the first execution is open must be rejected.
	_, err = manager.TriggerJob(ctx, job.Name(), structures.JobTriggerManual)
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second trigger err = %v, want ErrAlreadyRunning", err)
	}

	// At most one running row per job name at any instant.
	running, err := queries.GetRunningJobExecution(ctx, job.Name().String())
	if err != nil {
		t.Fatalf("expected a running execution row: %v", err)
	}
	if running.ID != first {
		t.Errorf("running row id = %d, want %d", running.ID, first)
	}

	job.release <- struct{}{}

	// Wait for the execution row to close.
	deadline := time.After(3 * time.Second)
	for {
		execution, err := queries.GetLastJobExecution(ctx, job.Name().String())
		if err == nil && execution.Status != "running" {
			if execution.Status != "success" {
				t.Errorf("execution status = %s, want success", execution.Status)
			}
			if !execution.CompletedAt.Valid {
				t.Error("completed_at not set on finished execution")
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("execution never completed")
		case <-time.After(20 * time.Millisecond):
		}
	}

	// With the first run finished, a new trigger succeeds.
	third, err := manager.TriggerJob(ctx, job.Name(), structures.JobTriggerManual)
	if err != nil {
		t.Fatalf("third trigger: %v", err)
	}
	if third == first {
		t.Error("third trigger reused the first execution id")
	}
	<-job.started
	job.release <- struct{}{}
}

func TestInterruptedExecutionsHealedOnStart(t *testing.T) {
	conn, queries := testutil.NewDB(t)
	ctx := context.Background()

	// A running row left behind by a dead process.
	if _, err := queries.BeginJobExecution(ctx, repository.BeginJobExecutionParams{
		JobName:     "request_submission",
		TriggeredBy: "scheduler",
	}); err != nil {
		t.Fatal(err)
	}

	gctx := global.New(context.Background(), &config.Bootstrap{Version: "test"}, "test", "now")
	gctx.Crate().Sqlite = &testSqlite{db: conn, queries: queries}

	manager := NewManager(gctx)
	if err := manager.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		manager.Stop(stopCtx)
	})

	execution, err := queries.GetLastJobExecution(ctx, "request_submission")
	if err != nil {
		t.Fatal(err)
	}
	if execution.Status != "failed" {
		t.Errorf("interrupted execution status = %s, want failed", execution.Status)
	}
}

func TestSchedulePersistsAndApplies(t *testing.T) {
	manager, job, queries := newTestManager(t)
	ctx := context.Background()

	if err := manager.Schedule(ctx, job.Name(), 42*time.Minute, true); err != nil {
		t.Fatal(err)
	}

	schedule, err := queries.GetJobSchedule(ctx, job.Name().String())
	if err != nil {
		t.Fatal(err)
	}
	if schedule.IntervalSeconds != int64((42 * time.Minute).Seconds()) {
		t.Errorf("persisted interval = %d seconds, want 2520", schedule.IntervalSeconds)
	}
	if !schedule.Enabled {
		t.Error("persisted schedule should be enabled")
	}

	if got := job.Config().Interval; got != 42*time.Minute {
		t.Errorf("live config interval = %s, want 42m", got)
	}

	if err := manager.Schedule(ctx, structures.Job("nope"), time.Minute, true); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("unknown job schedule err = %v, want ErrUnknownJob", err)
	}
}
