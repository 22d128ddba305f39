package jobs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/veyronhq/reqforge/internal/global"
	"github.com/veyronhq/reqforge/pkg/structures"
)

// jobStatus values stored in BaseJob's atomic status word.
var statusWords = [...]JobStatus{JobStatusStopped, JobStatusRunning, JobStatusError, JobStatusStopping}

func statusToWord(status JobStatus) int32 {
	for i, s := range statusWords {
		if s == status {
			return int32(i)
		}
	}
	return 0
}

// BaseJob carries the lifecycle and counters every job shares; concrete
// jobs embed it and implement Trigger.
type BaseJob struct {
	gctx   global.Context
	name   structures.Job
	status int32 // index into statusWords

	// Counters are atomics: Metrics() is called from the API while a run
	// is mid-flight.
	runCount     int64
	errorCount   int64
	totalRunTime int64 // nanoseconds
	lastRun      int64 // unix nano
	lastErrTime  int64 // unix nano

	mu        sync.RWMutex
	config    JobConfig
	lastError string
	running   bool
}

// NewBaseJob creates a new base job
func NewBaseJob(gctx global.Context, name structures.Job, config JobConfig) *BaseJob {
	return &BaseJob{
		gctx:   gctx,
		name:   name,
		config: config,
	}
}

// Name returns the job name
func (b *BaseJob) Name() structures.Job {
	return b.name
}

// Config returns the job configuration
func (b *BaseJob) Config() JobConfig {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config
}

// SetConfig updates the job configuration
func (b *BaseJob) SetConfig(config JobConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.config = config
	return nil
}

// Status returns the current job status
func (b *BaseJob) Status() JobStatus {
	return statusWords[atomic.LoadInt32(&b.status)]
}

func (b *BaseJob) setStatus(status JobStatus) {
	atomic.StoreInt32(&b.status, statusToWord(status))
}

// Start marks the job active; concrete jobs call through after their own
// setup.
func (b *BaseJob) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return nil
	}
	b.running = true
	b.setStatus(JobStatusRunning)
	return nil
}

// Stop marks the job stopped.
func (b *BaseJob) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running {
		return nil
	}
	b.running = false
	b.setStatus(JobStatusStopped)
	return nil
}

// Metrics returns job execution counters and the derived next-run moment.
func (b *BaseJob) Metrics() JobMetrics {
	runCount := atomic.LoadInt64(&b.runCount)
	lastRunNano := atomic.LoadInt64(&b.lastRun)
	lastErrNano := atomic.LoadInt64(&b.lastErrTime)

	metrics := JobMetrics{
		Name:       b.name,
		Status:     b.Status(),
		RunCount:   runCount,
		ErrorCount: atomic.LoadInt64(&b.errorCount),
	}

	if lastRunNano > 0 {
		metrics.LastRun = time.Unix(0, lastRunNano)
	}
	if runCount > 0 {
		metrics.AverageRunTime = time.Duration(atomic.LoadInt64(&b.totalRunTime) / runCount)
	}
	if lastErrNano > 0 {
		lastErrorTime := time.Unix(0, lastErrNano)
		metrics.LastErrorTime = &lastErrorTime

		b.mu.RLock()
		metrics.LastError = b.lastError
		b.mu.RUnlock()
	}

	config := b.Config()
	if lastRunNano > 0 && config.Enabled {
		nextRun := time.Unix(0, lastRunNano).Add(config.Interval)
		metrics.NextRun = &nextRun
	}

	return metrics
}

// Health reports an error while the job sits in the error state.
func (b *BaseJob) Health() error {
	if b.Status() == JobStatusError {
		b.mu.RLock()
		lastError := b.lastError
		b.mu.RUnlock()
		return fmt.Errorf("job in error state: %s", lastError)
	}
	return nil
}

// OnSuccess records successful execution
func (b *BaseJob) OnSuccess(ctx context.Context, duration time.Duration) {
	atomic.AddInt64(&b.runCount, 1)
	atomic.AddInt64(&b.totalRunTime, duration.Nanoseconds())
	atomic.StoreInt64(&b.lastRun, time.Now().UnixNano())

	if b.Status() == JobStatusError {
		b.setStatus(JobStatusRunning)
		b.mu.Lock()
		b.lastError = ""
		b.mu.Unlock()
		atomic.StoreInt64(&b.lastErrTime, 0)
	}
}

// OnError records failed execution
func (b *BaseJob) OnError(ctx context.Context, err error) {
	atomic.AddInt64(&b.errorCount, 1)
	atomic.StoreInt64(&b.lastErrTime, time.Now().UnixNano())

	b.mu.Lock()
	b.lastError = err.Error()
	b.mu.Unlock()

	b.setStatus(JobStatusError)
}

// Context returns the global context
func (b *BaseJob) Context() global.Context {
	return b.gctx
}
