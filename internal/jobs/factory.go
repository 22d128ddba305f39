package jobs

import (
	"fmt"
	"time"

	"github.com/veyronhq/reqforge/internal/global"
	"github.com/veyronhq/reqforge/internal/integrations"
	"github.com/veyronhq/reqforge/pkg/structures"
)

// Default job configurations
var defaultConfigs = map[structures.Job]JobConfig{
	structures.JobDownloadStatusCheck: {
		Enabled:      true,
		Interval:     15 * time.Minute,
		MaxRetries:   2,
		RetryDelay:   30 * time.Second,
		Timeout:      5 * time.Minute,
		RunOnStartup: true,
	},
	structures.JobRequestSubmission: {
		Enabled:      true,
		Interval:     5 * time.Minute,
		MaxRetries:   2,
		RetryDelay:   30 * time.Second,
		Timeout:      2 * time.Minute,
		RunOnStartup: true,
	},
	structures.JobLibrarySyncFull: {
		Enabled:      true,
		Interval:     6 * time.Hour,
		MaxRetries:   2,
		RetryDelay:   10 * time.Minute,
		Timeout:      10 * time.Minute,
		RunOnStartup: false,
	},
	structures.JobLibrarySyncIncremental: {
		Enabled:      true,
		Interval:     15 * time.Minute,
		MaxRetries:   3,
		RetryDelay:   2 * time.Minute,
		Timeout:      5 * time.Minute,
		RunOnStartup: false,
	},
	structures.JobRequestCleanup: {
		Enabled:      true,
		Interval:     24 * time.Hour,
		MaxRetries:   2,
		RetryDelay:   5 * time.Minute,
		Timeout:      2 * time.Minute,
		RunOnStartup: false,
	},
	structures.JobCategoryCache: {
		Enabled:      true,
		Interval:     4 * time.Hour,
		MaxRetries:   2,
		RetryDelay:   10 * time.Minute,
		Timeout:      5 * time.Minute,
		RunOnStartup: true,
	},
	structures.JobNotificationCleanup: {
		Enabled:      true,
		Interval:     1 * time.Hour,
		MaxRetries:   2,
		RetryDelay:   10 * time.Minute,
		Timeout:      30 * time.Second,
		RunOnStartup: false,
	},
}

// NewJob creates a job by name with default configuration
func NewJob(name structures.Job, gctx global.Context, integrations *integrations.Integration) (Job, error) {
	config, exists := defaultConfigs[name]
	if !exists {
		return nil, fmt.Errorf("unknown job: %s", name)
	}
	return buildJob(name, gctx, integrations, config)
}

func buildJob(name structures.Job, gctx global.Context, integrations *integrations.Integration, config JobConfig) (Job, error) {
	switch name {
	case structures.JobDownloadStatusCheck:
		return NewDownloadStatusCheck(gctx, integrations, config)
	case structures.JobRequestSubmission:
		return NewRequestSubmission(gctx, integrations, config)
	case structures.JobLibrarySyncFull:
		return NewLibrarySyncFull(gctx, config)
	case structures.JobLibrarySyncIncremental:
		return NewLibrarySyncIncremental(gctx, config)
	case structures.JobRequestCleanup:
		return NewRequestCleanup(gctx, config)
	case structures.JobCategoryCache:
		return NewCategoryCacheJob(gctx, integrations, config)
	case structures.JobNotificationCleanup:
		return NewNotificationCleanup(gctx, config)
	default:
		return nil, fmt.Errorf("unknown job: %s", name)
	}
}

// RegisterAll builds and registers every job in the roster.
func RegisterAll(m *Manager, gctx global.Context, integrations *integrations.Integration) error {
	for _, name := range AllJobNames() {
		job, err := NewJob(name, gctx, integrations)
		if err != nil {
			return fmt.Errorf("failed to create job %s: %w", name, err)
		}
		if err := m.Register(job); err != nil {
			return fmt.Errorf("failed to register job %s: %w", name, err)
		}
	}
	return nil
}

// AllJobNames returns all available job names
func AllJobNames() []structures.Job {
	return []structures.Job{
		structures.JobDownloadStatusCheck,
		structures.JobRequestSubmission,
		structures.JobLibrarySyncFull,
		structures.JobLibrarySyncIncremental,
		structures.JobRequestCleanup,
		structures.JobCategoryCache,
		structures.JobNotificationCleanup,
	}
}
