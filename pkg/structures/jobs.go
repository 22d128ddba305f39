package structures

type Job string

const (
	// JobDownloadStatusCheck polls configured instances and the library
	// server and advances requests to DOWNLOADING or AVAILABLE.
	JobDownloadStatusCheck Job = "download_status_check"
	// JobRequestSubmission dispatches approved requests to Radarr/Sonarr
	// that haven't yet been sent downstream (catch-up for requests approved
	// while the process was down, in addition to the synchronous dispatch
	// fired from the approval handler).
	JobRequestSubmission Job = "request_submission"
	// JobLibrarySyncFull rebuilds the library mirror from scratch.
	JobLibrarySyncFull Job = "library_sync_full"
	// JobLibrarySyncIncremental refreshes the library mirror incrementally.
	JobLibrarySyncIncremental Job = "library_sync_incremental"
	// JobRequestCleanup deletes terminal (available/rejected) requests past
	// their retention window and trims old job execution history.
	JobRequestCleanup Job = "request_cleanup"
	// JobCategoryCache refreshes cached discovery category listings.
	JobCategoryCache Job = "category_cache"
	// JobNotificationCleanup prunes expired in-app notifications.
	JobNotificationCleanup Job = "notification_cleanup"
)

func (j Job) String() string {
	return string(j)
}

func (j Job) Valid() bool {
	switch j {
	case JobDownloadStatusCheck, JobRequestSubmission, JobLibrarySyncFull,
		JobLibrarySyncIncremental, JobRequestCleanup, JobCategoryCache, JobNotificationCleanup:
		return true
	default:
		return false
	}
}
