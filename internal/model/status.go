package model

// JobStatus represents the lifecycle state of the download job
type JobStatus string

const (
	// JobStatusIdle means no job has been started yet, or the last one was superseded
	JobStatusIdle JobStatus = "idle"

	// JobStatusStarting means a job was accepted and the external tool is spinning up
	JobStatusStarting JobStatus = "starting"

	// JobStatusDownloading means media bytes are flowing
	JobStatusDownloading JobStatus = "downloading"

	// JobStatusProcessing means the download finished and post-processing (merge,
	// audio extraction, placement) is running
	JobStatusProcessing JobStatus = "processing"

	// JobStatusCompleted means the job finished and the media file plus its
	// sidecar record are in place
	JobStatusCompleted JobStatus = "completed"

	// JobStatusError means the job failed
	JobStatusError JobStatus = "error"

	// JobStatusCancelled means the job was cancelled by the user
	JobStatusCancelled JobStatus = "cancelled"
)

// String returns the string representation of JobStatus
func (js JobStatus) String() string {
	return string(js)
}

// IsActive returns true while a job occupies the orchestrator
func (js JobStatus) IsActive() bool {
	return js == JobStatusStarting || js == JobStatusDownloading || js == JobStatusProcessing
}

// IsTerminal returns true if the job reached a final state
func (js JobStatus) IsTerminal() bool {
	return js == JobStatusCompleted || js == JobStatusError || js == JobStatusCancelled
}
