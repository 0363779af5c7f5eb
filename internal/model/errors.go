package model

import "errors"

// Error kinds shared across component boundaries. Components wrap these with
// context (pkg/errors) so callers can classify failures with errors.Is while
// still surfacing a human-readable message.
var (
	// ErrInvalidURL means the input does not look like a supported content URL
	ErrInvalidURL = errors.New("invalid url")

	// ErrProbeFailed means the extraction tool could not fetch metadata
	ErrProbeFailed = errors.New("probe failed")

	// ErrUnsupportedFormat means the requested resolution/bitrate is not offered
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrAlreadyRunning means a download job is already active
	ErrAlreadyRunning = errors.New("a download is already running")

	// ErrJobFailed means the download or transcode failed
	ErrJobFailed = errors.New("download failed")

	// ErrCancelled marks a user-initiated cancellation, not a failure
	ErrCancelled = errors.New("cancelled")

	// ErrNotFound means a folder or media reference did not resolve
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName means a folder with that name already exists
	ErrDuplicateName = errors.New("folder already exists")

	// ErrInvalidName means a folder name failed validation
	ErrInvalidName = errors.New("invalid folder name")

	// ErrIsDefault guards the default folder against delete/rename
	ErrIsDefault = errors.New("operation not allowed on the default folder")

	// ErrUnconfigured means the library root is not set up yet
	ErrUnconfigured = errors.New("content folder is not configured")
)
