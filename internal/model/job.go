package model

// DownloadType selects which stream a download request targets
type DownloadType string

const (
	DownloadTypeVideo DownloadType = "video"
	DownloadTypeAudio DownloadType = "audio"
)

// DownloadRequest describes one download to run
type DownloadRequest struct {
	URL        string       `json:"url"`
	Type       DownloadType `json:"type"`
	Resolution string       `json:"resolution"` // video: ladder label, e.g. "1080p"
	Bitrate    int          `json:"bitrate"`    // audio: kbps, one of 128/192/320
	Folder     string       `json:"folder"`
	MediaID    string       `json:"media_id,omitempty"` // set when promoting a saved link
}

// JobSnapshot is the poll view of the singleton download job. All fields are
// plain values so a snapshot stays consistent after the lock is released.
type JobSnapshot struct {
	JobID      string    `json:"job_id,omitempty"`
	Status     JobStatus `json:"status"`
	Progress   int       `json:"progress"` // 0..100, non-decreasing within one job
	Speed      string    `json:"speed,omitempty"`
	Filename   string    `json:"filename,omitempty"`
	ResultPath string    `json:"filepath,omitempty"` // set only at completed
	Message    string    `json:"message,omitempty"`
}

// Folder is a named partition of the library. VideoCount is derived by the
// catalog, never stored.
type Folder struct {
	Name       string `json:"name"`
	IsDefault  bool   `json:"is_default"`
	VideoCount int    `json:"video_count"`
}

// FormatOption is one rung of the canonical resolution ladder as offered for a
// probed URL. Available is false when the source does not provide that rung.
type FormatOption struct {
	Resolution string `json:"resolution"`
	Height     int64  `json:"height"`
	Ext        string `json:"ext,omitempty"`
	Filesize   int64  `json:"filesize,omitempty"`
	Available  bool   `json:"available"`
}

// VideoInfo is the read-only result of probing a URL
type VideoInfo struct {
	ID                string         `json:"video_id"`
	URL               string         `json:"url"`
	Title             string         `json:"title"`
	Channel           string         `json:"channel"`
	ChannelURL        string         `json:"channel_url,omitempty"`
	Description       string         `json:"description,omitempty"`
	DurationSeconds   int64          `json:"duration"`
	Duration          string         `json:"duration_str"`
	Thumbnail         string         `json:"thumbnail,omitempty"`
	ViewCount         int64          `json:"view_count"`
	UploadDate        string         `json:"upload_date,omitempty"`
	Platform          Platform       `json:"platform"`
	Tags              []string       `json:"tags,omitempty"`
	Formats           []FormatOption `json:"formats"`
	DefaultResolution string         `json:"default_resolution"`
}
