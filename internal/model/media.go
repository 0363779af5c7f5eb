package model

import "time"

// Platform identifies the content platform a media item came from
type Platform string

const (
	PlatformYouTube    Platform = "youtube"
	PlatformTikTok     Platform = "tiktok"
	PlatformInstagram  Platform = "instagram"
	PlatformFacebook   Platform = "facebook"
	PlatformTwitter    Platform = "twitter"
	PlatformVimeo      Platform = "vimeo"
	PlatformSoundCloud Platform = "soundcloud"
	PlatformOther      Platform = "other"
)

// FileKind describes which media stream a stored file carries
type FileKind string

const (
	FileKindVideo FileKind = "video"
	FileKindAudio FileKind = "audio"
)

// FileEntry is one on-disk media file belonging to a MediaItem. An item may
// hold both a video and an audio file at the same time.
type FileEntry struct {
	Kind     FileKind `json:"kind"`
	Filename string   `json:"filename"`
	Folder   string   `json:"folder"`
}

// MediaItem is one catalog entry: a downloaded or link-saved piece of content.
// It is persisted as the sidecar record metadata/<id>.json; HasVideo, HasAudio
// and LinkOnly are derived from Files and recomputed on every write.
type MediaItem struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Channel         string      `json:"channel"`
	ChannelURL      string      `json:"channel_url,omitempty"`
	Description     string      `json:"description,omitempty"`
	DurationSeconds int64       `json:"duration_seconds"`
	Duration        string      `json:"duration"`
	Thumbnail       string      `json:"thumbnail,omitempty"`
	LocalThumbnail  bool        `json:"local_thumbnail"`
	SourceURL       string      `json:"source_url"`
	Platform        Platform    `json:"platform"`
	Folder          string      `json:"folder"`
	Filename        string      `json:"filename,omitempty"`
	Files           []FileEntry `json:"files,omitempty"`
	HasVideo        bool        `json:"has_video"`
	HasAudio        bool        `json:"has_audio"`
	LinkOnly        bool        `json:"link_only"`
	Tags            []string    `json:"tags,omitempty"`
	SavedAt         time.Time   `json:"saved_at"`
}

// Normalize recomputes the derived fields from Files. The first file entry is
// the primary one: it supplies Folder and Filename for single-file views.
func (m *MediaItem) Normalize() {
	m.HasVideo = false
	m.HasAudio = false
	for _, f := range m.Files {
		switch f.Kind {
		case FileKindVideo:
			m.HasVideo = true
		case FileKindAudio:
			m.HasAudio = true
		}
	}
	m.LinkOnly = len(m.Files) == 0
	if len(m.Files) > 0 {
		m.Folder = m.Files[0].Folder
		m.Filename = m.Files[0].Filename
	} else {
		m.Filename = ""
	}
	if m.Platform == "" {
		m.Platform = PlatformOther
	}
}

// FileOfKind returns the file entry carrying the given stream, if any.
func (m *MediaItem) FileOfKind(kind FileKind) (FileEntry, bool) {
	for _, f := range m.Files {
		if f.Kind == kind {
			return f, true
		}
	}
	return FileEntry{}, false
}

// Valid reports whether a sidecar record parsed from disk is usable.
// Records failing this are treated as missing, never silently defaulted.
func (m *MediaItem) Valid() bool {
	return m.ID != "" && m.SourceURL != "" && m.Folder != ""
}
