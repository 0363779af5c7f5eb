package probe

import (
	"crypto/md5"
	"fmt"
	"strings"

	"github.com/duke-git/lancet/v2/slice"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/clipkeep/clipkeep/internal/model"
	"github.com/clipkeep/clipkeep/internal/platform"
)

// CanonicalLadder is the fixed set of resolution labels offered to the user,
// highest first. Sources may carry other resolutions; those are not offered.
var CanonicalLadder = []string{"2160p", "1440p", "1080p", "720p", "480p", "360p"}

// FallbackResolution is used when a source offers nothing on the ladder
const FallbackResolution = "720p"

// GeneratedIDLength bounds the hash id used when the extractor provides none
const GeneratedIDLength = 12

var ladderHeights = map[string]int64{
	"2160p": 2160,
	"1440p": 1440,
	"1080p": 1080,
	"720p":  720,
	"480p":  480,
	"360p":  360,
}

// InLadder reports whether a resolution label is part of the canonical ladder
func InLadder(resolution string) bool {
	return slice.Contain(CanonicalLadder, resolution)
}

// GenerateIDFromURL derives a stable fallback id for sources whose extractor
// does not expose one.
func GenerateIDFromURL(url string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(url)))[:GeneratedIDLength]
}

// parseInfo reduces a yt-dlp info JSON document to the probe result
func parseInfo(data []byte, url string) (*model.VideoInfo, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("extraction tool returned malformed JSON")
	}
	root := gjson.ParseBytes(data)

	// Best format per height, video streams only
	type sourceFormat struct {
		ext      string
		filesize int64
	}
	byHeight := make(map[int64]sourceFormat)
	root.Get("formats").ForEach(func(_, f gjson.Result) bool {
		height := f.Get("height").Int()
		if height == 0 || f.Get("vcodec").String() == "none" {
			return true
		}
		size := f.Get("filesize").Int()
		if size == 0 {
			size = f.Get("filesize_approx").Int()
		}
		if cur, ok := byHeight[height]; !ok || (cur.filesize == 0 && size > 0) {
			byHeight[height] = sourceFormat{ext: f.Get("ext").String(), filesize: size}
		}
		return true
	})

	formats := make([]model.FormatOption, 0, len(CanonicalLadder))
	defaultResolution := ""
	for _, label := range CanonicalLadder {
		height := ladderHeights[label]
		src, ok := byHeight[height]
		opt := model.FormatOption{
			Resolution: label,
			Height:     height,
			Available:  ok,
		}
		if ok {
			opt.Ext = src.ext
			opt.Filesize = src.filesize
			if defaultResolution == "" {
				defaultResolution = label
			}
		}
		formats = append(formats, opt)
	}
	if defaultResolution == "" {
		defaultResolution = FallbackResolution
	}

	id := root.Get("id").String()
	if id == "" {
		id = GenerateIDFromURL(url)
	}

	channel := root.Get("channel").String()
	if channel == "" {
		channel = root.Get("uploader").String()
	}
	channelURL := root.Get("channel_url").String()
	if channelURL == "" {
		channelURL = root.Get("uploader_url").String()
	}

	description := root.Get("description").String()
	var tags []string
	root.Get("tags").ForEach(func(_, t gjson.Result) bool {
		tags = append(tags, t.String())
		return true
	})
	if len(tags) == 0 {
		tags = platform.ExtractHashtags(description)
	}

	detected := extractorToPlatform(root.Get("extractor").String())
	if detected == model.PlatformOther {
		detected = platform.DetectPlatform(url)
	}

	duration := root.Get("duration").Int()
	return &model.VideoInfo{
		ID:                id,
		URL:               url,
		Title:             stringOr(root.Get("title").String(), "Unknown"),
		Channel:           stringOr(channel, "Unknown"),
		ChannelURL:        channelURL,
		Description:       description,
		DurationSeconds:   duration,
		Duration:          platform.FormatDuration(duration),
		Thumbnail:         root.Get("thumbnail").String(),
		ViewCount:         root.Get("view_count").Int(),
		UploadDate:        formatUploadDate(root.Get("upload_date").String()),
		Platform:          detected,
		Tags:              tags,
		Formats:           formats,
		DefaultResolution: defaultResolution,
	}, nil
}

// extractorToPlatform maps a yt-dlp extractor name ("youtube",
// "instagram:story", ...) onto the platform enum, partial match allowed.
func extractorToPlatform(extractor string) model.Platform {
	extractor = strings.ToLower(extractor)
	if extractor == "" {
		return model.PlatformOther
	}
	known := []model.Platform{
		model.PlatformYouTube,
		model.PlatformTikTok,
		model.PlatformInstagram,
		model.PlatformFacebook,
		model.PlatformTwitter,
		model.PlatformVimeo,
		model.PlatformSoundCloud,
	}
	for _, p := range known {
		if strings.Contains(extractor, string(p)) {
			return p
		}
	}
	return model.PlatformOther
}

// formatUploadDate turns yt-dlp's YYYYMMDD into YYYY-MM-DD
func formatUploadDate(d string) string {
	if len(d) != 8 {
		return d
	}
	return d[:4] + "-" + d[4:6] + "-" + d[6:8]
}

func stringOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
