package platform

import (
	"regexp"

	"github.com/clipkeep/clipkeep/internal/model"
)

// platformPattern pairs a platform with the URL patterns that identify it.
// The table is evaluated in order, first match wins.
type platformPattern struct {
	platform model.Platform
	patterns []*regexp.Regexp
}

var platformTable = []platformPattern{
	{model.PlatformYouTube, compileAll(
		`(?i)(?:^|\.)youtube\.com/`,
		`(?i)(?:^|\.)youtu\.be/`,
	)},
	{model.PlatformTikTok, compileAll(`(?i)(?:^|\.)tiktok\.com/`)},
	{model.PlatformInstagram, compileAll(`(?i)(?:^|\.)instagram\.com/`)},
	{model.PlatformFacebook, compileAll(
		`(?i)(?:^|\.)facebook\.com/`,
		`(?i)(?:^|\.)fb\.watch/`,
	)},
	{model.PlatformTwitter, compileAll(
		`(?i)(?:^|\.)twitter\.com/`,
		`(?i)(?:^|\.)x\.com/`,
	)},
	{model.PlatformVimeo, compileAll(`(?i)(?:^|\.)vimeo\.com/`)},
	{model.PlatformSoundCloud, compileAll(`(?i)(?:^|\.)soundcloud\.com/`)},
}

var reHTTPURL = regexp.MustCompile(`(?i)^https?://\S+$`)

// hostPart strips the scheme so host-anchored patterns match consistently
var reScheme = regexp.MustCompile(`(?i)^https?://`)

func compileAll(patterns ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		res = append(res, regexp.MustCompile(p))
	}
	return res
}

// DetectPlatform maps a URL to its content platform, or PlatformOther when no
// pattern matches.
func DetectPlatform(url string) model.Platform {
	rest := reScheme.ReplaceAllString(url, "")
	for _, entry := range platformTable {
		for _, re := range entry.patterns {
			if re.MatchString(rest) {
				return entry.platform
			}
		}
	}
	return model.PlatformOther
}

// IsSupportedURL reports whether the input is worth handing to the extraction
// tool: a known platform URL or at least a generic http(s) URL.
func IsSupportedURL(url string) bool {
	return reHTTPURL.MatchString(url)
}
