// Package download runs the single background download job built on top of
// yt-dlp (via github.com/lrstanley/go-ytdlp). At most one job is active at a
// time; its state is observed by polling a snapshot and it can be cancelled
// mid-flight. Audio jobs get a transcode phase that extracts an mp3 from the
// downloaded source.
package download
