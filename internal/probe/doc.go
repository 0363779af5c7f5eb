// Package probe implements the read-only metadata prober: it validates a URL,
// asks yt-dlp for the info JSON without downloading, and reduces the offered
// formats to the canonical resolution ladder the UI presents.
package probe
