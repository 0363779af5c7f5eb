// Package library maintains the on-disk media catalog: media files under
// videos/<folder>/, one JSON sidecar per item under metadata/, and cached
// thumbnails under thumbnails/. The sidecar is the source of truth for
// everything except the bytes of the media files themselves.
package library
