// Package platform contains platform integration helpers: content-platform
// detection from URLs, filesystem-safe name handling, duration formatting,
// and OS reveal/open glue.
package platform
