// Package model defines domain data structures used across the app: media
// items and their sidecar records, folders, probe results, the download job
// status enum, and the shared error kinds every boundary maps onto.
package model
