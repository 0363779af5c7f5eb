package platform

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

// File permissions
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)

// Command constants
const (
	OpenCommand     = "open"
	ExplorerCommand = "explorer"
	XDGOpenCommand  = "xdg-open"

	MacOSSelectFlag    = "-R"
	WindowsSelectParam = "/select,"
)

// Name constraints
const (
	MaxNameLength = 255
)

// Partial-download extensions the external tool leaves behind
var SkippedExtensions = []string{".part", ".ytdl", ".temp"}

// Media file extensions recognized as library content
var MediaExtensions = []string{".mp4", ".webm", ".mkv", ".mp3", ".m4a"}

var (
	reInvalidNameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	reHashtag          = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
)

// SanitizeName strips characters that are invalid in folder or file names on
// any supported OS, trims surrounding dots/whitespace, and bounds the length.
// Returns "" when nothing usable remains.
func SanitizeName(name string) string {
	s := reInvalidNameChars.ReplaceAllString(name, "")
	s = strings.Trim(s, ". \t\r\n")
	if len(s) > MaxNameLength {
		s = s[:MaxNameLength]
	}
	return s
}

// IsMediaFile reports whether the filename carries a recognized media extension
func IsMediaFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, m := range MediaExtensions {
		if ext == m {
			return true
		}
	}
	return false
}

// IsPartialFile reports whether the filename is an in-flight download artifact
func IsPartialFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, s := range SkippedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// UniquePath returns a path in dir for filename that does not collide with an
// existing file, suffixing the stem with _1, _2, ... so merging folders never
// overwrites.
func UniquePath(dir, filename string) string {
	target := filepath.Join(dir, filename)
	if _, err := os.Stat(target); os.IsNotExist(err) {
		return target
	}
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	for i := 1; ; i++ {
		target = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if _, err := os.Stat(target); os.IsNotExist(err) {
			return target
		}
	}
}

// FormatDuration renders seconds as H:MM:SS, or M:SS under an hour
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return "0:00"
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// ExtractHashtags pulls #tags out of free text, deduplicated case-insensitively
// while preserving the first-seen spelling and order.
func ExtractHashtags(text string) []string {
	if text == "" {
		return nil
	}
	matches := reHashtag.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	var tags []string
	for _, m := range matches {
		key := strings.ToLower(m[1])
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, m[1])
	}
	return tags
}

// RevealInFileManager opens the system file manager with the file selected
// where the OS supports selection, falling back to opening the parent dir.
func RevealInFileManager(filePath string) error {
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("file does not exist: %v", err)
	}
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return exec.Command(OpenCommand, MacOSSelectFlag, absPath).Run()
	case "windows":
		return exec.Command(ExplorerCommand, WindowsSelectParam, absPath).Run()
	default:
		return exec.Command(XDGOpenCommand, filepath.Dir(absPath)).Run()
	}
}

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}
