package probe

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/clipkeep/clipkeep/internal/model"
)

const infoFixture = `{
	"id": "abc123",
	"title": "Test Clip",
	"channel": "Test Channel",
	"channel_url": "https://youtube.com/@test",
	"description": "a clip #go #testing",
	"duration": 125,
	"thumbnail": "https://img.example/abc123.jpg",
	"view_count": 4200,
	"upload_date": "20250114",
	"extractor": "youtube",
	"formats": [
		{"height": 1080, "vcodec": "avc1", "ext": "mp4", "filesize": 1000},
		{"height": 720, "vcodec": "avc1", "ext": "mp4", "filesize_approx": 600},
		{"height": 480, "vcodec": "vp9", "ext": "webm"},
		{"height": 1080, "vcodec": "none", "ext": "m4a"},
		{"height": 999, "vcodec": "avc1", "ext": "mp4"}
	]
}`

func TestParseInfo_LadderAndDefault(t *testing.T) {
	info, err := parseInfo([]byte(infoFixture), "https://youtube.com/watch?v=abc123")
	if err != nil {
		t.Fatalf("parseInfo: %v", err)
	}

	if info.ID != "abc123" {
		t.Errorf("expected id abc123, got %q", info.ID)
	}
	if info.Platform != model.PlatformYouTube {
		t.Errorf("expected youtube, got %q", info.Platform)
	}
	if info.DefaultResolution != "1080p" {
		t.Errorf("expected default 1080p (highest available ladder rung), got %q", info.DefaultResolution)
	}
	if info.Duration != "2:05" {
		t.Errorf("expected duration 2:05, got %q", info.Duration)
	}
	if info.UploadDate != "2025-01-14" {
		t.Errorf("expected formatted upload date, got %q", info.UploadDate)
	}

	// Full ladder in canonical order, availability per source
	expected := map[string]bool{
		"2160p": false,
		"1440p": false,
		"1080p": true,
		"720p":  true,
		"480p":  true,
		"360p":  false,
	}
	if len(info.Formats) != len(CanonicalLadder) {
		t.Fatalf("expected %d ladder entries, got %d", len(CanonicalLadder), len(info.Formats))
	}
	for i, opt := range info.Formats {
		if opt.Resolution != CanonicalLadder[i] {
			t.Errorf("ladder order broken at %d: got %q", i, opt.Resolution)
		}
		if opt.Available != expected[opt.Resolution] {
			t.Errorf("%s availability = %v, expected %v", opt.Resolution, opt.Available, expected[opt.Resolution])
		}
	}
}

func TestParseInfo_FallbackResolution(t *testing.T) {
	fixture := `{"id":"x","title":"t","formats":[{"height":540,"vcodec":"avc1","ext":"mp4"}]}`
	info, err := parseInfo([]byte(fixture), "https://example.com/clip")
	if err != nil {
		t.Fatalf("parseInfo: %v", err)
	}
	if info.DefaultResolution != FallbackResolution {
		t.Errorf("expected fallback %s, got %q", FallbackResolution, info.DefaultResolution)
	}
	for _, opt := range info.Formats {
		if opt.Available {
			t.Errorf("off-ladder source must leave %s unavailable", opt.Resolution)
		}
	}
}

func TestParseInfo_HashtagFallbackAndGeneratedID(t *testing.T) {
	fixture := `{"title":"t","description":"see #first and #second","formats":[]}`
	info, err := parseInfo([]byte(fixture), "https://example.com/clip")
	if err != nil {
		t.Fatalf("parseInfo: %v", err)
	}
	if len(info.ID) != GeneratedIDLength {
		t.Errorf("expected %d-char generated id, got %q", GeneratedIDLength, info.ID)
	}
	if len(info.Tags) != 2 || info.Tags[0] != "first" || info.Tags[1] != "second" {
		t.Errorf("expected hashtag fallback tags, got %v", info.Tags)
	}
}

func TestParseInfo_MalformedJSON(t *testing.T) {
	if _, err := parseInfo([]byte("{nope"), "https://example.com"); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestProbe_InvalidURLFailsFast(t *testing.T) {
	s := NewService()
	// Point at a command that must never run; an invalid URL has to be
	// rejected before any subprocess is spawned.
	s.SetCommand("/nonexistent/yt-dlp")

	_, err := s.Probe(context.Background(), "not a url")
	if !errors.Is(err, model.ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
}

func TestGenerateIDFromURL_Stable(t *testing.T) {
	a := GenerateIDFromURL("https://example.com/v/1")
	b := GenerateIDFromURL("https://example.com/v/1")
	if a != b {
		t.Error("generated id must be stable for the same URL")
	}
	if a == GenerateIDFromURL("https://example.com/v/2") {
		t.Error("different URLs must not collide trivially")
	}
}

func TestInLadder(t *testing.T) {
	if !InLadder("1080p") {
		t.Error("1080p should be on the ladder")
	}
	if InLadder("999p") {
		t.Error("999p should not be on the ladder")
	}
}

func TestExtractorToPlatform(t *testing.T) {
	tests := []struct {
		extractor string
		expected  model.Platform
	}{
		{"youtube", model.PlatformYouTube},
		{"Instagram:story", model.PlatformInstagram},
		{"tiktok", model.PlatformTikTok},
		{"generic", model.PlatformOther},
		{"", model.PlatformOther},
	}
	for _, tt := range tests {
		if got := extractorToPlatform(tt.extractor); got != tt.expected {
			t.Errorf("extractorToPlatform(%q) = %q, expected %q", tt.extractor, got, tt.expected)
		}
	}
}
