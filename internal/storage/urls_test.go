package storage

import (
	"strings"
	"testing"

	"github.com/viper373/videostation/internal/config"
)

func linkConfig() *config.Config {
	cfg := config.Default()
	cfg.Storage.Endpoint = "https://abc123.r2.cloudflarestorage.com"
	cfg.Storage.Domain = "abc123.r2.cloudflarestorage.com"
	cfg.Storage.CustomDomain = "videos.example.com"
	cfg.Thumbnails.ImgCDN = "https://cdn.example.com"
	cfg.Thumbnails.GhOwner = "owner"
	cfg.Thumbnails.GhRepo = "repo"
	return cfg
}

// TestThumbnailURL verifies the CDN path shape and that author/title are
// URL-encoded exactly once.
func TestThumbnailURL(t *testing.T) {
	b := NewLinkBuilder(linkConfig())

	got := b.ThumbnailURL("María", "Best Clip #1")
	want := "https://cdn.example.com/owner/repo/Mar%C3%ADa/Best%20Clip%20%231.jpg"
	if got != want {
		t.Errorf("ThumbnailURL = %q, want %q", got, want)
	}

	// Deterministic: same identity, same URL.
	if again := b.ThumbnailURL("María", "Best Clip #1"); again != got {
		t.Errorf("ThumbnailURL not deterministic: %q vs %q", again, got)
	}
}

// TestThumbnailURLFallsBack verifies missing identity parts degrade to the
// placeholder instead of a broken URL.
func TestThumbnailURLFallsBack(t *testing.T) {
	b := NewLinkBuilder(linkConfig())

	for _, tc := range [][2]string{{"", "title"}, {"author", ""}} {
		got := b.ThumbnailURL(tc[0], tc[1])
		if !strings.HasPrefix(got, "data:image/svg+xml,") {
			t.Errorf("ThumbnailURL(%q, %q) = %q, want placeholder", tc[0], tc[1], got)
		}
	}

	noCDN := config.Default()
	b = NewLinkBuilder(noCDN)
	if got := b.ThumbnailURL("author", "title"); !strings.HasPrefix(got, "data:image/svg+xml,") {
		t.Errorf("missing CDN should fall back, got %q", got)
	}
}

// TestMediaURL verifies the custom-domain substitution and key encoding.
func TestMediaURL(t *testing.T) {
	b := NewLinkBuilder(linkConfig())

	got := b.MediaURL("XOVideos/María/Best Clip.mp4")
	want := "https://videos.example.com/XOVideos%2FMar%C3%ADa%2FBest%20Clip.mp4"
	if got != want {
		t.Errorf("MediaURL = %q, want %q", got, want)
	}
}

// TestMediaURLNoCustomDomain verifies the raw endpoint is used untouched
// when no public domain is configured.
func TestMediaURLNoCustomDomain(t *testing.T) {
	cfg := linkConfig()
	cfg.Storage.CustomDomain = ""
	b := NewLinkBuilder(cfg)

	got := b.MediaURL("a/b.mp4")
	if !strings.HasPrefix(got, "https://abc123.r2.cloudflarestorage.com/") {
		t.Errorf("MediaURL = %q, want raw endpoint", got)
	}
}

// TestPlaceholderImage verifies determinism and the embedded label.
func TestPlaceholderImage(t *testing.T) {
	a := PlaceholderImage("Alice/clip")
	if a != PlaceholderImage("Alice/clip") {
		t.Error("placeholder not deterministic")
	}
	if !strings.HasPrefix(a, "data:image/svg+xml,") {
		t.Errorf("placeholder = %q, want data URL", a)
	}
	if !strings.Contains(a, "clip") {
		t.Errorf("placeholder should carry the last key segment, got %q", a)
	}

	// Long labels are truncated so the tile stays readable.
	long := PlaceholderImage("Alice/a very long clip title")
	if strings.Contains(long, "a%20very%20long%20clip%20title") {
		t.Error("label not truncated")
	}
}
