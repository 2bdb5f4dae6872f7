package storage

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/viper373/videostation/internal/config"
)

// LinkBuilder derives thumbnail and playback URLs from an entry's identity.
// Both derivations are pure functions of (author, title, key) so the UI can
// recompute them at any time.
type LinkBuilder struct {
	thumbs  config.ThumbnailConfig
	storage config.StorageConfig
}

// NewLinkBuilder returns a builder for the configured CDN and endpoint.
func NewLinkBuilder(cfg *config.Config) *LinkBuilder {
	return &LinkBuilder{thumbs: cfg.Thumbnails, storage: cfg.Storage}
}

// ThumbnailURL returns {imgCdn}/{ghOwner}/{ghRepo}/{author}/{title}.jpg with
// author and title URL-encoded. Falls back to a deterministic placeholder
// when either part is missing.
func (b *LinkBuilder) ThumbnailURL(author, title string) string {
	if b.thumbs.ImgCDN == "" || author == "" || title == "" {
		return PlaceholderImage(author + "/" + title)
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s.jpg",
		strings.TrimSuffix(b.thumbs.ImgCDN, "/"),
		b.thumbs.GhOwner,
		b.thumbs.GhRepo,
		url.PathEscape(author),
		url.PathEscape(title))
}

// MediaURL returns the playback URL for an object key: the storage endpoint
// with the public domain substituted for the raw one, plus the URL-encoded
// key. The bucket name is not part of the path; the custom domain fronts
// the bucket directly.
func (b *LinkBuilder) MediaURL(key string) string {
	endpoint := strings.TrimSuffix(b.storage.Endpoint, "/")
	custom := b.storage.CustomDomain
	if custom == "" {
		custom = b.storage.Domain
	}
	if b.storage.Domain != "" && custom != "" {
		endpoint = strings.Replace(endpoint, b.storage.Domain, custom, 1)
	}
	return endpoint + "/" + url.PathEscape(key)
}

var placeholderColors = []string{"#2c3e50", "#34495e", "#7f8c8d", "#95a5a6"}

// PlaceholderImage returns an inline SVG data URL for entries with no
// derivable thumbnail. The fill color is a stable hash of the key so the
// same entry always renders the same tile.
func PlaceholderImage(key string) string {
	var hash int32
	for _, r := range key {
		hash = r + (hash << 5) - hash
	}
	if hash < 0 {
		hash = -hash
	}
	color := placeholderColors[int(hash)%len(placeholderColors)]

	label := key
	if idx := strings.LastIndex(label, "/"); idx >= 0 {
		label = label[idx+1:]
	}
	if len(label) > 12 {
		label = label[:12]
	}

	svg := fmt.Sprintf("<svg xmlns='http://www.w3.org/2000/svg' width='1600' height='900' viewBox='0 0 16 9' preserveAspectRatio='none'><rect width='16' height='9' fill='%s'/><text x='50%%' y='50%%' dominant-baseline='middle' text-anchor='middle' font-family='system-ui, sans-serif' font-size='1.5' fill='#fff'>%s</text></svg>",
		color, label)
	return "data:image/svg+xml," + url.PathEscape(svg)
}
