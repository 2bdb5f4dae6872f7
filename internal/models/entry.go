// Package models defines the data types shared by the crawler, the metadata
// aggregator, and the search engine.
package models

import (
	"path"
	"strings"
	"time"
)

// FileType classifies an entry by its filename extension.
type FileType string

const (
	FileTypeVideo FileType = "video"
	FileTypeImage FileType = "image"
	FileTypeOther FileType = "file"
)

var videoExtensions = map[string]bool{
	"mp4": true, "webm": true, "ogg": true, "mov": true, "avi": true, "mkv": true,
}

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true, "svg": true,
}

// ClassifyFileName returns the FileType for a bare filename.
func ClassifyFileName(fileName string) FileType {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fileName), "."))
	switch {
	case videoExtensions[ext]:
		return FileTypeVideo
	case imageExtensions[ext]:
		return FileTypeImage
	default:
		return FileTypeOther
	}
}

// DefaultDuration is the sentinel shown when no metadata record matched an
// entry. Absence of metadata is the normal state, never an error.
const DefaultDuration = "N/A"

// EntryMetadata holds the advisory per-video metadata joined from the
// metadata service.
type EntryMetadata struct {
	Duration string `json:"duration"`
	Views    int64  `json:"views"`
}

// Entry is a single file or directory record produced by a crawl.
//
// Key is the only stable identity; every derived field (Name, Author,
// ThumbnailURL, MediaURL) is recomputable from it. Entries are immutable
// once created except for Metadata, which is attached at most once.
type Entry struct {
	// Key is the full object key (directories keep their trailing slash).
	Key         string `json:"key"`
	IsDirectory bool   `json:"isDirectory"`
	// Name is the last path segment, extension-stripped for files.
	Name string `json:"name"`
	// Author is the parent directory name (second-to-last key segment).
	// Empty for top-level objects and directories without a parent.
	Author string `json:"author,omitempty"`

	Size         int64     `json:"size,omitempty"`
	LastModified time.Time `json:"lastModified,omitzero"`

	// Derived URLs; advisory, always re-derivable from Key.
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	MediaURL     string `json:"mediaUrl,omitempty"`

	FileType FileType `json:"fileType,omitempty"`

	// Metadata is nil until the aggregator attaches it.
	Metadata *EntryMetadata `json:"metadata,omitempty"`
}

// AttachMetadata sets the entry's metadata. The attach is idempotent: the
// same key always carries the same values, so a second write is a no-op.
func (e *Entry) AttachMetadata(duration string, views int64) {
	if e.Metadata != nil {
		return
	}
	e.Metadata = &EntryMetadata{Duration: duration, Views: views}
}

// Duration returns the attached duration or the "N/A" sentinel.
func (e *Entry) Duration() string {
	if e.Metadata == nil {
		return DefaultDuration
	}
	return e.Metadata.Duration
}

// Views returns the attached view count or zero.
func (e *Entry) Views() int64 {
	if e.Metadata == nil {
		return 0
	}
	return e.Metadata.Views
}

// SplitKey breaks an object key into its non-empty path segments.
func SplitKey(key string) []string {
	parts := strings.Split(key, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// AuthorFromKey derives the author grouping from a file key: the directory
// name one level above the file. Returns "" for top-level keys.
func AuthorFromKey(key string) string {
	parts := SplitKey(key)
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

// TitleFromKey derives a file's display name from its key: the filename
// with the extension stripped.
func TitleFromKey(key string) string {
	parts := SplitKey(key)
	if len(parts) == 0 {
		return ""
	}
	fileName := parts[len(parts)-1]
	return strings.TrimSuffix(fileName, path.Ext(fileName))
}
