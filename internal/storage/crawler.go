package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/singleflight"

	"github.com/viper373/videostation/internal/config"
	"github.com/viper373/videostation/internal/logging"
	"github.com/viper373/videostation/internal/models"
)

// Crawler lists bucket prefixes with delimiter-based pagination and fills
// the directory cache. Concurrent crawls of the same prefix collapse to a
// single listing via singleflight; everything else may interleave freely.
type Crawler struct {
	client ListClient
	cache  *DirectoryCache
	links  *LinkBuilder
	log    *logging.Logger

	bucket     string
	basePrefix string
	maxKeys    int32

	group singleflight.Group
}

// NewCrawler wires a crawler onto an injected cache and listing client.
func NewCrawler(client ListClient, cache *DirectoryCache, links *LinkBuilder, log *logging.Logger, cfg *config.Config) *Crawler {
	return &Crawler{
		client:     client,
		cache:      cache,
		links:      links,
		log:        log,
		bucket:     cfg.Storage.Bucket,
		basePrefix: normalizePrefix(cfg.Storage.BasePrefix),
		maxKeys:    cfg.Storage.MaxKeys,
	}
}

// normalizePrefix trims leading slashes and guarantees a trailing slash for
// non-empty prefixes, the shape the listing API expects.
func normalizePrefix(p string) string {
	p = strings.TrimLeft(p, "/")
	if p != "" && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// ResolvePrefix maps a user-facing path onto the configured base prefix.
// This is the single place the base-prefix rule is applied: an empty path
// resolves to the base prefix itself, a path already under the base prefix
// is kept as is, anything else is nested beneath it.
func (c *Crawler) ResolvePrefix(path string) string {
	path = normalizePrefix(path)
	if path == "" {
		return c.basePrefix
	}
	if c.basePrefix == "" || strings.HasPrefix(path, c.basePrefix) {
		return path
	}
	return c.basePrefix + path
}

// BasePrefix returns the normalized configured base prefix.
func (c *Crawler) BasePrefix() string {
	return c.basePrefix
}

// Crawl returns the immediate children of prefix, from cache when present.
// A completed listing is written to the cache before it is returned, and
// concurrent callers for the same prefix share one request sequence.
func (c *Crawler) Crawl(ctx context.Context, prefix string) ([]models.Entry, error) {
	if entries, ok := c.cache.Get(prefix); ok {
		return entries, nil
	}

	v, err, _ := c.group.Do(prefix, func() (interface{}, error) {
		// A waiter may have populated the cache while we queued.
		if entries, ok := c.cache.Get(prefix); ok {
			return entries, nil
		}
		entries, err := c.listPrefix(ctx, prefix)
		if err != nil {
			return nil, err
		}
		c.cache.Set(prefix, entries)
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Entry), nil
}

// listPrefix drives the continuation-token loop for one prefix. The loop is
// bounded only by the data: it terminates when the service stops returning
// a token, never after a fixed page count.
func (c *Crawler) listPrefix(ctx context.Context, prefix string) ([]models.Entry, error) {
	var dirs, files []models.Entry
	var token *string

	for {
		input := &s3.ListObjectsV2Input{
			Bucket:            aws.String(c.bucket),
			Delimiter:         aws.String("/"),
			MaxKeys:           aws.Int32(c.maxKeys),
			ContinuationToken: token,
		}
		if prefix != "" {
			input.Prefix = aws.String(prefix)
		}

		out, err := c.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", prefix, err)
		}

		for _, cp := range out.CommonPrefixes {
			dirKey := aws.ToString(cp.Prefix)
			if dirKey == "" {
				continue
			}
			parts := models.SplitKey(dirKey)
			dirs = append(dirs, models.Entry{
				Key:         dirKey,
				IsDirectory: true,
				Name:        parts[len(parts)-1],
			})
		}

		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			// The prefix itself comes back as a zero-byte directory marker.
			if key == "" || key == prefix || strings.HasSuffix(key, "/") {
				continue
			}
			files = append(files, c.fileEntry(key, aws.ToInt64(obj.Size), aws.ToTime(obj.LastModified)))
		}

		if out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}

	return append(dirs, files...), nil
}

func (c *Crawler) fileEntry(key string, size int64, lastModified time.Time) models.Entry {
	parts := models.SplitKey(key)
	fileName := parts[len(parts)-1]
	name := models.TitleFromKey(key)
	author := models.AuthorFromKey(key)

	return models.Entry{
		Key:          key,
		IsDirectory:  false,
		Name:         name,
		Author:       author,
		Size:         size,
		LastModified: lastModified,
		FileType:     models.ClassifyFileName(fileName),
		ThumbnailURL: c.links.ThumbnailURL(author, name),
		MediaURL:     c.links.MediaURL(key),
	}
}

// CrawlRecursive walks every prefix reachable from rootPrefix and returns
// the set of descendant prefixes discovered, sorted. The traversal is an
// explicit worklist over a visited set, so a prefix reached via two
// discovery paths is crawled once. A failing subdirectory is logged and
// skipped; its siblings still crawl and still populate the cache.
func (c *Crawler) CrawlRecursive(ctx context.Context, rootPrefix string) ([]string, error) {
	root := normalizePrefix(rootPrefix)
	visited := map[string]bool{root: true}
	var discovered []string

	worklist := []string{root}
	for len(worklist) > 0 {
		prefix := worklist[0]
		worklist = worklist[1:]

		entries, err := c.Crawl(ctx, prefix)
		if err != nil {
			if prefix == root {
				return nil, err
			}
			c.log.Warnf("crawl %q failed, skipping subtree: %v", prefix, err)
			continue
		}

		for _, entry := range entries {
			if !entry.IsDirectory || visited[entry.Key] {
				continue
			}
			visited[entry.Key] = true
			discovered = append(discovered, entry.Key)
			worklist = append(worklist, entry.Key)
		}

		if err := ctx.Err(); err != nil {
			return discovered, err
		}
	}

	sort.Strings(discovered)
	return discovered, nil
}
