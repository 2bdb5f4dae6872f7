package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/viper373/videostation/internal/models"
)

// DirectoryStats summarizes one prefix subtree: how many playable videos it
// holds and when it last changed.
type DirectoryStats struct {
	Name        string
	Path        string
	VideoCount  int
	LastUpdated time.Time
}

// StatsCollector computes DirectoryStats with a full (non-delimited)
// listing of the prefix subtree. Results are cached per prefix for the
// process lifetime; the rollup is advisory display data.
type StatsCollector struct {
	client  ListClient
	bucket  string
	maxKeys int32

	mu    sync.Mutex
	cache map[string]DirectoryStats
}

// NewStatsCollector returns a collector over the given listing client.
func NewStatsCollector(client ListClient, bucket string, maxKeys int32) *StatsCollector {
	return &StatsCollector{
		client:  client,
		bucket:  bucket,
		maxKeys: maxKeys,
		cache:   make(map[string]DirectoryStats),
	}
}

// Collect walks the whole subtree under prefix, counting video objects and
// tracking the newest LastModified. The listing omits the delimiter so one
// token loop covers every descendant.
func (sc *StatsCollector) Collect(ctx context.Context, prefix string) (DirectoryStats, error) {
	prefix = normalizePrefix(prefix)

	sc.mu.Lock()
	if stats, ok := sc.cache[prefix]; ok {
		sc.mu.Unlock()
		return stats, nil
	}
	sc.mu.Unlock()

	stats := DirectoryStats{
		Name: prefixName(prefix),
		Path: prefix,
	}

	var token *string
	for {
		input := &s3.ListObjectsV2Input{
			Bucket:            aws.String(sc.bucket),
			MaxKeys:           aws.Int32(sc.maxKeys),
			ContinuationToken: token,
		}
		if prefix != "" {
			input.Prefix = aws.String(prefix)
		}

		out, err := sc.client.ListObjectsV2(ctx, input)
		if err != nil {
			return DirectoryStats{}, fmt.Errorf("stats %q: %w", prefix, err)
		}

		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || key == prefix {
				continue
			}
			if models.ClassifyFileName(key) != models.FileTypeVideo {
				continue
			}
			stats.VideoCount++
			if mod := aws.ToTime(obj.LastModified); mod.After(stats.LastUpdated) {
				stats.LastUpdated = mod
			}
		}

		if out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}

	sc.mu.Lock()
	sc.cache[prefix] = stats
	sc.mu.Unlock()
	return stats, nil
}

// prefixName returns the last segment of a prefix, or the prefix itself for
// the root.
func prefixName(prefix string) string {
	parts := models.SplitKey(prefix)
	if len(parts) == 0 {
		return prefix
	}
	return parts[len(parts)-1]
}
