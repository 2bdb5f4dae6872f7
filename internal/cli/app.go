package cli

import (
	"context"
	"fmt"

	"github.com/viper373/videostation/internal/config"
	"github.com/viper373/videostation/internal/metadata"
	"github.com/viper373/videostation/internal/search"
	"github.com/viper373/videostation/internal/storage"
)

// app bundles the wired engine components for one command invocation.
// Everything hangs off injected values; no command touches package globals
// beyond the flags.
type app struct {
	cfg        *config.Config
	cache      *storage.DirectoryCache
	crawler    *storage.Crawler
	stats      *storage.StatsCollector
	aggregator *metadata.Aggregator
	engine     *search.Engine
}

// newApp loads configuration and wires the component graph.
func newApp(ctx context.Context) (*app, error) {
	path := cfgFile
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewS3Client(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init storage client: %w", err)
	}

	cache := storage.NewDirectoryCache()
	links := storage.NewLinkBuilder(cfg)
	crawler := storage.NewCrawler(client, cache, links, logger, cfg)
	stats := storage.NewStatsCollector(client, cfg.Storage.Bucket, cfg.Storage.MaxKeys)

	fetcher := metadata.NewFetcher(cfg, logger)
	aggregator := metadata.NewAggregator(fetcher, logger, cfg)

	engine := search.NewEngine(cfg.Search.MaxResults)

	return &app{
		cfg:        cfg,
		cache:      cache,
		crawler:    crawler,
		stats:      stats,
		aggregator: aggregator,
		engine:     engine,
	}, nil
}
