package metadata

import (
	"context"
	"sync"

	"github.com/viper373/videostation/internal/config"
	"github.com/viper373/videostation/internal/logging"
	"github.com/viper373/videostation/internal/models"
)

// Aggregator fetches per-author metadata in bounded batches and joins the
// records onto crawled file entries by (author, title). Missing or failed
// metadata leaves entries on their sentinel defaults; nothing here is ever
// fatal to a crawl.
type Aggregator struct {
	fetcher   *Fetcher
	log       *logging.Logger
	batchSize int
}

// NewAggregator wires an aggregator onto a fetcher.
func NewAggregator(fetcher *Fetcher, log *logging.Logger, cfg *config.Config) *Aggregator {
	return &Aggregator{
		fetcher:   fetcher,
		log:       log,
		batchSize: cfg.Metadata.BatchSize,
	}
}

// AttachMetadata fills entry metadata in place for every file entry whose
// (author, name) has a record, and returns the index it built. Authors are
// processed in fixed-size batches; each batch's fetches run concurrently
// and the whole batch completes before the next starts.
func (a *Aggregator) AttachMetadata(ctx context.Context, entries []models.Entry) *models.MetadataIndex {
	authors := distinctAuthors(entries)
	idx := a.fetchAuthors(ctx, authors)

	for i := range entries {
		e := &entries[i]
		if e.IsDirectory || e.Author == "" {
			continue
		}
		if rec, ok := idx.Lookup(e.Author, e.Name); ok {
			e.AttachMetadata(rec.Duration, rec.VideoViews)
		}
	}
	return idx
}

// fetchAuthors builds a MetadataIndex covering the given authors. The
// batch size is the concurrency ceiling: simple admission control, not a
// worker pool. Per-author failures are logged and skipped so one flaky
// author never blocks the rest.
func (a *Aggregator) fetchAuthors(ctx context.Context, authors []string) *models.MetadataIndex {
	idx := models.NewMetadataIndex()
	var mu sync.Mutex

	for start := 0; start < len(authors); start += a.batchSize {
		end := start + a.batchSize
		if end > len(authors) {
			end = len(authors)
		}

		var wg sync.WaitGroup
		for _, author := range authors[start:end] {
			wg.Add(1)
			go func(author string) {
				defer wg.Done()
				records, err := a.FetchAuthor(ctx, author)
				if err != nil {
					a.log.Warnf("metadata for %q unavailable: %v", author, err)
					return
				}
				mu.Lock()
				for _, rec := range records {
					idx.Add(rec)
				}
				mu.Unlock()
			}(author)
		}
		wg.Wait()

		if ctx.Err() != nil {
			break
		}
	}
	return idx
}

// FetchAuthor returns the records for one author. A non-success response
// status means no metadata is available and yields an empty slice, not an
// error; only transport-level failures (after retries) error out.
func (a *Aggregator) FetchAuthor(ctx context.Context, author string) ([]models.VideoRecord, error) {
	resp, err := a.fetcher.Fetch(ctx, a.fetcher.CatalogURL(author))
	if err != nil {
		return nil, err
	}
	if resp.Status != models.CatalogStatusSuccess {
		return nil, nil
	}
	return resp.Data, nil
}

// LoadCatalog fetches the entire metadata catalog (no author filter) once
// and indexes it. Root-level search uses this to cover videos whose
// prefixes were never crawled.
func (a *Aggregator) LoadCatalog(ctx context.Context) (*models.MetadataIndex, error) {
	idx := models.NewMetadataIndex()

	resp, err := a.fetcher.Fetch(ctx, a.fetcher.CatalogURL(""))
	if err != nil {
		return idx, err
	}
	if resp.Status != models.CatalogStatusSuccess {
		return idx, nil
	}
	for _, rec := range resp.Data {
		idx.Add(rec)
	}
	return idx, nil
}

// distinctAuthors collects the unique non-empty authors among file
// entries, in first-seen order.
func distinctAuthors(entries []models.Entry) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		if e.IsDirectory || e.Author == "" || seen[e.Author] {
			continue
		}
		seen[e.Author] = true
		out = append(out, e.Author)
	}
	return out
}
