// Package metadata talks to the per-author metadata service: a memoized
// retrying fetcher plus the aggregator that joins records onto crawled
// entries.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/singleflight"

	"github.com/viper373/videostation/internal/config"
	"github.com/viper373/videostation/internal/logging"
	"github.com/viper373/videostation/internal/models"
)

// retryLogger adapts the retryablehttp leveled logger onto ours. Only
// retry-worthy events are surfaced; per-request chatter stays silent.
type retryLogger struct {
	log *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Msgf("%s %v", msg, keysAndValues)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Msgf("%s %v", msg, keysAndValues)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {}

// Fetcher performs metadata requests with bounded retry and memoizes the
// parsed response per exact URL for the process lifetime. Metadata is
// advisory, so entries never expire. Concurrent fetches of the same URL
// collapse to one request.
//
// Fetcher is the only layer that surfaces network failures; every caller
// above it treats a failed fetch as "no metadata available".
type Fetcher struct {
	client  *retryablehttp.Client
	baseURL string
	path    string

	mu    sync.RWMutex
	cache map[string]*models.CatalogResponse
	group singleflight.Group
}

// NewFetcher builds a fetcher for the configured metadata endpoint. The
// retry budget and the x1.5 backoff growth come from the config.
func NewFetcher(cfg *config.Config, log *logging.Logger) *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.Metadata.RetryMax
	client.RetryWaitMin = cfg.Metadata.RetryBaseDelay
	client.RetryWaitMax = 10 * time.Second
	client.Logger = &retryLogger{log: log}
	client.Backoff = func(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
		wait := time.Duration(float64(min) * math.Pow(1.5, float64(attemptNum)))
		if wait > max {
			wait = max
		}
		return wait
	}

	return &Fetcher{
		client:  client,
		baseURL: strings.TrimSuffix(cfg.Metadata.APIBaseURL, "/"),
		path:    cfg.Metadata.CatalogPath,
		cache:   make(map[string]*models.CatalogResponse),
	}
}

// CatalogURL builds the request URL for one author, or for the full
// catalog when author is empty. Author encoding happens here so callers
// never hand-assemble query strings.
func (f *Fetcher) CatalogURL(author string) string {
	u := f.baseURL + f.path
	if author != "" {
		u += "?author=" + url.QueryEscape(strings.TrimSpace(author))
	}
	return u
}

// Fetch returns the parsed response for requestURL, from the memo cache
// when possible. On a miss it issues the request, retrying per the
// configured budget; the last error is returned once retries are spent.
func (f *Fetcher) Fetch(ctx context.Context, requestURL string) (*models.CatalogResponse, error) {
	f.mu.RLock()
	cached, ok := f.cache[requestURL]
	f.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := f.group.Do(requestURL, func() (interface{}, error) {
		f.mu.RLock()
		cached, ok := f.cache[requestURL]
		f.mu.RUnlock()
		if ok {
			return cached, nil
		}

		parsed, err := f.fetchOnce(ctx, requestURL)
		if err != nil {
			return nil, err
		}

		f.mu.Lock()
		f.cache[requestURL] = parsed
		f.mu.Unlock()
		return parsed, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.CatalogResponse), nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, requestURL string) (*models.CatalogResponse, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", requestURL, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", requestURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetch %s: unexpected status %d", requestURL, resp.StatusCode)
	}

	var parsed models.CatalogResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode %s: %w", requestURL, err)
	}
	return &parsed, nil
}

// CachedURLs reports how many distinct URLs have been memoized.
func (f *Fetcher) CachedURLs() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.cache)
}
