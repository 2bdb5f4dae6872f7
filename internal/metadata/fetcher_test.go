package metadata

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/viper373/videostation/internal/config"
	"github.com/viper373/videostation/internal/logging"
)

func testFetcherConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.Metadata.APIBaseURL = baseURL
	cfg.Metadata.RetryBaseDelay = 5 * time.Millisecond
	return cfg
}

func newTestFetcher(baseURL string) *Fetcher {
	return NewFetcher(testFetcherConfig(baseURL), logging.NewLogger(io.Discard))
}

const catalogBody = `{"status":"success","data":[
	{"author":"John","video_title":"Ride","video_views":12,"duration":"03:15"}
]}`

// TestFetchParsesEnvelope verifies a successful response decodes into the
// catalog envelope.
func TestFetchParsesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, catalogBody)
	}))
	defer srv.Close()
	f := newTestFetcher(srv.URL)

	resp, err := f.Fetch(context.Background(), f.CatalogURL("John"))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if resp.Status != "success" || len(resp.Data) != 1 {
		t.Fatalf("unexpected envelope %+v", resp)
	}
	rec := resp.Data[0]
	if rec.Author != "John" || rec.VideoTitle != "Ride" || rec.VideoViews != 12 || rec.Duration != "03:15" {
		t.Errorf("unexpected record %+v", rec)
	}
}

// TestFetchMemoizesPerURL verifies repeat fetches of the same URL hit the
// memo cache, while a different URL fetches again.
func TestFetchMemoizesPerURL(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		io.WriteString(w, catalogBody)
	}))
	defer srv.Close()
	f := newTestFetcher(srv.URL)

	for i := 0; i < 3; i++ {
		if _, err := f.Fetch(context.Background(), f.CatalogURL("John")); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected 1 upstream request, got %d", got)
	}

	if _, err := f.Fetch(context.Background(), f.CatalogURL("Jane")); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("distinct URL should fetch again, got %d requests", got)
	}
	if f.CachedURLs() != 2 {
		t.Errorf("CachedURLs() = %d, want 2", f.CachedURLs())
	}
}

// TestFetchRetriesThenSucceeds verifies transient server errors are
// retried within the budget and the eventual success is returned.
func TestFetchRetriesThenSucceeds(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 2 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		io.WriteString(w, catalogBody)
	}))
	defer srv.Close()
	f := newTestFetcher(srv.URL)

	resp, err := f.Fetch(context.Background(), f.CatalogURL("John"))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("status = %q", resp.Status)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

// TestFetchExhaustsRetryBudget verifies a persistently failing URL errors
// after the initial attempt plus two retries, and the failure is not
// cached.
func TestFetchExhaustsRetryBudget(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()
	f := newTestFetcher(srv.URL)

	if _, err := f.Fetch(context.Background(), f.CatalogURL("John")); err == nil {
		t.Fatal("expected error after retry budget")
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("expected 3 attempts (1 + 2 retries), got %d", got)
	}
	if f.CachedURLs() != 0 {
		t.Errorf("failures must not be memoized, CachedURLs() = %d", f.CachedURLs())
	}
}

// TestFetchSingleFlight verifies concurrent fetches of one URL share a
// single upstream request.
func TestFetchSingleFlight(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		time.Sleep(30 * time.Millisecond)
		io.WriteString(w, catalogBody)
	}))
	defer srv.Close()
	f := newTestFetcher(srv.URL)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.Fetch(context.Background(), f.CatalogURL("John")); err != nil {
				t.Errorf("Fetch() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected 1 shared request, got %d", got)
	}
}

// TestBackoffGrowth pins the base-delay x1.5 growth curve and its cap.
func TestBackoffGrowth(t *testing.T) {
	f := newTestFetcher("http://unused")

	base := 100 * time.Millisecond
	max := 10 * time.Second
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 150 * time.Millisecond},
		{2, 225 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := f.client.Backoff(base, max, tc.attempt, nil); got != tc.want {
			t.Errorf("Backoff(attempt %d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
	if got := f.client.Backoff(base, 120*time.Millisecond, 5, nil); got != 120*time.Millisecond {
		t.Errorf("Backoff should cap at max, got %v", got)
	}
}

// TestCatalogURL pins URL assembly and author encoding.
func TestCatalogURL(t *testing.T) {
	cfg := testFetcherConfig("https://api.example.com/")
	f := NewFetcher(cfg, logging.NewLogger(io.Discard))

	if got := f.CatalogURL(""); got != "https://api.example.com/api/xovideos" {
		t.Errorf("CatalogURL(\"\") = %q", got)
	}
	got := f.CatalogURL(" María & Co ")
	if !strings.HasPrefix(got, "https://api.example.com/api/xovideos?author=") {
		t.Fatalf("CatalogURL = %q", got)
	}
	if strings.Contains(got, " ") || strings.Contains(got, "&amp;") {
		t.Errorf("author not query-escaped: %q", got)
	}
	if !strings.Contains(got, "Mar%C3%ADa") {
		t.Errorf("expected percent-encoded author, got %q", got)
	}
}
