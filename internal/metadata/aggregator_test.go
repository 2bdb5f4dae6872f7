package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/viper373/videostation/internal/logging"
	"github.com/viper373/videostation/internal/models"
)

// catalogServer serves per-author records and tracks request concurrency.
type catalogServer struct {
	records map[string][]models.VideoRecord
	fail    map[string]bool
	delay   time.Duration

	inFlight int32
	peak     int32
}

func (c *catalogServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := atomic.AddInt32(&c.inFlight, 1)
		defer atomic.AddInt32(&c.inFlight, -1)
		for {
			peak := atomic.LoadInt32(&c.peak)
			if cur <= peak || atomic.CompareAndSwapInt32(&c.peak, peak, cur) {
				break
			}
		}
		if c.delay > 0 {
			time.Sleep(c.delay)
		}

		author := r.URL.Query().Get("author")
		if c.fail[author] {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}

		var data []models.VideoRecord
		if author == "" {
			for _, recs := range c.records {
				data = append(data, recs...)
			}
		} else {
			data = c.records[author]
		}
		json.NewEncoder(w).Encode(models.CatalogResponse{
			Status: models.CatalogStatusSuccess,
			Data:   data,
		})
	})
}

func newTestAggregator(baseURL string) *Aggregator {
	cfg := testFetcherConfig(baseURL)
	log := logging.NewLogger(io.Discard)
	return NewAggregator(NewFetcher(cfg, log), log, cfg)
}

func videoEntry(author, name string) models.Entry {
	return models.Entry{
		Key:      author + "/" + name + ".mp4",
		Name:     name,
		Author:   author,
		FileType: models.FileTypeVideo,
	}
}

// TestAttachMetadataJoins verifies records join onto entries by
// (author, title) and unmatched entries keep their sentinel defaults.
func TestAttachMetadataJoins(t *testing.T) {
	cs := &catalogServer{records: map[string][]models.VideoRecord{
		"John": {
			{Author: "John", VideoTitle: "Ride", VideoViews: 12, Duration: "03:15"},
		},
	}}
	srv := httptest.NewServer(cs.handler())
	defer srv.Close()
	agg := newTestAggregator(srv.URL)

	entries := []models.Entry{
		{Key: "John/", Name: "John", IsDirectory: true},
		videoEntry("John", "Ride"),
		videoEntry("John", "Unlisted"),
	}

	idx := agg.AttachMetadata(context.Background(), entries)
	if idx.Len() != 1 {
		t.Errorf("index size = %d, want 1", idx.Len())
	}

	matched := entries[1]
	if matched.Duration() != "03:15" || matched.Views() != 12 {
		t.Errorf("matched entry metadata = %q/%d", matched.Duration(), matched.Views())
	}
	unmatched := entries[2]
	if unmatched.Duration() != models.DefaultDuration || unmatched.Views() != 0 {
		t.Errorf("unmatched entry should keep defaults, got %q/%d", unmatched.Duration(), unmatched.Views())
	}
	if entries[0].Metadata != nil {
		t.Error("directories never carry metadata")
	}
}

// TestAttachMetadataBatchCeiling verifies author fetches run at most
// batchSize at a time and every author is still fetched exactly once.
func TestAttachMetadataBatchCeiling(t *testing.T) {
	cs := &catalogServer{
		records: map[string][]models.VideoRecord{},
		delay:   20 * time.Millisecond,
	}
	var entries []models.Entry
	for i := 0; i < 7; i++ {
		author := fmt.Sprintf("author%d", i)
		cs.records[author] = []models.VideoRecord{
			{Author: author, VideoTitle: "clip", Duration: "01:00"},
		}
		entries = append(entries, videoEntry(author, "clip"))
	}
	srv := httptest.NewServer(cs.handler())
	defer srv.Close()
	agg := newTestAggregator(srv.URL)

	idx := agg.AttachMetadata(context.Background(), entries)
	if idx.Len() != 7 {
		t.Errorf("index size = %d, want 7", idx.Len())
	}
	if peak := atomic.LoadInt32(&cs.peak); peak > int32(agg.batchSize) {
		t.Errorf("peak concurrency %d exceeds batch size %d", peak, agg.batchSize)
	}
	for i := range entries {
		if entries[i].Duration() != "01:00" {
			t.Errorf("entry %d not joined: %q", i, entries[i].Duration())
		}
	}
}

// TestAttachMetadataFailedAuthorIsolated verifies a persistently failing
// author leaves its entries on defaults without blocking other authors.
func TestAttachMetadataFailedAuthorIsolated(t *testing.T) {
	cs := &catalogServer{
		records: map[string][]models.VideoRecord{
			"Good": {{Author: "Good", VideoTitle: "clip", VideoViews: 5, Duration: "02:00"}},
		},
		fail: map[string]bool{"Bad": true},
	}
	srv := httptest.NewServer(cs.handler())
	defer srv.Close()
	agg := newTestAggregator(srv.URL)

	entries := []models.Entry{
		videoEntry("Bad", "clip"),
		videoEntry("Good", "clip"),
	}
	agg.AttachMetadata(context.Background(), entries)

	if entries[0].Duration() != models.DefaultDuration || entries[0].Views() != 0 {
		t.Errorf("failed author should keep defaults, got %q/%d", entries[0].Duration(), entries[0].Views())
	}
	if entries[1].Duration() != "02:00" || entries[1].Views() != 5 {
		t.Errorf("healthy author should still join, got %q/%d", entries[1].Duration(), entries[1].Views())
	}
}

// TestFetchAuthorNonSuccessStatus verifies a well-formed non-success
// envelope means "no metadata", not an error.
func TestFetchAuthorNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.CatalogResponse{Status: "error"})
	}))
	defer srv.Close()
	agg := newTestAggregator(srv.URL)

	records, err := agg.FetchAuthor(context.Background(), "John")
	if err != nil {
		t.Fatalf("FetchAuthor() error = %v", err)
	}
	if records != nil {
		t.Errorf("records = %v, want nil", records)
	}
}

// TestLoadCatalog verifies the unfiltered catalog fetch indexes every
// record and tolerates duplicate keys.
func TestLoadCatalog(t *testing.T) {
	cs := &catalogServer{records: map[string][]models.VideoRecord{
		"John": {
			{Author: "John", VideoTitle: "Ride", VideoViews: 12, Duration: "03:15"},
			{Author: "John", VideoTitle: "Ride", VideoViews: 99, Duration: "09:99"},
		},
		"Jane": {
			{Author: "Jane", VideoTitle: "Walk", VideoViews: 3, Duration: "01:01"},
		},
	}}
	srv := httptest.NewServer(cs.handler())
	defer srv.Close()
	agg := newTestAggregator(srv.URL)

	idx, err := agg.LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if idx.Len() != 2 {
		t.Errorf("index size = %d, want 2 (duplicate collapsed)", idx.Len())
	}
	rec, ok := idx.Lookup("John", "Ride")
	if !ok || rec.VideoViews != 12 {
		t.Errorf("first record should win, got %+v ok=%v", rec, ok)
	}
	if !idx.HasAuthor("Jane") {
		t.Error("Jane missing from author index")
	}
}

// TestLoadCatalogUnavailable verifies an unreachable service yields an
// empty usable index alongside the error.
func TestLoadCatalogUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()
	agg := newTestAggregator(srv.URL)

	idx, err := agg.LoadCatalog(context.Background())
	if err == nil {
		t.Fatal("expected error from failing catalog")
	}
	if idx == nil || idx.Len() != 0 {
		t.Errorf("expected empty usable index, got %+v", idx)
	}
}

// TestDistinctAuthors pins first-seen ordering and directory exclusion.
func TestDistinctAuthors(t *testing.T) {
	entries := []models.Entry{
		videoEntry("B", "one"),
		{Key: "A/", Name: "A", IsDirectory: true},
		videoEntry("A", "two"),
		videoEntry("B", "three"),
		{Key: "loose.mp4", Name: "loose"},
	}
	got := distinctAuthors(entries)
	want := []string{"B", "A"}
	if len(got) != len(want) {
		t.Fatalf("distinctAuthors = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("distinctAuthors[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
