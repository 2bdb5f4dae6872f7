// Package search implements the multi-signal fuzzy search engine and the
// debounced query session that drives it.
package search

import (
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"

	"github.com/viper373/videostation/internal/models"
)

// Signal weights. They are additive and all positive, so a candidate
// matching a superset of signals always outranks one matching a subset.
// Exact matches short-circuit and dominate everything else.
const (
	scoreExactMatch     = 100.0
	scoreExtensionMatch = 60.0
	scoreKeywordTitle   = 10.0
	scoreKeywordAuthor  = 5.0
	scoreFuzzyTitle     = 8.0
	scoreFuzzyAuthor    = 4.0
	scoreTitlePrefix    = 5.0
	scoreAuthorPrefix   = 3.0
	scoreWordBoundary   = 2.0
	scoreAffinity       = 2.0

	// fuzzyThreshold is the minimum normalized Levenshtein similarity for
	// the edit-distance signal; words of one or two runes are too noisy.
	fuzzyThreshold  = 0.8
	minFuzzyWordLen = 3
)

// SearchResult pairs a candidate with its accumulated score. Results are
// ephemeral; they are recomputed per query and never cached.
type SearchResult struct {
	Entry           models.Entry
	Score           float64
	MatchedKeywords []string
}

// Corpus is the search space for one query: crawled entries plus records
// from the metadata catalog that may not have been crawled yet.
type Corpus struct {
	Entries []models.Entry
	Records []models.VideoRecord
}

// CorpusFromCache flattens a directory-cache snapshot and a metadata index
// into a Corpus.
func CorpusFromCache(cache map[string][]models.Entry, idx *models.MetadataIndex) Corpus {
	var corpus Corpus
	prefixes := make([]string, 0, len(cache))
	for prefix := range cache {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	for _, prefix := range prefixes {
		corpus.Entries = append(corpus.Entries, cache[prefix]...)
	}
	if idx != nil {
		corpus.Records = idx.Records()
	}
	return corpus
}

// Engine scores corpus candidates against a query. The recently-viewed
// author set is session-local state feeding the affinity bonus; it is a
// tie-break heuristic, not correctness-critical.
type Engine struct {
	maxResults int

	mu     sync.RWMutex
	recent map[string]bool
}

// NewEngine returns an engine capping result sets at maxResults.
func NewEngine(maxResults int) *Engine {
	return &Engine{
		maxResults: maxResults,
		recent:     make(map[string]bool),
	}
}

// RecordView marks an author as recently viewed for this session.
func (e *Engine) RecordView(author string) {
	if author == "" {
		return
	}
	e.mu.Lock()
	e.recent[author] = true
	e.mu.Unlock()
}

func (e *Engine) recentlyViewed(author string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.recent[author]
}

// Search scores every candidate in the corpus and returns the ranked
// results, descending by score, capped at the engine's result limit. An
// empty or whitespace query returns nil; the caller shows the unfiltered
// directory instead.
func (e *Engine) Search(query string, corpus Corpus) []SearchResult {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	seen := make(map[string]bool)
	var results []SearchResult

	add := func(entry models.Entry, rawName string) {
		if score, matched := e.scoreCandidate(query, entry, rawName); score > 0 {
			results = append(results, SearchResult{
				Entry:           entry,
				Score:           score,
				MatchedKeywords: matched,
			})
		}
	}

	for _, entry := range corpus.Entries {
		if seen[entry.Key] {
			continue
		}
		seen[entry.Key] = true
		if !entry.IsDirectory {
			// Alias so the same video arriving later as a catalog record
			// is not scored twice.
			seen[recordIdentity(entry.Author, entry.Name)] = true
		}
		add(entry, rawFileName(entry))
	}

	for _, rec := range corpus.Records {
		id := recordIdentity(rec.Author, rec.VideoTitle)
		if seen[id] {
			continue
		}
		seen[id] = true
		add(recordEntry(rec), rec.VideoTitle)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > e.maxResults {
		results = results[:e.maxResults]
	}
	return results
}

// scoreCandidate sums the independent signals for one candidate. query is
// already trimmed and lowercased; rawName is the filename with extension
// for suffix matching.
func (e *Engine) scoreCandidate(query string, entry models.Entry, rawName string) (float64, []string) {
	title := strings.ToLower(entry.Name)
	author := strings.ToLower(entry.Author)

	// Exact match dominates all other signals and ends scoring.
	if title == query || (author != "" && author == query) {
		return scoreExactMatch, []string{query}
	}

	var score float64
	var matched []string

	// Query as a file extension.
	ext := query
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if strings.HasSuffix(strings.ToLower(rawName), ext) {
		score += scoreExtensionMatch
		matched = append(matched, query)
	}

	for _, word := range strings.Fields(query) {
		hit := false
		if strings.Contains(title, word) {
			score += scoreKeywordTitle
			hit = true
		}
		if author != "" && strings.Contains(author, word) {
			score += scoreKeywordAuthor
			hit = true
		}
		if hit {
			matched = append(matched, word)
			continue
		}
		if len([]rune(word)) >= minFuzzyWordLen {
			if similarity(word, title) >= fuzzyThreshold {
				score += scoreFuzzyTitle
				matched = append(matched, word)
			} else if author != "" && similarity(word, author) >= fuzzyThreshold {
				score += scoreFuzzyAuthor
				matched = append(matched, word)
			}
		}
	}

	if strings.HasPrefix(title, query) {
		score += scoreTitlePrefix
	}
	if author != "" && strings.HasPrefix(author, query) {
		score += scoreAuthorPrefix
	}
	if containsWholeWord(title, query) {
		score += scoreWordBoundary
	}

	if score > 0 && e.recentlyViewed(entry.Author) {
		score += scoreAffinity
	}
	return score, matched
}

// similarity is the normalized Levenshtein similarity
// (maxLen - distance) / maxLen in [0, 1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return float64(maxLen-dist) / float64(maxLen)
}

// containsWholeWord reports whether query appears in text on word
// boundaries.
func containsWholeWord(text, query string) bool {
	for _, w := range strings.Fields(text) {
		if w == query {
			return true
		}
	}
	return false
}

// recordIdentity is the dedup key joining crawled entries with catalog
// records for the same video.
func recordIdentity(author, title string) string {
	return "meta:" + author + "/" + title
}

// rawFileName returns the last key segment (extension intact) for files,
// or the entry name for directories.
func rawFileName(entry models.Entry) string {
	if entry.IsDirectory {
		return entry.Name
	}
	parts := models.SplitKey(entry.Key)
	if len(parts) == 0 {
		return entry.Name
	}
	return parts[len(parts)-1]
}

// recordEntry lifts a catalog record into a synthetic file entry so the
// ranked list is uniform for the caller.
func recordEntry(rec models.VideoRecord) models.Entry {
	entry := models.Entry{
		Key:      rec.Author + "/" + rec.VideoTitle,
		Name:     rec.VideoTitle,
		Author:   rec.Author,
		FileType: models.FileTypeVideo,
	}
	entry.AttachMetadata(rec.Duration, rec.VideoViews)
	return entry
}

// Partition splits a ranked result list into its directory and file views
// without re-ranking either side.
func Partition(results []SearchResult) (dirs, files []SearchResult) {
	for _, r := range results {
		if r.Entry.IsDirectory {
			dirs = append(dirs, r)
		} else {
			files = append(files, r)
		}
	}
	return dirs, files
}
