package search

import (
	"strings"
	"sync"
	"time"
)

// State tracks the query lifecycle:
// Idle -> Debounced -> Searching -> Ready, with any new keystroke folding
// the session back into Debounced and clearing superseding everything.
type State int

const (
	StateIdle State = iota
	StateDebounced
	StateSearching
	StateReady
)

// CorpusFunc supplies the corpus at execution time, after the debounce
// window, so the search sees whatever the crawler cached in the meantime.
type CorpusFunc func() Corpus

// Session debounces keystrokes into search executions with
// last-write-wins semantics: only the most recent query's results are ever
// applied.
type Session struct {
	engine   *Engine
	corpus   CorpusFunc
	debounce time.Duration

	mu         sync.Mutex
	timer      *time.Timer
	generation int
	state      State
	query      string
	results    []SearchResult
}

// NewSession creates a session over engine with the given debounce window.
func NewSession(engine *Engine, corpus CorpusFunc, debounce time.Duration) *Session {
	return &Session{
		engine:   engine,
		corpus:   corpus,
		debounce: debounce,
		state:    StateIdle,
	}
}

// SetQuery registers a keystroke. A blank query clears the session
// immediately; anything else (re)starts the debounce timer, cancelling the
// pending execution.
func (s *Session) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.generation++

	if strings.TrimSpace(query) == "" {
		s.state = StateIdle
		s.query = ""
		s.results = nil
		return
	}

	s.query = query
	s.state = StateDebounced
	gen := s.generation
	s.timer = time.AfterFunc(s.debounce, func() {
		s.execute(gen)
	})
}

// Flush runs the pending query immediately, skipping the rest of the
// debounce window. No-op unless a query is pending.
func (s *Session) Flush() {
	s.mu.Lock()
	if s.state != StateDebounced {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	gen := s.generation
	s.mu.Unlock()

	s.execute(gen)
}

// execute runs the search for one generation and applies the results only
// if no newer keystroke arrived while it ran.
func (s *Session) execute(gen int) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.state = StateSearching
	query := s.query
	s.mu.Unlock()

	results := s.engine.Search(query, s.corpus())

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		// A newer query superseded this one; drop the stale results.
		return
	}
	s.results = results
	s.state = StateReady
}

// Results returns the current results (nil while idle or pending).
func (s *Session) Results() []SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsSearchActive reports whether a completed search currently has results
// to show. A cleared or empty query is never active.
func (s *Session) IsSearchActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateReady && len(s.results) > 0
}
