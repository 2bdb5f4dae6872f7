// Package nav holds the thin navigation state: the current path and the
// back/forward stack. It consumes crawler output and feeds user actions
// back into it; the hosting UI owns the actual history mechanism.
package nav

import (
	"net/url"
	"strings"
	"sync"
)

// queryParam is the URL query parameter mirroring the current path, making
// any location shareable and bookmarkable.
const queryParam = "path"

// History tracks the browsing position. The zero-indexed stack always
// contains at least the initial path; navigating to a new path truncates
// any forward entries, the way browser history behaves.
type History struct {
	mu    sync.Mutex
	stack []string
	index int
}

// NewHistory starts a history at the given path.
func NewHistory(initial string) *History {
	return &History{stack: []string{initial}}
}

// Current returns the current path as a plain value.
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stack[h.index]
}

// Visit records navigation to path. Visiting the current path is a no-op;
// anything else drops the forward stack.
func (h *History) Visit(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if path == h.stack[h.index] {
		return
	}
	h.stack = append(h.stack[:h.index+1], path)
	h.index = len(h.stack) - 1
}

// Back steps to the previous path. Reports false at the oldest entry.
func (h *History) Back() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index == 0 {
		return h.stack[h.index], false
	}
	h.index--
	return h.stack[h.index], true
}

// Forward steps to the next path. Reports false at the newest entry.
func (h *History) Forward() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index >= len(h.stack)-1 {
		return h.stack[h.index], false
	}
	h.index++
	return h.stack[h.index], true
}

// CanBack reports whether Back would move.
func (h *History) CanBack() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index > 0
}

// CanForward reports whether Forward would move.
func (h *History) CanForward() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index < len(h.stack)-1
}

// PathParts splits a path into its breadcrumb segments.
func PathParts(path string) []string {
	var out []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// PathFromQuery extracts the mirrored path from a raw URL query string.
// Absent or malformed queries resolve to the root.
func PathFromQuery(rawQuery string) string {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return ""
	}
	return values.Get(queryParam)
}

// QueryWithPath returns rawQuery with the mirrored path parameter set,
// preserving unrelated parameters.
func QueryWithPath(rawQuery, path string) string {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		values = url.Values{}
	}
	values.Set(queryParam, path)
	return values.Encode()
}
