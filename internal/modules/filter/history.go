// README: Location/history port used to publish the canonical search URL.
package filter

import (
	"context"
	"sync"
)

// History is the write side of a client's address bar: a current path and
// a replace operation that overwrites the current entry instead of adding
// one. ReplaceState has no error path; implementations deal with their own
// failures.
type History interface {
	Path() string
	ReplaceState(ctx context.Context, url string)
}

// UpdateURL replaces the current history entry with the link for f. A
// vendorID adds an "id" parameter after the filter keys. When nothing is
// left to encode the bare path is written.
func UpdateURL(ctx context.Context, h History, f CarsFilters, vendorID string) {
	q := Serialize(f)
	if vendorID != "" {
		q.Set(KeyVendorID, vendorID)
	}
	h.ReplaceState(ctx, BuildURL(h.Path(), q))
}

// BuildURL joins path and query, dropping the "?" for an empty query.
func BuildURL(path string, q Query) string {
	if qs := q.Encode(); qs != "" {
		return path + "?" + qs
	}
	return path
}

// MemoryHistory keeps the current URL in process. Last write wins.
type MemoryHistory struct {
	mu       sync.Mutex
	path     string
	location string
	replaces int
}

func NewMemoryHistory(path string) *MemoryHistory {
	return &MemoryHistory{path: path, location: path}
}

func (h *MemoryHistory) Path() string {
	return h.path
}

func (h *MemoryHistory) ReplaceState(_ context.Context, url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.location = url
	h.replaces++
}

// Location is the URL of the current entry.
func (h *MemoryHistory) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.location
}

// Replaces counts ReplaceState calls.
func (h *MemoryHistory) Replaces() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.replaces
}
