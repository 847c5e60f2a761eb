package sink

import (
	"context"
	"sync"
)

// MemoryWriter implements Writer in memory.
type MemoryWriter struct {
	mu          sync.RWMutex
	entries     []Entry
	authorities map[Authority]struct{}
	fetchers    map[Fetcher]struct{}
}

// NewMemoryWriter creates an empty in-memory metadata store.
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{
		authorities: make(map[Authority]struct{}),
		fetchers:    make(map[Fetcher]struct{}),
	}
}

func (w *MemoryWriter) RegisterAuthority(ctx context.Context, a Authority) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.authorities[a] = struct{}{}
	return nil
}

func (w *MemoryWriter) RegisterFetcher(ctx context.Context, f Fetcher) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fetchers[f] = struct{}{}
	return nil
}

func (w *MemoryWriter) Add(ctx context.Context, entries []Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, entries...)
	return nil
}

// Entries returns a copy of everything written so far.
func (w *MemoryWriter) Entries() []Entry {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]Entry(nil), w.entries...)
}

// HasAuthority reports whether the authority was registered.
func (w *MemoryWriter) HasAuthority(a Authority) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.authorities[a]
	return ok
}

// HasFetcher reports whether the fetcher was registered.
func (w *MemoryWriter) HasFetcher(f Fetcher) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.fetchers[f]
	return ok
}
