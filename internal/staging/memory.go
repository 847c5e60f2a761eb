package staging

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store in memory.
type MemoryStore struct {
	mu        sync.RWMutex
	records   map[string]Record
	watermark *time.Time
	unmapped  map[string]struct{}
}

// NewMemoryStore creates an empty in-memory staging store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[string]Record),
		unmapped: make(map[string]struct{}),
	}
}

// InsertRecord adds or replaces a staging row.
func (s *MemoryStore) InsertRecord(ctx context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.Path] = r
	return nil
}

func (s *MemoryStore) NewRecords(ctx context.Context, since *time.Time) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, r := range s.records {
		if since == nil || r.LastModified.After(*since) {
			out = append(out, r)
		}
	}
	// Newest first; ties broken by path for a stable order.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastModified.Equal(out[j].LastModified) {
			return out[i].LastModified.After(out[j].LastModified)
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

func (s *MemoryStore) RecordByPath(ctx context.Context, path string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.records[path]; ok {
		return &r, nil
	}
	return nil, nil
}

func (s *MemoryStore) LastRunDate(ctx context.Context) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.watermark == nil {
		return nil, nil
	}
	t := *s.watermark
	return &t, nil
}

func (s *MemoryStore) SetLastRunDate(ctx context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := t.UTC()
	s.watermark = &u
	return nil
}

func (s *MemoryStore) UnmappedPaths(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.unmapped))
	for p := range s.unmapped {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *MemoryStore) AddUnmapped(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unmapped[path] = struct{}{}
	return nil
}

func (s *MemoryStore) RemoveUnmapped(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.unmapped, path)
	return nil
}
