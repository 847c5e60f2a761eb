package archive

import (
	"context"
	"sync"
)

// MemoryArchive implements Archive in memory. Used in tests standing in
// for a live archive database.
type MemoryArchive struct {
	mu        sync.RWMutex
	contents  map[string][]byte   // sha1 -> sha1_git
	revisions map[string]struct{} // sha1_git
}

// NewMemoryArchive creates an empty in-memory archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{
		contents:  make(map[string][]byte),
		revisions: make(map[string]struct{}),
	}
}

// AddContent records a content with its sha1 and canonical sha1_git.
func (a *MemoryArchive) AddContent(sha1, sha1Git []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.contents[string(sha1)] = append([]byte(nil), sha1Git...)
}

// AddRevision records a revision by its sha1_git.
func (a *MemoryArchive) AddRevision(id []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.revisions[string(id)] = struct{}{}
}

func (a *MemoryArchive) ContentSHA1Git(ctx context.Context, sha1 []byte) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if git, ok := a.contents[string(sha1)]; ok {
		return append([]byte(nil), git...), nil
	}
	return nil, nil
}

func (a *MemoryArchive) RevisionMissing(ctx context.Context, ids [][]byte) ([][]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var missing [][]byte
	for _, id := range ids {
		if _, ok := a.revisions[string(id)]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
