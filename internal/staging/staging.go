// Package staging reads harvested ClearCode records awaiting mapping and
// keeps the mapper's bookkeeping: the watermark of the last processed
// record and the durable set of paths pending retry.
package staging

import (
	"context"
	"time"
)

// Record is one staging row: a coordinate path, its gzip-compressed JSON
// payload, and the time the harvester last touched it. Immutable once
// read.
type Record struct {
	Path         string
	Content      []byte
	LastModified time.Time
}

// Store is the staging database surface. One orchestrator process at a
// time owns a given store; concurrent runs would race on the watermark
// and the retry set.
type Store interface {
	// NewRecords returns records with last_modified after since, newest
	// first. A nil since returns every record (first run).
	NewRecords(ctx context.Context, since *time.Time) ([]Record, error)

	// RecordByPath fetches one record exactly, or nil when absent.
	RecordByPath(ctx context.Context, path string) (*Record, error)

	// LastRunDate returns the persisted watermark, or nil on first run.
	LastRunDate(ctx context.Context) (*time.Time, error)

	// SetLastRunDate persists the watermark, creating it on first run.
	SetLastRunDate(ctx context.Context, t time.Time) error

	// UnmappedPaths lists the paths pending retry.
	UnmappedPaths(ctx context.Context) ([]string, error)

	// AddUnmapped inserts a path into the retry set. Inserting a path
	// already present is a no-op.
	AddUnmapped(ctx context.Context, path string) error

	// RemoveUnmapped deletes a path from the retry set.
	RemoveUnmapped(ctx context.Context, path string) error
}
