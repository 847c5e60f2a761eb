// Package sink writes raw extrinsic metadata entries to the archive's
// metadata store. Entries are append-only; authority and fetcher
// registration is idempotent.
package sink

import (
	"context"
	"time"

	"github.com/swhbridge/clearcode-mapper/internal/swhid"
)

// Authority identifies who vouches for the metadata.
type Authority struct {
	Type string
	URL  string
}

// Fetcher identifies the process that produced the metadata entries.
type Fetcher struct {
	Name    string
	Version string
}

// DefaultAuthority is the ClearlyDefined registry.
var DefaultAuthority = Authority{
	Type: "registry",
	URL:  "https://clearlydefined.io",
}

// DefaultFetcher identifies this mapper.
var DefaultFetcher = Fetcher{
	Name:    "swh-clearlydefined-metadata-fetcher",
	Version: "0.0.1",
}

// Entry is one write-once metadata record: a payload attached to an
// archived artifact.
type Entry struct {
	Target        swhid.SWHID
	Origin        string // optional source location URL
	Format        string
	DiscoveryDate time.Time
	Payload       []byte // JSON
	Authority     Authority
	Fetcher       Fetcher
}

// Writer is the metadata store's write surface.
type Writer interface {
	// RegisterAuthority upserts the authority record.
	RegisterAuthority(ctx context.Context, a Authority) error

	// RegisterFetcher upserts the fetcher record.
	RegisterFetcher(ctx context.Context, f Fetcher) error

	// Add appends metadata entries.
	Add(ctx context.Context, entries []Entry) error
}
