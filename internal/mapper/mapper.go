// Package mapper turns one ClearCode staging record into metadata
// entries targeting archived artifacts, together with a tri-state
// outcome driving the orchestrator's retry bookkeeping.
package mapper

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/swhbridge/clearcode-mapper/internal/archive"
	"github.com/swhbridge/clearcode-mapper/internal/identifier"
	"github.com/swhbridge/clearcode-mapper/internal/sink"
	"github.com/swhbridge/clearcode-mapper/internal/staging"
	"github.com/swhbridge/clearcode-mapper/internal/swhid"
)

// Outcome is the tri-state result of mapping one record. The
// distinction between Unmapped (retry later) and Ignore (never retry)
// drives the retry set.
type Outcome int

const (
	// Mapped: every embedded hash resolved; the record is done.
	Mapped Outcome = iota
	// Unmapped: at least one embedded hash did not resolve yet. Entries
	// for the hashes that did resolve are still produced.
	Unmapped
	// Ignore: structurally valid but not actionable, e.g. a definition
	// with no usable hash. Never retried.
	Ignore
)

func (o Outcome) String() string {
	switch o {
	case Mapped:
		return "mapped"
	case Unmapped:
		return "unmapped"
	case Ignore:
		return "ignore"
	default:
		return "invalid"
	}
}

const definitionFormat = "clearlydefined-definition-json"

func harvestFormat(tool identifier.ToolKind) string {
	return fmt.Sprintf("clearlydefined-harvest-%s-json", tool)
}

// Mapper maps staging records against an archive.
type Mapper struct {
	Archive   archive.Archive
	Authority sink.Authority
	Fetcher   sink.Fetcher
}

// MapRecord maps one staging record. Identifier parse failures are
// returned as errors: they mark a corrupt staging row, not a mapping
// outcome, and will recur until the row itself changes.
func (m *Mapper) MapRecord(ctx context.Context, rec staging.Record) (Outcome, []sink.Entry, error) {
	id, err := identifier.Parse(rec.Path)
	if err != nil {
		return Ignore, nil, err
	}

	payload, err := decompress(rec.Content)
	if err != nil {
		return Ignore, nil, fmt.Errorf("decompress %q: %w", rec.Path, err)
	}
	// An empty payload means the harvester has not filled the record
	// yet; retry once the archive refreshes it.
	if len(payload) == 0 {
		return Unmapped, nil, nil
	}

	switch id.Kind {
	case identifier.KindDefinition:
		return m.mapDefinition(ctx, rec, payload)
	case identifier.KindHarvest:
		if id.Tool == identifier.ToolFossology {
			return Ignore, nil, nil
		}
		return m.mapHarvest(ctx, rec, id.Tool, payload)
	default:
		return Ignore, nil, fmt.Errorf("%q: unexpected identifier kind %d", rec.Path, id.Kind)
	}
}

// definitionDoc is the slice of a definition payload the mapper reads.
type definitionDoc struct {
	Described struct {
		Hashes struct {
			GitSha string `json:"gitSha"`
		} `json:"hashes"`
		SourceLocation struct {
			Revision string `json:"revision"`
			URL      string `json:"url"`
		} `json:"sourceLocation"`
	} `json:"described"`
}

// mapDefinition resolves a definition payload's revision hash. A
// definition with no usable hash, or with a hash that is not a
// well-formed sha1, is ignored rather than retried.
func (m *Mapper) mapDefinition(ctx context.Context, rec staging.Record, payload []byte) (Outcome, []sink.Entry, error) {
	var doc definitionDoc
	if err := json.Unmarshal(payload, &doc); err != nil {
		return Ignore, nil, fmt.Errorf("decode definition %q: %w", rec.Path, err)
	}

	revHex := doc.Described.Hashes.GitSha
	if revHex == "" {
		revHex = doc.Described.SourceLocation.Revision
	}
	if revHex == "" || !swhid.IsSHA1Hex(revHex) {
		return Ignore, nil, nil
	}

	exists, err := archive.RevisionExists(ctx, m.Archive, revHex)
	if err != nil {
		return Ignore, nil, err
	}
	if !exists {
		// The revision may be archived later.
		return Unmapped, nil, nil
	}

	target, err := swhid.FromHex(swhid.Revision, revHex)
	if err != nil {
		return Ignore, nil, err
	}
	body, err := compactJSON(payload)
	if err != nil {
		return Ignore, nil, fmt.Errorf("compact definition %q: %w", rec.Path, err)
	}

	return Mapped, []sink.Entry{{
		Target:        target,
		Origin:        doc.Described.SourceLocation.URL,
		Format:        definitionFormat,
		DiscoveryDate: rec.LastModified,
		Payload:       body,
		Authority:     m.Authority,
		Fetcher:       m.Fetcher,
	}}, nil
}

// mapHarvest resolves each file listed by the harvest independently.
// Entries for the files that resolved are produced even when the
// outcome is Unmapped, so partial progress persists across retries.
func (m *Mapper) mapHarvest(ctx context.Context, rec staging.Record, tool identifier.ToolKind, payload []byte) (Outcome, []sink.Entry, error) {
	files, err := harvestFiles(tool, payload)
	if err != nil {
		return Ignore, nil, fmt.Errorf("decode %s harvest %q: %w", tool, rec.Path, err)
	}

	outcome := Mapped
	var entries []sink.Entry
	for _, f := range files {
		target, err := archive.ResolveContent(ctx, m.Archive, f.sha1)
		if err != nil {
			return Ignore, nil, err
		}
		if target == nil {
			outcome = Unmapped
			continue
		}
		body, err := compactJSON(f.raw)
		if err != nil {
			return Ignore, nil, fmt.Errorf("compact %s harvest file %q: %w", tool, rec.Path, err)
		}
		entries = append(entries, sink.Entry{
			Target:        *target,
			Format:        harvestFormat(tool),
			DiscoveryDate: rec.LastModified,
			Payload:       body,
			Authority:     m.Authority,
			Fetcher:       m.Fetcher,
		})
	}
	return outcome, entries, nil
}
