// Package orchestrator drives one incremental mapping run: replay the
// pending-retry set, then scan staging records that arrived since the
// last watermark, mapping each and updating bookkeeping as it goes.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/swhbridge/clearcode-mapper/internal/archive"
	"github.com/swhbridge/clearcode-mapper/internal/identifier"
	"github.com/swhbridge/clearcode-mapper/internal/logging"
	"github.com/swhbridge/clearcode-mapper/internal/mapper"
	"github.com/swhbridge/clearcode-mapper/internal/metrics"
	"github.com/swhbridge/clearcode-mapper/internal/sink"
	"github.com/swhbridge/clearcode-mapper/internal/staging"
)

const (
	phaseRetry = "retry"
	phaseScan  = "scan"
)

// Orchestrator wires the staging store, the archive and the metadata
// sink together for a single synchronous run. Exactly one orchestrator
// is expected to run at a time against a given staging database.
type Orchestrator struct {
	staging staging.Store
	sink    sink.Writer
	mapper  *mapper.Mapper
	log     *slog.Logger

	// run counters for the summary line
	mapped   int
	unmapped int
	ignored  int
	skipped  int
	errored  int
	written  int
}

// New creates an orchestrator publishing metadata under the given
// authority and fetcher identities.
func New(st staging.Store, arch archive.Archive, w sink.Writer, auth sink.Authority, fetcher sink.Fetcher) *Orchestrator {
	return &Orchestrator{
		staging: st,
		sink:    w,
		mapper: &mapper.Mapper{
			Archive:   arch,
			Authority: auth,
			Fetcher:   fetcher,
		},
		log: logging.Component("orchestrator"),
	}
}

// Run executes one full mapping run: sink registration, retry phase,
// then scan phase. Infrastructure failures abort the run; corrupt
// records are logged and skipped.
func (o *Orchestrator) Run(ctx context.Context) error {
	start := time.Now()
	o.mapped, o.unmapped, o.ignored, o.skipped, o.errored, o.written = 0, 0, 0, 0, 0, 0

	if err := o.sink.RegisterAuthority(ctx, o.mapper.Authority); err != nil {
		return fmt.Errorf("register authority: %w", err)
	}
	if err := o.sink.RegisterFetcher(ctx, o.mapper.Fetcher); err != nil {
		return fmt.Errorf("register fetcher: %w", err)
	}

	if err := o.retryPhase(ctx); err != nil {
		return err
	}
	if err := o.scanPhase(ctx); err != nil {
		return err
	}

	if m := metrics.Get(); m != nil {
		if paths, err := o.staging.UnmappedPaths(ctx); err == nil {
			m.SetRetrySetSize(len(paths))
		}
		m.ObserveRunDuration(time.Since(start).Seconds())
	}

	o.log.Info("run complete",
		"mapped", o.mapped,
		"unmapped", o.unmapped,
		"ignored", o.ignored,
		"skipped", o.skipped,
		"errors", o.errored,
		"entries_written", o.written,
		"duration", time.Since(start).String(),
	)
	return nil
}

// retryPhase re-runs every record whose previous attempt was unmapped.
// A path leaves the set only on a Mapped or Ignore outcome.
func (o *Orchestrator) retryPhase(ctx context.Context) error {
	paths, err := o.staging.UnmappedPaths(ctx)
	if err != nil {
		return fmt.Errorf("list retry paths: %w", err)
	}
	if len(paths) == 0 {
		return nil
	}
	o.log.Info("replaying pending records", "count", len(paths))

	for _, path := range paths {
		log := logging.RecordLogger(o.log, phaseRetry, path)

		rec, err := o.staging.RecordByPath(ctx, path)
		if err != nil {
			return fmt.Errorf("fetch retry record: %w", err)
		}
		if rec == nil {
			log.Warn("pending record vanished from staging table")
			continue
		}

		outcome, entries, err := o.mapper.MapRecord(ctx, *rec)
		if err != nil {
			// Corrupt staging row: it will fail the same way until the
			// row changes. Surfaced for operator attention.
			log.Error("record cannot be mapped", "error", err)
			o.errored++
			metrics.Get().IncRecordError(phaseRetry)
			continue
		}

		switch outcome {
		case mapper.Mapped:
			if err := o.writeEntries(ctx, entries); err != nil {
				return err
			}
			if err := o.staging.RemoveUnmapped(ctx, path); err != nil {
				return fmt.Errorf("clear retry path: %w", err)
			}
			o.mapped++
		case mapper.Ignore:
			if err := o.staging.RemoveUnmapped(ctx, path); err != nil {
				return fmt.Errorf("clear retry path: %w", err)
			}
			o.ignored++
		case mapper.Unmapped:
			o.unmapped++
		}
		metrics.Get().IncRecord(phaseRetry, outcome.String())
		log.Debug("replayed record", "outcome", outcome.String())
	}
	return nil
}

// scanPhase processes records that arrived since the last watermark.
// The new watermark is persisted before any row is mapped: once rows
// are returned, the watermark advances regardless of per-row outcomes.
func (o *Orchestrator) scanPhase(ctx context.Context) error {
	since, err := o.staging.LastRunDate(ctx)
	if err != nil {
		return fmt.Errorf("read watermark: %w", err)
	}

	records, err := o.staging.NewRecords(ctx, since)
	if err != nil {
		return fmt.Errorf("scan staging records: %w", err)
	}
	if len(records) == 0 {
		o.log.Info("no new staging records")
		return nil
	}

	// Records are ordered newest first; the first row carries the new
	// watermark.
	watermark := records[0].LastModified
	if err := o.staging.SetLastRunDate(ctx, watermark); err != nil {
		return fmt.Errorf("persist watermark: %w", err)
	}
	metrics.Get().SetWatermark(float64(watermark.Unix()))
	o.log.Info("scanning new records", "count", len(records), "watermark", watermark)

	for _, rec := range records {
		log := logging.RecordLogger(o.log, phaseScan, rec.Path)

		id, err := identifier.Parse(rec.Path)
		if err != nil {
			log.Error("record has corrupt identifier", "error", err)
			o.errored++
			metrics.Get().IncRecordError(phaseScan)
			continue
		}
		// Fossology harvests have no extractor and are never mapped.
		if id.Kind == identifier.KindHarvest && id.Tool == identifier.ToolFossology {
			o.skipped++
			continue
		}

		outcome, entries, err := o.mapper.MapRecord(ctx, rec)
		if err != nil {
			log.Error("record cannot be mapped", "error", err)
			o.errored++
			metrics.Get().IncRecordError(phaseScan)
			continue
		}

		switch outcome {
		case mapper.Mapped:
			if err := o.writeEntries(ctx, entries); err != nil {
				return err
			}
			o.mapped++
		case mapper.Unmapped:
			// Partial progress persists; the path is retried until every
			// hash resolves.
			if err := o.writeEntries(ctx, entries); err != nil {
				return err
			}
			if err := o.staging.AddUnmapped(ctx, rec.Path); err != nil {
				return fmt.Errorf("add retry path: %w", err)
			}
			o.unmapped++
		case mapper.Ignore:
			o.ignored++
		}
		metrics.Get().IncRecord(phaseScan, outcome.String())
		log.Debug("processed record", "outcome", outcome.String(), "entries", len(entries))
	}
	return nil
}

func (o *Orchestrator) writeEntries(ctx context.Context, entries []sink.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := o.sink.Add(ctx, entries); err != nil {
		return fmt.Errorf("write metadata entries: %w", err)
	}
	o.written += len(entries)
	metrics.Get().AddEntriesWritten(len(entries))
	return nil
}
