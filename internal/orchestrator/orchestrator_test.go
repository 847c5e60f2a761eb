package orchestrator

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swhbridge/clearcode-mapper/internal/archive"
	"github.com/swhbridge/clearcode-mapper/internal/sink"
	"github.com/swhbridge/clearcode-mapper/internal/staging"
)

// Hashes of the contents "42\n" and "424242\n" plus one revision,
// mirroring what the archive fixtures hold.
const (
	licenseSha1    = "34973274ccef6ab4dfaaf86599792fa9c3fe4689"
	licenseSha1Git = "d81cc0710eb6cf9efd5b920a8453e1e07157b6cd"
	readmeSha1     = "3e21cc4942a4234c9e5edd8a9cacd1670fe59f13"
	readmeSha1Git  = "c932c7649c6dfa4b82327d121215116909eb3bea"
	revSha1Git     = "4c66129b968ab8122964823d1d77677f50884cf6"
)

const (
	defPath       = "maven/mavencentral/za.co.absa.cobrix/cobol-parser/revision/0.4.0.json"
	defNoHashPath = "maven/mavencentral/za.co.absa.cobrix/cobol/revision/0.4.0.json"
	scanFullPath  = "npm/npmjs/@ngtools/webpack/revision/10.2.1/tool/scancode/3.2.2.json"
	scanPartPath  = "npm/npmjs/@fluid/driver/revision/0.31.0/tool/scancode/3.2.2.json"
	fossologyPath = "npm/npmjs/@pixi/mesh-extras/revision/5.3.5/tool/fossology/1.3.4.json"
	corruptPath   = "maven/mavencentral/cobol-parser/abc/0.4.0.json"
	lateScanPath  = "npm/npmjs/@late/arrival/revision/1.0.0/tool/scancode/3.2.2.json"
)

func gz(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func day(d int) time.Time {
	return time.Date(2021, 2, d, 0, 0, 0, 0, time.UTC)
}

func unhex(t *testing.T, s string) []byte {
	t.Helper()
	raw, err := hex.DecodeString(s)
	require.NoError(t, err)
	return raw
}

func defJSON(gitSha string) string {
	return fmt.Sprintf(`{"described": {"hashes": {"gitSha": %q}, "sourceLocation": {"url": "https://example.com/pkg"}}}`, gitSha)
}

func scanJSON(sha1s ...string) string {
	var files bytes.Buffer
	for i, s := range sha1s {
		if i > 0 {
			files.WriteString(",")
		}
		fmt.Fprintf(&files, `{"path": "f%d", "sha1": %q}`, i, s)
	}
	return fmt.Sprintf(`{"content": {"files": [%s]}}`, files.String())
}

type fixture struct {
	staging *staging.MemoryStore
	archive *archive.MemoryArchive
	sink    *sink.MemoryWriter
	orch    *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		staging: staging.NewMemoryStore(),
		archive: archive.NewMemoryArchive(),
		sink:    sink.NewMemoryWriter(),
	}
	f.archive.AddContent(unhex(t, licenseSha1), unhex(t, licenseSha1Git))
	f.orch = New(f.staging, f.archive, f.sink, sink.DefaultAuthority, sink.DefaultFetcher)
	return f
}

func (f *fixture) insert(t *testing.T, path, payload string, d int) {
	t.Helper()
	require.NoError(t, f.staging.InsertRecord(context.Background(), staging.Record{
		Path:         path,
		Content:      gz(t, payload),
		LastModified: day(d),
	}))
}

func (f *fixture) seedInitialRecords(t *testing.T) {
	t.Helper()
	f.insert(t, defPath, defJSON(revSha1Git), 1)              // revision not archived yet
	f.insert(t, scanFullPath, scanJSON(licenseSha1), 2)       // fully resolvable
	f.insert(t, scanPartPath, scanJSON(licenseSha1, readmeSha1), 3) // one hash unresolved
	f.insert(t, defNoHashPath, `{"described": {"sourceLocation": {"url": "https://example.com"}}}`, 4)
	f.insert(t, fossologyPath, "", 5)
	f.insert(t, corruptPath, scanJSON(licenseSha1), 6)
}

func (f *fixture) unmapped(t *testing.T) []string {
	t.Helper()
	paths, err := f.staging.UnmappedPaths(context.Background())
	require.NoError(t, err)
	return paths
}

func (f *fixture) watermark(t *testing.T) *time.Time {
	t.Helper()
	wm, err := f.staging.LastRunDate(context.Background())
	require.NoError(t, err)
	return wm
}

func TestRunFirstPass(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedInitialRecords(t)

	require.NoError(t, f.orch.Run(ctx))

	// Watermark is the newest scanned row, corrupt and fossology rows
	// included.
	wm := f.watermark(t)
	require.NotNil(t, wm)
	assert.True(t, wm.Equal(day(6)))

	// Unresolved def and partially resolved harvest await retry; the
	// corrupt, ignored and fossology rows never enter the set.
	assert.Equal(t, []string{defPath, scanPartPath}, f.unmapped(t))

	// Full harvest entry plus the partial harvest's resolved file.
	entries := f.sink.Entries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "swh:1:cnt:"+licenseSha1Git, e.Target.String())
	}

	assert.True(t, f.sink.HasAuthority(sink.DefaultAuthority))
	assert.True(t, f.sink.HasFetcher(sink.DefaultFetcher))
}

func TestRunIsIdempotentWithoutNewRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedInitialRecords(t)

	require.NoError(t, f.orch.Run(ctx))
	wm1 := f.watermark(t)
	entries1 := len(f.sink.Entries())
	unmapped1 := f.unmapped(t)

	require.NoError(t, f.orch.Run(ctx))

	wm2 := f.watermark(t)
	require.NotNil(t, wm2)
	assert.True(t, wm1.Equal(*wm2))
	assert.Equal(t, entries1, len(f.sink.Entries()))
	assert.Equal(t, unmapped1, f.unmapped(t))
}

func TestRunDrainsRetrySetOnceArchiveCatchesUp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedInitialRecords(t)
	require.NoError(t, f.orch.Run(ctx))

	// The archive catches up: the definition's revision and the
	// partial harvest's second content arrive.
	f.archive.AddRevision(unhex(t, revSha1Git))
	f.archive.AddContent(unhex(t, readmeSha1), unhex(t, readmeSha1Git))
	// A new harvest arrives in staging as well.
	f.insert(t, lateScanPath, scanJSON(licenseSha1), 7)

	require.NoError(t, f.orch.Run(ctx))

	assert.Empty(t, f.unmapped(t))

	wm := f.watermark(t)
	require.NotNil(t, wm)
	assert.True(t, wm.Equal(day(7)))

	// Previous 2 entries + def revision entry + the replayed partial
	// harvest's 2 entries + the new harvest's entry.
	entries := f.sink.Entries()
	assert.Len(t, entries, 6)

	var revTargets int
	for _, e := range entries {
		if e.Target.String() == "swh:1:rev:"+revSha1Git {
			revTargets++
			assert.Equal(t, "https://example.com/pkg", e.Origin)
			assert.Equal(t, "clearlydefined-definition-json", e.Format)
		}
	}
	assert.Equal(t, 1, revTargets)
}

func TestWatermarkIsMonotonic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.insert(t, scanFullPath, scanJSON(licenseSha1), 2)

	require.NoError(t, f.orch.Run(ctx))
	wm1 := f.watermark(t)
	require.NotNil(t, wm1)

	f.insert(t, lateScanPath, scanJSON(licenseSha1), 9)
	require.NoError(t, f.orch.Run(ctx))
	wm2 := f.watermark(t)
	require.NotNil(t, wm2)

	assert.False(t, wm2.Before(*wm1))
	assert.True(t, wm2.Equal(day(9)))
}

func TestRetryPhaseClearsIgnoredPaths(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// A path pending retry whose record now yields Ignore: it leaves
	// the set without producing entries.
	f.insert(t, defNoHashPath, `{"described": {}}`, 1)
	require.NoError(t, f.staging.AddUnmapped(ctx, defNoHashPath))
	require.NoError(t, f.orch.Run(ctx))

	assert.NotContains(t, f.unmapped(t), defNoHashPath)
}

func TestRetryPhaseKeepsVanishedPaths(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.staging.AddUnmapped(ctx, "npm/npmjs/@gone/gone/revision/1.0.0/tool/scancode/3.2.2.json"))
	require.NoError(t, f.orch.Run(ctx))

	// Left in place for operator attention.
	assert.Len(t, f.unmapped(t), 1)
}

func TestScanSkipsRecordsOlderThanWatermark(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.insert(t, scanFullPath, scanJSON(licenseSha1), 5)
	require.NoError(t, f.orch.Run(ctx))
	require.Len(t, f.sink.Entries(), 1)

	// A record dated before the watermark is never picked up.
	f.insert(t, lateScanPath, scanJSON(licenseSha1), 3)
	require.NoError(t, f.orch.Run(ctx))

	assert.Len(t, f.sink.Entries(), 1)
	wm := f.watermark(t)
	require.NotNil(t, wm)
	assert.True(t, wm.Equal(day(5)))
}
