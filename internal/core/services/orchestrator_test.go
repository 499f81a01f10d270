package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/skema-cli/internal/cleaners"
	"github.com/custodia-labs/skema-cli/internal/core/domain"
	"github.com/custodia-labs/skema-cli/internal/core/ports/driven"
	"github.com/custodia-labs/skema-cli/internal/parsers/delimited"
	"github.com/custodia-labs/skema-cli/internal/parsers/fixedwidth"
	"github.com/custodia-labs/skema-cli/internal/parsers/spreadsheet"
)

// orchFixture wires an orchestrator over a worker fixture and seeds
// ingested files into the shared manifest.
type orchFixture struct {
	*workerFixture
	manifest *memManifestStore
	orch     *Orchestrator
}

func newOrchFixture(t *testing.T, catalog *domain.Catalog, workers int) *orchFixture {
	t.Helper()
	wf := newWorkerFixture(t, catalog)
	manifest := newMemManifestStore()
	return &orchFixture{
		workerFixture: wf,
		manifest:      manifest,
		orch:          NewOrchestrator(manifest, wf.worker, workers),
	}
}

func (f *orchFixture) ingest(t *testing.T, data []byte) domain.Hash {
	t.Helper()
	hash := f.put(t, data)
	require.NoError(t, f.manifest.Insert(context.Background(), &domain.ManifestRecord{
		FileHash:     hash,
		OriginalPath: "test.csv",
		SourceSystem: "test",
		Status:       domain.StatusRawIngested,
		IngestedAt:   time.Now().UTC(),
	}))
	return hash
}

func TestRun_ProcessesAllPending(t *testing.T) {
	f := newOrchFixture(t, ohlcvCatalog(), 4)

	good := f.ingest(t, []byte("Date,Open,High,Low,Close,Volume\n2024-01-02,10,12,9,11,100\n"))
	unknown := f.ingest(t, []byte("foo,bar,baz\n1,2,3\n"))

	summary, err := f.orch.Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Quarantined)
	assert.Equal(t, 0, summary.Failed)
	require.Len(t, summary.Problems, 1)
	assert.Equal(t, unknown, summary.Problems[0].FileHash)

	rec, err := f.manifest.Get(context.Background(), good)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTransformedSuccess, rec.Status)
	assert.Equal(t, "ohlcv_daily", rec.TargetTable)
	assert.Equal(t, int64(1), rec.ProcessedRowCount)

	rec, err = f.manifest.Get(context.Background(), unknown)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQuarantined, rec.Status)
	assert.NotEmpty(t, rec.MatchedFingerprint)
}

func TestRun_TerminalTransitionAppliedOnce(t *testing.T) {
	f := newOrchFixture(t, ohlcvCatalog(), 8)

	var hashes []domain.Hash
	for i := 0; i < 20; i++ {
		hashes = append(hashes, f.ingest(t, []byte("Date,Open,High,Low,Close,Volume\n"+
			time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02")+",10,12,9,11,100\n")))
	}

	_, err := f.orch.Run(context.Background(), false)
	require.NoError(t, err)

	for _, h := range hashes {
		assert.Equal(t, 1, f.manifest.terminalWrites[h], "hash %s", h.Short())
	}
}

func TestRun_EmptyManifest(t *testing.T) {
	f := newOrchFixture(t, ohlcvCatalog(), 2)

	summary, err := f.orch.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
	assert.NotEmpty(t, summary.RunID)
}

func TestRun_SecondConcurrentRunRejected(t *testing.T) {
	f := newOrchFixture(t, ohlcvCatalog(), 1)

	require.True(t, f.orch.begin("held", 1))

	_, err := f.orch.Run(context.Background(), false)
	assert.ErrorIs(t, err, domain.ErrRunInProgress)

	f.orch.finish()
	_, err = f.orch.Run(context.Background(), false)
	assert.NoError(t, err)
}

func TestRun_ReprocessRetriesQuarantinedAfterCatalogGrows(t *testing.T) {
	// First run: the format is unknown and the file quarantines.
	f := newOrchFixture(t, ohlcvCatalog(), 2)
	hash := f.ingest(t, []byte("ric,px\nACME.N,10.5\n"))

	summary, err := f.orch.Run(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Quarantined)

	rec, err := f.manifest.Get(context.Background(), hash)
	require.NoError(t, err)
	fp := rec.MatchedFingerprint
	require.NotEmpty(t, fp)

	// Operator adds a recipe for the recorded fingerprint; a new run
	// in reprocess mode picks the file back up.
	grown := domain.NewCatalog(map[string]domain.FormatRecipe{
		fp: {
			ParserKind:  domain.ParserDelimited,
			CleanerID:   "passthrough",
			TargetTable: "vendor_prices",
		},
	})
	worker2 := NewTransformWorker(
		f.contents, f.tables, f.rowQuarantine,
		NewClassifier(ClassifierConfig{}), grown,
		NewCleanerRegistry(cleaners.Builtin()...),
		[]driven.Parser{delimited.New(), fixedwidth.New(), spreadsheet.New()},
	)
	orch2 := NewOrchestrator(f.manifest, worker2, 2)

	summary, err = orch2.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)

	rec, err = f.manifest.Get(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTransformedSuccess, rec.Status)
	assert.Equal(t, "vendor_prices", rec.TargetTable)
}

func TestRun_NormalModeSkipsQuarantined(t *testing.T) {
	f := newOrchFixture(t, ohlcvCatalog(), 2)
	f.ingest(t, []byte("foo,bar,baz\n1,2,3\n"))

	_, err := f.orch.Run(context.Background(), false)
	require.NoError(t, err)

	// Without --reprocess the quarantined file is not revisited.
	summary, err := f.orch.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
}

func TestStatus_SnapshotAfterRun(t *testing.T) {
	f := newOrchFixture(t, ohlcvCatalog(), 2)
	f.ingest(t, []byte("Date,Open,High,Low,Close,Volume\n2024-01-02,10,12,9,11,100\n"))
	f.ingest(t, []byte("foo,bar,baz\n1,2,3\n"))

	summary, err := f.orch.Run(context.Background(), false)
	require.NoError(t, err)

	status := f.orch.Status()
	assert.False(t, status.Running)
	assert.Equal(t, summary.RunID, status.RunID)
	assert.Equal(t, 2, status.Total)
	assert.Equal(t, 2, status.Completed)
	assert.Equal(t, 1, status.Succeeded)
	assert.Equal(t, 1, status.Quarantined)
}

func TestStatus_IdleBeforeFirstRun(t *testing.T) {
	f := newOrchFixture(t, ohlcvCatalog(), 2)

	status := f.orch.Status()
	assert.False(t, status.Running)
	assert.Equal(t, 0, status.Total)
}
