package services

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
)

func setupTraversal(t *testing.T) (*Traversal, *memContentStore, *memManifestStore, string) {
	t.Helper()
	contents := newMemContentStore()
	manifest := newMemManifestStore()
	scratch := filepath.Join(t.TempDir(), "scratch")
	return NewTraversal(contents, manifest, scratch, "test"), contents, manifest, t.TempDir()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func makeZip(t *testing.T, members map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func makeGzip(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write(data)
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func TestIngest_RegistersPlainFiles(t *testing.T) {
	traversal, _, manifest, root := setupTraversal(t)

	writeFile(t, root, "a.csv", []byte("date,open\n1,2\n"))
	writeFile(t, root, "sub/b.csv", []byte("date,close\n1,3\n"))

	stats, err := traversal.Ingest(context.Background(), []string{root})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesRegistered)
	assert.Equal(t, 0, stats.FilesKnown)

	counts, err := manifest.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[domain.StatusRawIngested])
}

func TestIngest_DeduplicatesByContent(t *testing.T) {
	traversal, _, _, root := setupTraversal(t)

	// Same bytes under two names: one record.
	writeFile(t, root, "a.csv", []byte("date,open\n1,2\n"))
	writeFile(t, root, "copy-of-a.csv", []byte("date,open\n1,2\n"))

	stats, err := traversal.Ingest(context.Background(), []string{root})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesRegistered)
	assert.Equal(t, 1, stats.FilesKnown)
}

func TestIngest_SecondPassIsIdempotent(t *testing.T) {
	traversal, _, _, root := setupTraversal(t)

	writeFile(t, root, "a.csv", []byte("date,open\n1,2\n"))

	_, err := traversal.Ingest(context.Background(), []string{root})
	require.NoError(t, err)

	stats, err := traversal.Ingest(context.Background(), []string{root})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesRegistered)
	assert.Equal(t, 1, stats.FilesKnown)
}

func TestIngest_ExpandsNestedArchives(t *testing.T) {
	traversal, contents, _, root := setupTraversal(t)

	inner := makeZip(t, map[string][]byte{
		"deep.csv": []byte("date,open\n1,2\n"),
	})
	outer := makeZip(t, map[string][]byte{
		"inner.zip": inner,
		"top.csv":   []byte("date,close\n1,3\n"),
	})
	writeFile(t, root, "outer.zip", outer)

	stats, err := traversal.Ingest(context.Background(), []string{root})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesRegistered)
	assert.Equal(t, 2, stats.ArchivesExpanded)

	// Leaf content is fetchable by hash.
	_, err = contents.Get(context.Background(), domain.HashBytes([]byte("date,open\n1,2\n")))
	assert.NoError(t, err)
}

func TestIngest_GzipMember(t *testing.T) {
	traversal, contents, _, root := setupTraversal(t)

	writeFile(t, root, "data.csv.gz", makeGzip(t, []byte("date,open\n1,2\n")))

	stats, err := traversal.Ingest(context.Background(), []string{root})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesRegistered)
	assert.Equal(t, 1, stats.ArchivesExpanded)

	_, err = contents.Get(context.Background(), domain.HashBytes([]byte("date,open\n1,2\n")))
	assert.NoError(t, err)
}

func TestIngest_IdenticalNestedArchivesExpandOnce(t *testing.T) {
	traversal, _, _, root := setupTraversal(t)

	inner := makeZip(t, map[string][]byte{
		"deep.csv": []byte("date,open\n1,2\n"),
	})
	outer := makeZip(t, map[string][]byte{
		"a.zip": inner,
		"b.zip": inner,
	})
	writeFile(t, root, "outer.zip", outer)

	stats, err := traversal.Ingest(context.Background(), []string{root})
	require.NoError(t, err)
	// Outer plus one copy of inner; the byte-identical second copy is
	// recognised and skipped, so the drain terminates.
	assert.Equal(t, 2, stats.ArchivesExpanded)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.FilesRegistered)
}

func TestIngest_CorruptArchiveSkipsBranchOnly(t *testing.T) {
	traversal, _, _, root := setupTraversal(t)

	writeFile(t, root, "bad.zip", []byte("this is not a zip file"))
	writeFile(t, root, "good.csv", []byte("date,open\n1,2\n"))

	stats, err := traversal.Ingest(context.Background(), []string{root})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesRegistered)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.ArchivesExpanded)
}

func TestIngest_RecordsSourceSystemAndPath(t *testing.T) {
	traversal, _, manifest, root := setupTraversal(t)

	path := writeFile(t, root, "a.csv", []byte("date,open\n1,2\n"))

	_, err := traversal.Ingest(context.Background(), []string{root})
	require.NoError(t, err)

	rec, err := manifest.Get(context.Background(), domain.HashBytes([]byte("date,open\n1,2\n")))
	require.NoError(t, err)
	assert.Equal(t, "test", rec.SourceSystem)
	assert.Equal(t, path, rec.OriginalPath)
	assert.Equal(t, domain.StatusRawIngested, rec.Status)
}
