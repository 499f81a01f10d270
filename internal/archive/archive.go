// Package archive extracts nested archive files for the ingestion
// traversal. It recognises zip and tar containers and gzip, zstd and
// lz4 compressed streams; extraction is by-name, so a member whose
// name carries an archive extension is written out for the caller to
// queue rather than expanded in place.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies an archive container or compressed-stream format.
type Kind string

const (
	KindZip   Kind = "zip"
	KindTar   Kind = "tar"
	KindTarGz Kind = "tar.gz"
	KindGzip  Kind = "gzip"
	KindZstd  Kind = "zstd"
	KindLZ4   Kind = "lz4"
)

// Entry is one file produced by extraction.
type Entry struct {
	// Path is the absolute path the member was written to.
	Path string

	// IsArchive reports whether the member's name indicates it is
	// itself an archive and should be queued for expansion.
	IsArchive bool
}

// Detect identifies the archive kind from a file name. The second
// return is false for plain files.
func Detect(name string) (Kind, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return KindZip, true
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return KindTarGz, true
	case strings.HasSuffix(lower, ".tar"):
		return KindTar, true
	case strings.HasSuffix(lower, ".gz"):
		return KindGzip, true
	case strings.HasSuffix(lower, ".zst"):
		return KindZstd, true
	case strings.HasSuffix(lower, ".lz4"):
		return KindLZ4, true
	}
	return "", false
}

// IsArchive reports whether the name carries a recognised archive
// extension. Detection is by name, not content: corrupted magic bytes
// must surface as extraction errors, not silently demote an archive
// to a leaf file.
func IsArchive(name string) bool {
	_, ok := Detect(name)
	return ok
}

// Extract expands the archive at src into a fresh subdirectory of
// destDir and returns the extracted entries. Corrupted archives
// return an error with nothing partially registered; the caller logs
// and abandons the branch.
func Extract(src, destDir string) ([]Entry, error) {
	kind, ok := Detect(src)
	if !ok {
		return nil, fmt.Errorf("%s is not a recognised archive", src)
	}

	outDir, err := memberDir(src, destDir)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindZip:
		return extractZip(src, outDir)
	case KindTar:
		return extractTar(src, outDir, decompressNone)
	case KindTarGz:
		return extractTar(src, outDir, decompressGzip)
	case KindGzip:
		return extractStream(src, outDir, decompressGzip)
	case KindZstd:
		return extractStream(src, outDir, decompressZstd)
	case KindLZ4:
		return extractStream(src, outDir, decompressLZ4)
	}
	return nil, fmt.Errorf("unhandled archive kind %q", kind)
}

// memberDir creates a unique output directory for one archive's
// members, so same-named members of sibling archives never collide.
func memberDir(src, destDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	dir, err := os.MkdirTemp(destDir, base+"-*")
	if err != nil {
		return "", fmt.Errorf("creating extraction dir: %w", err)
	}
	return dir, nil
}

// safeJoin joins a member name onto dir, rejecting names that would
// escape it.
func safeJoin(dir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.Join(dir, filepath.FromSlash(name)))
	if cleaned != dir && !strings.HasPrefix(cleaned, dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive member %q escapes extraction dir", name)
	}
	return cleaned, nil
}

// writeMember writes one member's bytes and records it as an entry.
func writeMember(path string, data []byte) (Entry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return Entry{}, fmt.Errorf("creating member dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return Entry{}, fmt.Errorf("writing member %s: %w", filepath.Base(path), err)
	}
	return Entry{Path: path, IsArchive: IsArchive(path)}, nil
}

// streamBaseName strips the compression extension from a single-file
// stream, so "prices.csv.gz" extracts to "prices.csv".
func streamBaseName(src string) string {
	base := filepath.Base(src)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
