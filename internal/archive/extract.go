package archive

import (
	"archive/tar"
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// maxMemberSize caps a single decompressed member. Archives are
// adversarial input; without a bound a small file can expand without
// limit (zip bomb).
const maxMemberSize = 1 << 30 // 1 GiB

// errMemberTooLarge aborts extraction of oversized members.
var errMemberTooLarge = errors.New("archive member exceeds size limit")

// decompressor wraps a raw reader in a decompression stream.
type decompressor func(io.Reader) (io.ReadCloser, error)

func decompressNone(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

func decompressGzip(r io.Reader) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	return zr, nil
}

func decompressZstd(r io.Reader) (io.ReadCloser, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening zstd stream: %w", err)
	}
	return zr.IOReadCloser(), nil
}

func decompressLZ4(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

// readBounded reads the whole stream, failing once it exceeds
// maxMemberSize.
func readBounded(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxMemberSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxMemberSize {
		return nil, errMemberTooLarge
	}
	return data, nil
}

// extractZip expands a zip container.
func extractZip(src, outDir string) ([]Entry, error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("opening zip %s: %w", src, err)
	}
	defer zr.Close()

	var entries []Entry
	for _, member := range zr.File {
		if member.FileInfo().IsDir() {
			continue
		}

		path, err := safeJoin(outDir, member.Name)
		if err != nil {
			return nil, err
		}

		rc, err := member.Open()
		if err != nil {
			return nil, fmt.Errorf("opening zip member %s: %w", member.Name, err)
		}
		data, err := readBounded(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading zip member %s: %w", member.Name, err)
		}

		entry, err := writeMember(path, data)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// extractTar expands a tar container, optionally through a
// decompression stream (tar.gz).
func extractTar(src, outDir string, wrap decompressor) ([]Entry, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("opening tar %s: %w", src, err)
	}
	defer f.Close()

	stream, err := wrap(f)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	tr := tar.NewReader(stream)
	var entries []Entry
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar %s: %w", src, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		path, err := safeJoin(outDir, hdr.Name)
		if err != nil {
			return nil, err
		}

		data, err := readBounded(tr)
		if err != nil {
			return nil, fmt.Errorf("reading tar member %s: %w", hdr.Name, err)
		}

		entry, err := writeMember(path, data)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// extractStream expands a single-file compressed stream (gz, zst,
// lz4) to its trimmed name.
func extractStream(src, outDir string, wrap decompressor) ([]Entry, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", src, err)
	}
	defer f.Close()

	stream, err := wrap(f)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", src, err)
	}
	defer stream.Close()

	data, err := readBounded(stream)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", src, err)
	}

	path, err := safeJoin(outDir, streamBaseName(src))
	if err != nil {
		return nil, err
	}
	entry, err := writeMember(path, data)
	if err != nil {
		return nil, err
	}
	return []Entry{entry}, nil
}
