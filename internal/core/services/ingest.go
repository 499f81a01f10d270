package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/skema-cli/internal/archive"
	"github.com/custodia-labs/skema-cli/internal/core/domain"
	"github.com/custodia-labs/skema-cli/internal/core/ports/driven"
	"github.com/custodia-labs/skema-cli/internal/logger"
)

// IngestStats summarises one traversal.
type IngestStats struct {
	// FilesRegistered is the number of new manifest records created.
	FilesRegistered int

	// FilesKnown is the number of files whose content was already in
	// the manifest (dedup hits).
	FilesKnown int

	// ArchivesExpanded is the number of archives opened.
	ArchivesExpanded int

	// Skipped is the number of files or archives abandoned on error
	// or cycle.
	Skipped int
}

// Traversal discovers every leaf file reachable from a set of source
// roots, including files nested inside archives to unbounded depth,
// and registers each unique content exactly once. It runs
// single-threaded per call; archive expansion order is irrelevant and
// keeping the scratch area single-writer avoids contention.
type Traversal struct {
	contents     driven.ContentStore
	manifest     driven.ManifestStore
	scratchDir   string
	sourceSystem string
}

// NewTraversal creates an ingestion traversal. scratchDir receives
// extracted archive members; sourceSystem is recorded on every
// manifest record this traversal creates.
func NewTraversal(contents driven.ContentStore, manifest driven.ManifestStore, scratchDir, sourceSystem string) *Traversal {
	return &Traversal{
		contents:     contents,
		manifest:     manifest,
		scratchDir:   scratchDir,
		sourceSystem: sourceSystem,
	}
}

// Ingest walks the source roots and registers every leaf file by
// content. Archives are expanded through a FIFO work queue rather
// than recursion: the queue has no stack-depth limit and gives one
// place to guard against cyclic or self-referential archives. A
// failure on one file is logged and skipped, never aborting siblings;
// only an unusable scratch area is fatal.
func (t *Traversal) Ingest(ctx context.Context, roots []string) (*IngestStats, error) {
	if err := os.MkdirAll(t.scratchDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}

	stats := &IngestStats{}

	// Pass 1: register plain files and seed the archive queue.
	var queue []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Error("Skipping %s: %v", path, err)
				stats.Skipped++
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if archive.IsArchive(path) {
				queue = append(queue, path)
			} else {
				t.register(ctx, path, stats)
			}
			return nil
		})
		if err != nil {
			return stats, fmt.Errorf("walking %s: %w", root, err)
		}
	}

	// Pass 2: drain the archive queue. Two guards keep adversarial
	// inputs from looping forever: a canonical-path set (the same
	// archive reached twice on disk) and a content-hash set (an
	// archive extracted from inside itself lands on a fresh path but
	// carries the same bytes).
	seenPaths := make(map[string]struct{})
	seenContent := make(map[domain.Hash]struct{})

	for len(queue) > 0 {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		src := queue[0]
		queue = queue[1:]

		canonical := canonicalPath(src)
		if _, dup := seenPaths[canonical]; dup {
			logger.Warn("Skipping already-processed archive %s", src)
			stats.Skipped++
			continue
		}
		seenPaths[canonical] = struct{}{}

		data, err := os.ReadFile(src)
		if err != nil {
			logger.Error("Skipping unreadable archive %s: %v", src, err)
			stats.Skipped++
			continue
		}
		hash := domain.HashBytes(data)
		if _, dup := seenContent[hash]; dup {
			logger.Warn("Skipping archive %s: identical content already expanded (cycle?)", src)
			stats.Skipped++
			continue
		}
		seenContent[hash] = struct{}{}

		entries, err := archive.Extract(src, t.scratchDir)
		if err != nil {
			// Corrupted archive: abandon the branch. Its
			// unextracted children are never discovered and the
			// archive is not retried within this run.
			logger.Error("Abandoning corrupt archive %s: %v", src, err)
			stats.Skipped++
			continue
		}
		stats.ArchivesExpanded++
		logger.Debug("Expanded %s: %d members", src, len(entries))

		for _, entry := range entries {
			if entry.IsArchive {
				queue = append(queue, entry.Path)
			} else {
				t.register(ctx, entry.Path, stats)
			}
		}
	}

	logger.Info("Ingest complete: %d registered, %d known, %d archives, %d skipped",
		stats.FilesRegistered, stats.FilesKnown, stats.ArchivesExpanded, stats.Skipped)
	return stats, nil
}

// register hashes one leaf file and records it if its content is new.
// The order matters: the content write must succeed before a manifest
// record may reference it.
func (t *Traversal) register(ctx context.Context, path string, stats *IngestStats) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("Skipping unreadable file %s: %v", path, err)
		stats.Skipped++
		return
	}

	hash := domain.HashBytes(data)
	known, err := t.manifest.Exists(ctx, hash)
	if err != nil {
		logger.Error("Skipping %s: manifest lookup failed: %v", path, err)
		stats.Skipped++
		return
	}
	if known {
		logger.Debug("Already ingested %s (%s)", path, hash.Short())
		stats.FilesKnown++
		return
	}

	if _, err := t.contents.Put(ctx, data); err != nil {
		logger.Error("Skipping %s: content store write failed: %v", path, err)
		stats.Skipped++
		return
	}

	rec := &domain.ManifestRecord{
		FileHash:     hash,
		OriginalPath: path,
		SourceSystem: t.sourceSystem,
		Status:       domain.StatusRawIngested,
		IngestedAt:   time.Now().UTC(),
	}
	if err := t.manifest.Insert(ctx, rec); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Another path raced the same content in; not an error.
			stats.FilesKnown++
			return
		}
		logger.Error("Skipping %s: manifest insert failed: %v", path, err)
		stats.Skipped++
		return
	}

	logger.Debug("Registered %s as %s", path, hash.Short())
	stats.FilesRegistered++
}

// canonicalPath resolves symlinks and relative segments so the
// processed-set sees one name per on-disk archive.
func canonicalPath(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return resolved
	}
	return abs
}
