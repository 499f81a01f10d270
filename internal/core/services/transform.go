package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
	"github.com/custodia-labs/skema-cli/internal/core/ports/driven"
	"github.com/custodia-labs/skema-cli/internal/logger"
)

// TransformWorker processes one pending manifest entry at a time:
// fetch, classify, parse, clean, load, report. Workers only read the
// content store and catalog and write to curated tables; they never
// touch the manifest. Every failure mode is converted into a result —
// a worker must never take down the pool.
type TransformWorker struct {
	contents      driven.ContentStore
	tables        driven.TableStore
	rowQuarantine driven.RowQuarantineStore
	classifier    *Classifier
	catalog       *domain.Catalog
	cleaners      driven.CleanerRegistry
	parsers       map[domain.ParserKind]driven.Parser
}

// NewTransformWorker wires a worker. The parsers slice is keyed into
// a lookup by kind; a recipe naming an absent kind fails that file.
func NewTransformWorker(
	contents driven.ContentStore,
	tables driven.TableStore,
	rowQuarantine driven.RowQuarantineStore,
	classifier *Classifier,
	catalog *domain.Catalog,
	cleaners driven.CleanerRegistry,
	parserList []driven.Parser,
) *TransformWorker {
	byKind := make(map[domain.ParserKind]driven.Parser, len(parserList))
	for _, p := range parserList {
		byKind[p.Kind()] = p
	}
	return &TransformWorker{
		contents:      contents,
		tables:        tables,
		rowQuarantine: rowQuarantine,
		classifier:    classifier,
		catalog:       catalog,
		cleaners:      cleaners,
		parsers:       byKind,
	}
}

// Process runs the full transform pipeline for one file hash and
// always returns a result; panics anywhere in the pipeline are
// recovered into a TRANSFORMATION_FAILED result.
func (w *TransformWorker) Process(ctx context.Context, hash domain.Hash) (res *domain.TransformResult) {
	res = &domain.TransformResult{
		FileHash:  hash,
		StartedAt: time.Now().UTC(),
	}
	defer func() {
		if r := recover(); r != nil {
			res.Status = domain.StatusTransformationFailed
			res.ErrorMessage = fmt.Sprintf("worker panic: %v", r)
		}
		res.EndedAt = time.Now().UTC()
	}()

	// 1. Fetch. A manifest entry without backing content is
	// corruption, fatal for this file.
	data, err := w.contents.Get(ctx, hash)
	if err != nil {
		res.Status = domain.StatusTransformationFailed
		res.ErrorMessage = fmt.Sprintf("fetch content: %v", err)
		return res
	}

	// 2. Classify. A miss is an expected business outcome, not a bug.
	classification, ok := w.classifier.Classify(data, w.catalog)
	if !ok {
		res.Status = domain.StatusQuarantined
		if classification != nil {
			res.MatchedFingerprint = classification.Fingerprint
			res.ErrorMessage = fmt.Sprintf("no catalog recipe for fingerprint %s (header %q)",
				classification.Fingerprint, classification.HeaderText)
		} else {
			res.ErrorMessage = "no plausible header found"
		}
		return res
	}
	recipe := classification.Recipe
	res.MatchedFingerprint = classification.Fingerprint
	logger.Debug("Classified %s as %q (encoding=%s line=%d)",
		hash.Short(), recipe.Description, classification.Encoding, classification.HeaderLine)

	// 3. Parse.
	parser, found := w.parsers[recipe.ParserKind]
	if !found {
		res.Status = domain.StatusTransformationFailed
		res.ErrorMessage = fmt.Sprintf("no parser for kind %q", recipe.ParserKind)
		return res
	}
	table, err := parser.Parse(ctx, data, recipe.ParserOptions, classification.Encoding)
	if err != nil {
		res.Status = domain.StatusTransformationFailed
		res.ErrorMessage = fmt.Sprintf("parse: %v", err)
		return res
	}

	// 4. Required columns. Missing columns fail the whole file;
	// missing values are the cleaner's row-level problem.
	if missing := table.MissingColumns(recipe.RequiredColumns); len(missing) > 0 {
		res.Status = domain.StatusTransformationFailed
		res.ErrorMessage = fmt.Sprintf("%v: missing required columns %s",
			domain.ErrSchema, strings.Join(missing, ", "))
		return res
	}

	// 5. Clean, via the registry.
	cleaner, err := w.cleaners.Get(recipe.CleanerID)
	if err != nil {
		res.Status = domain.StatusTransformationFailed
		res.ErrorMessage = fmt.Sprintf("resolve cleaner: %v", err)
		return res
	}
	cleaned, err := cleaner.Clean(ctx, table, recipe)
	if err != nil {
		res.Status = domain.StatusTransformationFailed
		res.ErrorMessage = fmt.Sprintf("clean: %v", err)
		return res
	}

	// 6. Load.
	rowCount, err := w.tables.Load(ctx, recipe.TargetTable, cleaned.Columns, cleaned.Rows, recipe.LoadMode)
	if err != nil {
		res.Status = domain.StatusTransformationFailed
		res.ErrorMessage = fmt.Sprintf("load into %s: %v", recipe.TargetTable, err)
		return res
	}

	// Persist row quarantine beside the load. Losing diagnostics is
	// not worth failing a completed load, so this only warns.
	if len(cleaned.Quarantined) > 0 {
		entries := make([]domain.RowQuarantine, len(cleaned.Quarantined))
		for i, q := range cleaned.Quarantined {
			q.ID = uuid.New().String()
			q.FileHash = hash
			entries[i] = q
		}
		if err := w.rowQuarantine.Add(ctx, entries); err != nil {
			logger.Warn("Persisting %d quarantined rows for %s failed: %v",
				len(entries), hash.Short(), err)
		}
		res.QuarantinedRowCount = int64(len(entries))
	}

	res.Status = domain.StatusTransformedSuccess
	res.TargetTable = recipe.TargetTable
	res.ProcessedRowCount = rowCount
	return res
}
