// Package file loads the format catalog from a TOML file on disk.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
	"github.com/custodia-labs/skema-cli/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.CatalogLoader = (*Loader)(nil)

// Loader reads format recipes from a TOML catalog file. The file maps
// header fingerprints to recipes:
//
//	[formats.<fingerprint>]
//	description      = "daily OHLCV bars"
//	parser_kind      = "delimited"
//	cleaner_id       = "ohlcv_daily"
//	target_table     = "ohlcv_daily"
//	required_columns = ["date", "open", "high", "low", "close", "volume"]
//	load_mode        = "append"
//
//	[formats.<fingerprint>.parser_options]
//	delimiter = ";"
//	skip_rows = 2
type Loader struct {
	path string
}

// NewLoader creates a loader for the given catalog path. If path is
// empty, defaults to ~/.skema/catalog.toml.
func NewLoader(path string) (*Loader, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".skema", "catalog.toml")
	}
	return &Loader{path: path}, nil
}

// Path returns the catalog file path.
func (l *Loader) Path() string {
	return l.path
}

// catalogFile is the on-disk shape of the catalog.
type catalogFile struct {
	Formats map[string]recipeEntry `toml:"formats"`
}

type recipeEntry struct {
	Description     string               `toml:"description"`
	ParserKind      string               `toml:"parser_kind"`
	ParserOptions   domain.ParserOptions `toml:"parser_options"`
	CleanerID       string               `toml:"cleaner_id"`
	TargetTable     string               `toml:"target_table"`
	RequiredColumns []string             `toml:"required_columns"`
	DefaultValues   map[string]string    `toml:"default_values"`
	LoadMode        string               `toml:"load_mode"`
}

// Load parses the catalog file and validates every recipe. A catalog
// with any invalid recipe is rejected whole; a half-loaded catalog
// would silently quarantine files whose recipes were dropped.
func (l *Loader) Load(ctx context.Context) (*domain.Catalog, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: catalog file %s", domain.ErrNotFound, l.path)
		}
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var parsed catalogFile
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parsing catalog: %v", domain.ErrInvalidInput, err)
	}

	recipes := make(map[string]domain.FormatRecipe, len(parsed.Formats))
	for fingerprint, entry := range parsed.Formats {
		recipe, err := entry.toRecipe(fingerprint)
		if err != nil {
			return nil, err
		}
		recipes[fingerprint] = recipe
	}

	return domain.NewCatalog(recipes), nil
}

func (e recipeEntry) toRecipe(fingerprint string) (domain.FormatRecipe, error) {
	var zero domain.FormatRecipe

	kind := domain.ParserKind(e.ParserKind)
	if !domain.ValidParserKind(kind) {
		return zero, fmt.Errorf("%w: recipe %s: unknown parser_kind %q", domain.ErrInvalidInput, fingerprint, e.ParserKind)
	}

	mode := domain.LoadMode(e.LoadMode)
	if e.LoadMode == "" {
		mode = domain.LoadAppend
	} else if !domain.ValidLoadMode(mode) {
		return zero, fmt.Errorf("%w: recipe %s: unknown load_mode %q", domain.ErrInvalidInput, fingerprint, e.LoadMode)
	}

	if e.CleanerID == "" {
		return zero, fmt.Errorf("%w: recipe %s: cleaner_id is required", domain.ErrInvalidInput, fingerprint)
	}
	if e.TargetTable == "" {
		return zero, fmt.Errorf("%w: recipe %s: target_table is required", domain.ErrInvalidInput, fingerprint)
	}

	if kind == domain.ParserFixedWidth && len(e.ParserOptions.Columns) == 0 {
		return zero, fmt.Errorf("%w: recipe %s: fixed-width recipes need parser_options.columns", domain.ErrInvalidInput, fingerprint)
	}

	return domain.FormatRecipe{
		Fingerprint:     fingerprint,
		Description:     e.Description,
		ParserKind:      kind,
		ParserOptions:   e.ParserOptions,
		CleanerID:       e.CleanerID,
		TargetTable:     e.TargetTable,
		RequiredColumns: e.RequiredColumns,
		DefaultValues:   e.DefaultValues,
		LoadMode:        mode,
	}, nil
}
