package domain

import "sort"

// ParserKind selects the tokenisation strategy for a format.
type ParserKind string

const (
	// ParserDelimited covers CSV, TSV and friends.
	ParserDelimited ParserKind = "delimited"

	// ParserSpreadsheet covers XLSX workbooks.
	ParserSpreadsheet ParserKind = "spreadsheet"

	// ParserFixedWidth covers column-offset text layouts.
	ParserFixedWidth ParserKind = "fixedwidth"
)

// ValidParserKind reports whether k names a known parser.
func ValidParserKind(k ParserKind) bool {
	switch k {
	case ParserDelimited, ParserSpreadsheet, ParserFixedWidth:
		return true
	}
	return false
}

// LoadMode controls how cleaned rows reach the target table.
type LoadMode string

const (
	// LoadAppend inserts rows after whatever is already there.
	LoadAppend LoadMode = "append"

	// LoadReplace clears the target table before inserting, which
	// makes re-runs of the same content idempotent.
	LoadReplace LoadMode = "replace"
)

// ValidLoadMode reports whether m is a known load mode.
func ValidLoadMode(m LoadMode) bool {
	return m == LoadAppend || m == LoadReplace
}

// FixedColumn describes one field of a fixed-width layout. Offsets
// are rune positions, half-open [Start, End).
type FixedColumn struct {
	Name  string `toml:"name"`
	Start int    `toml:"start"`
	End   int    `toml:"end"`
}

// ParserOptions tunes the parser named by a recipe's ParserKind.
// Unused fields are ignored by the other kinds.
type ParserOptions struct {
	// Delimiter is the field separator for delimited files.
	// Defaults to a comma.
	Delimiter string `toml:"delimiter"`

	// SkipRows is the number of leading preamble lines to drop
	// before the header.
	SkipRows int `toml:"skip_rows"`

	// Sheet selects the worksheet of a spreadsheet. Empty means the
	// first sheet.
	Sheet string `toml:"sheet"`

	// Columns defines the fixed-width layout. Required for
	// fixed-width recipes.
	Columns []FixedColumn `toml:"columns"`
}

// FormatRecipe binds a header fingerprint to everything needed to
// turn a matching file into loaded rows.
type FormatRecipe struct {
	// Fingerprint is the catalog key: the digest of the normalised,
	// sorted column-name set.
	Fingerprint string

	// Description is a human label for the format.
	Description string

	// ParserKind selects the parse strategy.
	ParserKind ParserKind

	// ParserOptions tunes the parser.
	ParserOptions ParserOptions

	// CleanerID names the cleaning routine in the cleaner registry.
	CleanerID string

	// TargetTable is the curated table cleaned rows load into.
	TargetTable string

	// RequiredColumns must all be present (after normalisation) in
	// the parsed header; a missing column fails the whole file.
	RequiredColumns []string

	// DefaultValues fills columns the source omits.
	DefaultValues map[string]string

	// LoadMode controls append versus replace-then-append.
	LoadMode LoadMode
}

// Catalog is the read-only set of format recipes for a run. It is
// loaded once at startup and passed by handle to the classifier and
// workers; there is no process-wide catalog state.
type Catalog struct {
	recipes map[string]FormatRecipe
}

// NewCatalog builds a catalog from recipes keyed by fingerprint.
func NewCatalog(recipes map[string]FormatRecipe) *Catalog {
	copied := make(map[string]FormatRecipe, len(recipes))
	for fp, r := range recipes {
		r.Fingerprint = fp
		copied[fp] = r
	}
	return &Catalog{recipes: copied}
}

// Lookup returns the recipe for a fingerprint, if one is cataloged.
func (c *Catalog) Lookup(fingerprint string) (*FormatRecipe, bool) {
	r, ok := c.recipes[fingerprint]
	if !ok {
		return nil, false
	}
	return &r, true
}

// Len returns the number of cataloged recipes.
func (c *Catalog) Len() int {
	return len(c.recipes)
}

// Fingerprints returns all catalog keys in sorted order.
func (c *Catalog) Fingerprints() []string {
	fps := make([]string, 0, len(c.recipes))
	for fp := range c.recipes {
		fps = append(fps, fp)
	}
	sort.Strings(fps)
	return fps
}
