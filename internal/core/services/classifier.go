package services

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
	"github.com/custodia-labs/skema-cli/internal/logger"
	"github.com/custodia-labs/skema-cli/internal/parsers"
	"github.com/custodia-labs/skema-cli/internal/parsers/spreadsheet"
)

// fingerprintSeparator joins the sorted, normalised column names
// before digesting. Fixed protocol constant: changing it invalidates
// every catalog.
const fingerprintSeparator = "|"

// encodingXLSX marks classifications that came from a workbook's
// cells rather than a decoded text prefix.
const encodingXLSX = "xlsx"

// ClassifierConfig tunes the format classifier. Zero values fall back
// to the defaults.
type ClassifierConfig struct {
	// Encodings is the priority-ordered candidate encoding list.
	Encodings []string

	// PrefixBytes bounds how much of the file is decoded. The header
	// lives at the top; decoding whole files would be wasted work.
	PrefixBytes int

	// MaxHeaderLines bounds the line scan for a header.
	MaxHeaderLines int

	// MinHeaderFields is the minimum number of delimiter-separated
	// fields a line needs to be a plausible header.
	MinHeaderFields int

	// Delimiters are the candidate field separators, tried in order
	// per line.
	Delimiters []rune
}

func (c *ClassifierConfig) applyDefaults() {
	if len(c.Encodings) == 0 {
		c.Encodings = parsers.DefaultEncodings()
	}
	if c.PrefixBytes <= 0 {
		c.PrefixBytes = 64 << 10
	}
	if c.MaxHeaderLines <= 0 {
		c.MaxHeaderLines = 50
	}
	if c.MinHeaderFields <= 0 {
		c.MinHeaderFields = 2
	}
	if len(c.Delimiters) == 0 {
		c.Delimiters = []rune{',', ';', '\t', '|'}
	}
}

// Classifier identifies which cataloged format recipe (if any) a raw
// byte payload matches, without looking at its file name or path.
type Classifier struct {
	cfg ClassifierConfig
}

// NewClassifier creates a classifier with the given configuration.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	cfg.applyDefaults()
	return &Classifier{cfg: cfg}
}

// Classify searches every (encoding, header-line, delimiter)
// combination within its scan limits for a fingerprint present in the
// catalog; the first hit wins. When nothing matches, ok is false and
// the returned Classification (nil if no line even looked like a
// header) carries the diagnostics of the first plausible candidate so
// the quarantine records which fingerprint was computed.
func (c *Classifier) Classify(data []byte, catalog *domain.Catalog) (*domain.Classification, bool) {
	if spreadsheet.IsWorkbook(data) {
		return c.classifyWorkbook(data, catalog)
	}

	prefix := data
	if len(prefix) > c.cfg.PrefixBytes {
		prefix = prefix[:c.cfg.PrefixBytes]
	}

	var firstCandidate *domain.Classification
	for _, encName := range c.cfg.Encodings {
		text, err := parsers.Decode(prefix, encName)
		if err != nil {
			logger.Debug("classifier: %s decode failed: %v", encName, err)
			continue
		}
		if !plausibleText(text) {
			continue
		}

		lines := parsers.SplitLines(text)
		if len(lines) > c.cfg.MaxHeaderLines {
			lines = lines[:c.cfg.MaxHeaderLines]
		}

		for lineIdx, line := range lines {
			fields, ok := c.headerFields(line)
			if !ok {
				continue
			}
			fp := Fingerprint(fields)
			candidate := &domain.Classification{
				Fingerprint: fp,
				Encoding:    encName,
				HeaderLine:  lineIdx,
				HeaderText:  line,
			}
			if recipe, hit := catalog.Lookup(fp); hit {
				candidate.Recipe = recipe
				return candidate, true
			}
			if firstCandidate == nil {
				firstCandidate = candidate
			}
		}
	}
	return firstCandidate, false
}

// classifyWorkbook fingerprints XLSX headers from the first sheet's
// cells; workbooks never decode through the text path.
func (c *Classifier) classifyWorkbook(data []byte, catalog *domain.Catalog) (*domain.Classification, bool) {
	rows, err := spreadsheet.ReadRows(data, "")
	if err != nil {
		logger.Debug("classifier: workbook read failed: %v", err)
		return nil, false
	}
	if len(rows) > c.cfg.MaxHeaderLines {
		rows = rows[:c.cfg.MaxHeaderLines]
	}

	var firstCandidate *domain.Classification
	for rowIdx, row := range rows {
		fields := normalizeFields(row)
		if len(fields) < c.cfg.MinHeaderFields {
			continue
		}
		fp := Fingerprint(fields)
		candidate := &domain.Classification{
			Fingerprint: fp,
			Encoding:    encodingXLSX,
			HeaderLine:  rowIdx,
			HeaderText:  strings.Join(row, ","),
		}
		if recipe, hit := catalog.Lookup(fp); hit {
			candidate.Recipe = recipe
			return candidate, true
		}
		if firstCandidate == nil {
			firstCandidate = candidate
		}
	}
	return firstCandidate, false
}

// headerFields splits a line into normalised header fields if it is a
// plausible header: enough fields under some candidate delimiter and
// not an obvious comment or preamble line.
func (c *Classifier) headerFields(line string) ([]string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//") {
		return nil, false
	}
	for _, delim := range c.cfg.Delimiters {
		fields := normalizeFields(strings.Split(trimmed, string(delim)))
		if len(fields) >= c.cfg.MinHeaderFields {
			return fields, true
		}
	}
	return nil, false
}

// normalizeFields normalises raw header fields and drops empties.
func normalizeFields(raw []string) []string {
	fields := make([]string, 0, len(raw))
	for _, f := range raw {
		if n := domain.NormalizeColumn(f); n != "" {
			fields = append(fields, n)
		}
	}
	return fields
}

// Fingerprint computes the format fingerprint of normalised header
// fields: sort by code point (column order must not matter — vendors
// reorder columns between releases), join with the fixed separator,
// digest.
func Fingerprint(fields []string) string {
	sorted := make([]string, len(fields))
	copy(sorted, fields)
	sort.Strings(sorted)

	sum := sha256.Sum256([]byte(strings.Join(sorted, fingerprintSeparator)))
	return hex.EncodeToString(sum[:])
}

// FingerprintHeader computes the fingerprint of a raw header string
// split on the given delimiter. This is the offline path operators
// use to build new catalog entries.
func FingerprintHeader(header string, delim rune) string {
	return Fingerprint(normalizeFields(strings.Split(header, string(delim))))
}

// plausibleText rejects decodes that "succeeded" mechanically but
// produced garbage: embedded NULs or a heavy share of replacement
// characters.
func plausibleText(text string) bool {
	if strings.ContainsRune(text, 0) {
		return false
	}
	if n := strings.Count(text, "�"); n > 0 && n*50 > len(text) {
		return false
	}
	return true
}
