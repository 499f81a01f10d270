package cleaners

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// sortedKeys returns map keys in stable order, so defaulted columns
// land in the same position on every run.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// dateLayouts are the accepted input date formats, most common first.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02.01.2006",
	"20060102",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// parseDate normalises any accepted layout to ISO 8601 date form.
func parseDate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unrecognised date %q", raw)
}

// parseTimestamp normalises a timestamp to RFC 3339 UTC.
func parseTimestamp(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty timestamp")
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339Nano), nil
		}
	}
	// Epoch seconds or milliseconds.
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC().Format(time.RFC3339Nano), nil
		}
		return time.Unix(n, 0).UTC().Format(time.RFC3339Nano), nil
	}
	return "", fmt.Errorf("unrecognised timestamp %q", raw)
}

// parseFloat parses a decimal that may carry thousands separators or
// a European decimal comma.
func parseFloat(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		// "1234,56" style decimal comma.
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unrecognised number %q", raw)
	}
	return v, nil
}

// parseInt parses an integer, tolerating thousands separators and a
// trailing ".0" some vendors emit for counts.
func parseInt(raw string) (int64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty integer")
	}
	s = strings.TrimSuffix(s, ".0")
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unrecognised integer %q", raw)
	}
	return v, nil
}
