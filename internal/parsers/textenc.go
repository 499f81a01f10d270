// Package parsers holds the text-decoding support shared by the
// per-format parser packages and the classifier. Each parser kind
// (delimited, spreadsheet, fixedwidth) lives in its own subpackage.
package parsers

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Candidate encoding names, in the default classification priority
// order. UTF-8 first because it is both the most common and the most
// falsifiable; the single-byte charmaps last because they decode
// anything.
const (
	EncUTF8        = "utf-8"
	EncUTF16LE     = "utf-16le"
	EncUTF16BE     = "utf-16be"
	EncWindows1252 = "windows-1252"
	EncLatin1      = "latin-1"
)

// DefaultEncodings is the priority-ordered candidate list used when a
// run does not configure its own.
func DefaultEncodings() []string {
	return []string{EncUTF8, EncUTF16LE, EncUTF16BE, EncWindows1252, EncLatin1}
}

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Decode decodes raw bytes using the named encoding. UTF-8 input is
// validated rather than silently repaired, so classification can fall
// through to the next candidate.
func Decode(data []byte, name string) (string, error) {
	switch name {
	case EncUTF8:
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", fmt.Errorf("invalid UTF-8 input")
		}
		return string(data), nil
	case EncUTF16LE:
		return decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder(), data)
	case EncUTF16BE:
		return decodeWith(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder(), data)
	case EncWindows1252:
		return decodeWith(charmap.Windows1252.NewDecoder(), data)
	case EncLatin1:
		return decodeWith(charmap.ISO8859_1.NewDecoder(), data)
	}
	return "", fmt.Errorf("unknown encoding %q", name)
}

func decodeWith(dec *encoding.Decoder, data []byte) (string, error) {
	out, err := dec.Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decoding: %w", err)
	}
	// Decoders strip a leading BOM inconsistently; normalise it away.
	return string(bytes.TrimPrefix(out, []byte("\uFEFF"))), nil
}

// SplitLines splits decoded text into lines, tolerating CRLF and
// lone-CR line endings.
func SplitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lines = append(lines, text[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, text[start:i])
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}
