package indexer

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Legacy corpora are rarely UTF-8. Each file is decoded independently: BOM
// sniffing first, then the configured single-byte codepage. Decoding is
// strict; a byte the codec cannot map makes the whole file unreadable rather
// than partially indexed.

var codepages = map[string]*charmap.Charmap{
	"windows-1250": charmap.Windows1250,
	"windows-1251": charmap.Windows1251,
	"windows-1252": charmap.Windows1252,
	"windows-1253": charmap.Windows1253,
	"windows-1254": charmap.Windows1254,
	"windows-1257": charmap.Windows1257,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-2":   charmap.ISO8859_2,
	"iso-8859-15":  charmap.ISO8859_15,
	"cp437":        charmap.CodePage437,
	"cp850":        charmap.CodePage850,
}

// KnownEncoding reports whether name is a supported codepage name
func KnownEncoding(name string) bool {
	if name == "utf-8" {
		return true
	}
	_, ok := codepages[name]
	return ok
}

// decodeFile decodes raw bytes into text using BOM detection or the hint
// codepage. Returns the decoded text and the codec name actually used.
func decodeFile(raw []byte, hint string) (string, string, error) {
	switch {
	case bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}):
		body := raw[3:]
		if !utf8.Valid(body) {
			return "", "utf-8", fmt.Errorf("UTF-8 BOM present but content is not valid UTF-8")
		}
		return string(body), "utf-8", nil

	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE}), bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		text, err := dec.Bytes(raw)
		if err != nil {
			return "", "utf-16", fmt.Errorf("invalid UTF-16 stream: %w", err)
		}
		// The decoder substitutes U+FFFD for lone surrogates and truncated
		// code units instead of failing; strictness requires rejecting those
		if i := bytes.IndexRune(text, utf8.RuneError); i >= 0 {
			return "", "utf-16", fmt.Errorf("lone surrogate or truncated code unit at decoded offset %d", i)
		}
		return string(text), "utf-16", nil
	}

	if hint == "utf-8" {
		if !utf8.Valid(raw) {
			return "", "utf-8", fmt.Errorf("content is not valid UTF-8")
		}
		return string(raw), "utf-8", nil
	}

	cm, ok := codepages[hint]
	if !ok {
		return "", hint, fmt.Errorf("unsupported encoding %q", hint)
	}
	text, err := decodeCharmap(raw, cm)
	if err != nil {
		return "", hint, err
	}
	return text, hint, nil
}

// decodeCharmap decodes strictly: any byte the codepage leaves undefined is
// an error, never a replacement rune.
func decodeCharmap(raw []byte, cm *charmap.Charmap) (string, error) {
	var sb bytes.Buffer
	sb.Grow(len(raw))
	for i, b := range raw {
		r := cm.DecodeByte(b)
		if r == utf8.RuneError {
			return "", fmt.Errorf("byte 0x%02X at offset %d has no mapping in %s", b, i, cm)
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}
