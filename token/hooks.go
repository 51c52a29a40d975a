package token

import "bytes"

// ScannerHooks lets a Reader delegate whitespace skipping and string delimiter search,
// e.g. to a vectorized scanner
type ScannerHooks interface {
	// SkipWhitespace returns position of the first non whitespace byte at or after pos
	SkipWhitespace(data []byte, pos int) int
	// FindQuoteOrEscape returns position of the closing quote or of the first escape, the other one is -1
	FindQuoteOrEscape(data []byte, pos int) (quotePos int, escapePos int)
}

type byteScanner struct{}

func (byteScanner) SkipWhitespace(data []byte, pos int) int {
	for pos < len(data) && isSpace(data[pos]) {
		pos++
	}
	return pos
}

func (byteScanner) FindQuoteOrEscape(data []byte, pos int) (int, int) {
	if pos >= len(data) {
		return -1, -1
	}
	offset := bytes.IndexAny(data[pos:], "\"\\")
	switch {
	case offset < 0:
		return -1, -1
	case data[pos+offset] == '"':
		return pos + offset, -1
	}
	return -1, pos + offset
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\r' || b == '\t'
}
