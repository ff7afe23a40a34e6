// Package extract provides plain-text extraction from uploaded document bytes.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat marks a file whose extension is outside the
	// configured allow-list.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrCorruptInput marks content that cannot be parsed as its declared
	// format.
	ErrCorruptInput = errors.New("corrupt input")
)

// Extractor extracts plain text from document bytes based on the declared
// filename extension, restricted to a configured allow-list.
type Extractor struct {
	allowed map[string]struct{}
}

// NewExtractor returns an extractor accepting only the given extensions
// (leading dot, case-insensitive). An empty list allows every supported
// format.
func NewExtractor(allowedExts []string) *Extractor {
	allowed := make(map[string]struct{}, len(allowedExts))
	for _, ext := range allowedExts {
		allowed[normalizeExt(ext)] = struct{}{}
	}
	return &Extractor{allowed: allowed}
}

// Allowed reports whether the filename's extension passes the allow-list.
func (e *Extractor) Allowed(filename string) bool {
	if len(e.allowed) == 0 {
		return true
	}
	_, ok := e.allowed[normalizeExt(filepath.Ext(filename))]
	return ok
}

// Extract returns the plain text of content, parsed according to the
// filename's extension. Returns ErrUnsupportedFormat for extensions outside
// the allow-list or without a parser, and ErrCorruptInput when the content
// does not match its declared format.
func (e *Extractor) Extract(filename string, content []byte) (string, error) {
	ext := normalizeExt(filepath.Ext(filename))
	if !e.Allowed(filename) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".html", ".htm":
		return extractHTML(content)
	case ".txt", ".md":
		return extractPlain(content)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func normalizeExt(ext string) string {
	return strings.ToLower(ext)
}
