package ingest

import (
	"path/filepath"
	"strings"
)

// PlainTextImporter handles .txt, .log and any unrecognized extension.
type PlainTextImporter struct{}

// CanHandle returns true for plain text extensions. Also acts as fallback.
func (t *PlainTextImporter) CanHandle(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".txt" || ext == ".log" || ext == ""
}

// Decode returns the bytes as text.
func (t *PlainTextImporter) Decode(data []byte) (string, error) {
	return string(data), nil
}

// Name returns "text".
func (t *PlainTextImporter) Name() string { return "text" }
