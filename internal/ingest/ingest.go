// Package ingest loads clinical text exports for the pipeline.
//
// Each supported format (plain text, JSON envelopes) has its own importer
// that implements the Importer interface. Load picks an importer by file
// extension, enforces the input size limit and normalizes the text the same
// way for every source.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// DefaultMaxBytes is the input size limit, 16 MiB.
const DefaultMaxBytes = 16 << 20

// ErrInputTooLarge is returned when an input exceeds the size limit.
var ErrInputTooLarge = errors.New("ingest: input exceeds size limit")

// Source is one loaded input document.
type Source struct {
	Text   string // normalized text
	Path   string // absolute path, or "-" for stdin
	Format string // importer name
	Bytes  int    // size before normalization
}

// Importer handles a specific input format.
type Importer interface {
	// CanHandle returns true if this importer supports the given file path.
	CanHandle(path string) bool

	// Decode turns raw file bytes into clinical text.
	Decode(data []byte) (string, error)

	// Name identifies the format.
	Name() string
}

// Importers lists the built-in importers, most specific first. The plain
// text importer accepts any extension and goes last.
func Importers() []Importer {
	return []Importer{&JSONImporter{}, &PlainTextImporter{}}
}

// Loader reads inputs under a size limit.
type Loader struct {
	MaxBytes  int64
	Importers []Importer
}

// NewLoader returns a loader with the built-in importers. maxBytes <= 0
// selects DefaultMaxBytes.
func NewLoader(maxBytes int64) *Loader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Loader{MaxBytes: maxBytes, Importers: Importers()}
}

// Load reads path, or stdin when path is "-".
func (l *Loader) Load(ctx context.Context, path string) (*Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path == "-" {
		return l.Read(os.Stdin, "-")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("reading input: %s is a directory", path)
	}
	if info.Size() > l.MaxBytes {
		return nil, fmt.Errorf("%s is %d bytes (limit %d): %w", path, info.Size(), l.MaxBytes, ErrInputTooLarge)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	defer f.Close()
	return l.Read(f, absPath)
}

// Read consumes r under the size limit. name selects the importer by
// extension and is recorded as the source path.
func (l *Loader) Read(r io.Reader, name string) (*Source, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if int64(len(data)) > l.MaxBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes: %w", name, l.MaxBytes, ErrInputTooLarge)
	}

	imp := l.importerFor(name)
	text, err := imp.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s as %s: %w", name, imp.Name(), err)
	}
	return &Source{Text: Clean(text), Path: name, Format: imp.Name(), Bytes: len(data)}, nil
}

func (l *Loader) importerFor(path string) Importer {
	for _, imp := range l.Importers {
		if imp.CanHandle(path) {
			return imp
		}
	}
	return &PlainTextImporter{}
}

var bom = []byte{0xEF, 0xBB, 0xBF}

// Clean normalizes line endings to "\n", drops a leading byte order mark and
// NUL bytes, and replaces invalid UTF-8 sequences.
func Clean(text string) string {
	text = strings.TrimPrefix(text, string(bom))
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\x00", "")
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	return text
}

func hasBOM(data []byte) bool { return bytes.HasPrefix(data, bom) }
