// Package document loads review targets from disk and gives the rest of
// the system a line-indexed view with a stable content hash.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Document is an immutable snapshot of a file at load time.
type Document struct {
	Path    string
	Content string
	Hash    string // hex sha256 of Content
	Lines   []string
}

// ErrNotFound reports that the file does not exist at the given path.
// Callers translate this into their own recoverable error shape.
var ErrNotFound = errors.New("document not found")

// Load reads the file at path and indexes its lines.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	return FromContent(path, string(raw)), nil
}

// FromContent builds a Document without touching the filesystem.
func FromContent(path, content string) *Document {
	sum := sha256.Sum256([]byte(content))
	return &Document{
		Path:    path,
		Content: content,
		Hash:    hex.EncodeToString(sum[:]),
		Lines:   splitLines(content),
	}
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	return strings.Split(normalized, "\n")
}

// LineCount returns the number of indexed lines.
func (d *Document) LineCount() int {
	return len(d.Lines)
}

// Slice returns lines [start, end] using 1-based inclusive line numbers,
// clamped to the document bounds. An empty slice means the range falls
// entirely outside the document.
func (d *Document) Slice(start, end int) []string {
	if start < 1 {
		start = 1
	}
	if end > len(d.Lines) {
		end = len(d.Lines)
	}
	if start > end {
		return nil
	}
	return d.Lines[start-1 : end]
}

// NumberedContent renders the document with 1-based line number prefixes
// for prompts that reference locations by line.
func (d *Document) NumberedContent() string {
	var b strings.Builder
	for i, line := range d.Lines {
		fmt.Fprintf(&b, "%d: %s\n", i+1, line)
	}
	return b.String()
}
