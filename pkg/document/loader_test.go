package document

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.md"))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLoadReadsAndHashes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "draft.md")
	require.NoError(t, os.WriteFile(path, []byte("alpha\nbeta\ngamma"), 0o644))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Path)
	assert.Equal(t, 3, doc.LineCount())
	assert.Len(t, doc.Hash, 64)

	same := FromContent("other/path.md", "alpha\nbeta\ngamma")
	assert.Equal(t, doc.Hash, same.Hash)

	changed := FromContent(path, "alpha\nbeta\ngamma!")
	assert.NotEqual(t, doc.Hash, changed.Hash)
}

func TestSliceClampsBounds(t *testing.T) {
	doc := FromContent("d.md", "one\ntwo\nthree\nfour")

	assert.Equal(t, []string{"two", "three"}, doc.Slice(2, 3))
	assert.Equal(t, []string{"one", "two"}, doc.Slice(-5, 2))
	assert.Equal(t, []string{"four"}, doc.Slice(4, 99))
	assert.Nil(t, doc.Slice(10, 20))
}

func TestSplitLinesNormalizesCRLF(t *testing.T) {
	doc := FromContent("d.md", "one\r\ntwo\r\nthree")
	assert.Equal(t, []string{"one", "two", "three"}, doc.Lines)
}

func TestNumberedContent(t *testing.T) {
	doc := FromContent("d.md", "a\nb")
	assert.Equal(t, "1: a\n2: b\n", doc.NumberedContent())
}
