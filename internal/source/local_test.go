package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDocs(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func TestLocalSource_ListAndFetch(t *testing.T) {
	root := writeDocs(t, map[string]string{
		"ADRs/adr-001.md":        "# Use Aspire\n\nAspire simplifies orchestration.\n",
		"ADRs/nested/adr-002.md": "# Nested",
		"ADRs/readme.txt":        "ignored by pattern",
	})

	src, err := NewLocalSource(root, []string{"**/*.md"}, 0, nil)
	require.NoError(t, err)
	defer src.Close()

	entries, err := src.List(context.Background(), "ADRs")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Name: "adr-001.md", Path: "ADRs/adr-001.md", Kind: EntryFile}, entries[0])
	assert.Equal(t, "ADRs/nested/adr-002.md", entries[1].Path)

	text, err := src.Fetch(context.Background(), "ADRs/adr-001.md")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "# Use Aspire"))

	assert.NotEmpty(t, src.Describe())
	assert.Equal(t, src.Describe(), src.Root())
}

func TestLocalSource_MissingCategory(t *testing.T) {
	root := writeDocs(t, map[string]string{"ADRs/a.md": "# A"})

	src, err := NewLocalSource(root, nil, 0, nil)
	require.NoError(t, err)
	defer src.Close()

	entries, err := src.List(context.Background(), "Structures")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalSource_FetchErrors(t *testing.T) {
	root := writeDocs(t, map[string]string{
		"ADRs/a.md":   "# A",
		"ADRs/big.md": strings.Repeat("x", 64),
	})

	src, err := NewLocalSource(root, nil, 32, nil)
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Fetch(context.Background(), "ADRs/missing.md")
	assert.True(t, IsNotFound(err))

	_, err = src.Fetch(context.Background(), "ADRs/big.md")
	assert.True(t, errors.Is(err, ErrUnavailable))

	_, err = src.Fetch(context.Background(), "../outside.md")
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestLocalSource_Cancelled(t *testing.T) {
	root := writeDocs(t, map[string]string{"ADRs/a.md": "# A"})

	src, err := NewLocalSource(root, nil, 0, nil)
	require.NoError(t, err)
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = src.List(ctx, "ADRs")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = src.Fetch(ctx, "ADRs/a.md")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewLocalSource_InvalidPath(t *testing.T) {
	_, err := NewLocalSource(filepath.Join(t.TempDir(), "missing"), nil, 0, nil)
	assert.Error(t, err)
}
