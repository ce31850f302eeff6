package fileops

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTempDirStructure builds a small documentation tree.
func createTempDirStructure(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"ADRs/adr-001.md":                  "# One",
		"ADRs/adr-002.md":                  "# Two",
		"ADRs/notes.txt":                   "plain",
		"ADRs/drafts/adr-003.md":           "# Three",
		"ADRs/.hidden.md":                  "# Hidden",
		"ADRs/node_modules/pkg/readme.md":  "# Vendored",
		"StyleGuides/csharp.md":            "# CSharp",
		"StyleGuides/generated/skip-me.md": "# Generated",
	}
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func TestNewDirectoryScanner(t *testing.T) {
	root := createTempDirStructure(t)

	t.Run("valid directory", func(t *testing.T) {
		scanner, err := NewDirectoryScanner(root, nil)
		require.NoError(t, err)
		defer scanner.Close()
		assert.Equal(t, root, scanner.Root())
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := NewDirectoryScanner("  ", nil)
		assert.Error(t, err)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := NewDirectoryScanner(filepath.Join(root, "nope"), nil)
		assert.Error(t, err)
	})

	t.Run("file instead of directory", func(t *testing.T) {
		_, err := NewDirectoryScanner(filepath.Join(root, "ADRs", "adr-001.md"), nil)
		assert.Error(t, err)
	})

	t.Run("reserved directory", func(t *testing.T) {
		_, err := NewDirectoryScanner("/etc", nil)
		assert.Error(t, err)
	})
}

func TestSecureDirectoryScanner_ScanDirectory(t *testing.T) {
	root := createTempDirStructure(t)

	scanner, err := NewDirectoryScanner(root, &DirectoryScanOptions{
		SkipUnreadableDirs: true,
		SkipPatterns:       getDefaultSkipPatterns(),
		Include:            []string{"**/*.md"},
	})
	require.NoError(t, err)
	defer scanner.Close()

	files, err := scanner.ScanDirectory("ADRs")
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"ADRs/adr-001.md", "ADRs/adr-002.md", "ADRs/drafts/adr-003.md"}, paths)
}

func TestSecureDirectoryScanner_MissingCategory(t *testing.T) {
	root := createTempDirStructure(t)

	scanner, err := NewDirectoryScanner(root, nil)
	require.NoError(t, err)
	defer scanner.Close()

	_, err = scanner.ScanDirectory("Structures")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestSecureDirectoryScanner_RejectsTraversal(t *testing.T) {
	root := createTempDirStructure(t)

	scanner, err := NewDirectoryScanner(root, nil)
	require.NoError(t, err)
	defer scanner.Close()

	_, err = scanner.ScanDirectory("../")
	assert.Error(t, err)

	_, err = scanner.ReadFile("ADRs/../../secret.md", 0)
	assert.Error(t, err)
}

func TestSecureDirectoryScanner_MaxDepth(t *testing.T) {
	root := createTempDirStructure(t)

	scanner, err := NewDirectoryScanner(root, &DirectoryScanOptions{
		MaxDepth: 1,
		Include:  []string{"**/*.md"},
	})
	require.NoError(t, err)
	defer scanner.Close()

	files, err := scanner.ScanDirectory("ADRs")
	require.NoError(t, err)
	for _, f := range files {
		assert.NotContains(t, f.Path, "drafts")
	}
}

func TestSecureDirectoryScanner_IgnoreFile(t *testing.T) {
	root := createTempDirStructure(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".docignore"), []byte("generated\n*.txt\n"), 0o644))

	scanner, err := NewDirectoryScanner(root, &DirectoryScanOptions{
		Ignore: LoadIgnoreFiles(root),
	})
	require.NoError(t, err)
	defer scanner.Close()

	files, err := scanner.ScanDirectory("StyleGuides")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "StyleGuides/csharp.md", files[0].Path)

	files, err = scanner.ScanDirectory("ADRs")
	require.NoError(t, err)
	for _, f := range files {
		assert.NotEqual(t, "notes.txt", f.Name)
	}
}

func TestLoadIgnoreFiles_None(t *testing.T) {
	assert.Nil(t, LoadIgnoreFiles(t.TempDir()))
}

func TestSecureDirectoryScanner_ReadFile(t *testing.T) {
	root := createTempDirStructure(t)

	scanner, err := NewDirectoryScanner(root, nil)
	require.NoError(t, err)
	defer scanner.Close()

	data, err := scanner.ReadFile("ADRs/adr-001.md", 1024)
	require.NoError(t, err)
	assert.Equal(t, "# One", string(data))

	_, err = scanner.ReadFile("ADRs/adr-001.md", 2)
	assert.True(t, errors.Is(err, ErrTooLarge))

	_, err = scanner.ReadFile("ADRs/missing.md", 0)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = scanner.ReadFile("ADRs", 0)
	assert.Error(t, err)
}

func TestSecureDirectoryScanner_Close(t *testing.T) {
	root := createTempDirStructure(t)

	scanner, err := NewDirectoryScanner(root, nil)
	require.NoError(t, err)
	require.NoError(t, scanner.Close())
	require.NoError(t, scanner.Close())

	_, err = scanner.ScanDirectory("ADRs")
	assert.Error(t, err)
}
