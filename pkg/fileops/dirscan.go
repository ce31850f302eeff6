package fileops

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// ErrTooLarge is returned by ReadFile when a file exceeds the size limit.
var ErrTooLarge = errors.New("file exceeds size limit")

// IgnoreMatcher decides whether a root-relative, slash-separated path is excluded.
type IgnoreMatcher interface {
	MatchesPath(p string) bool
}

// DirectoryScanOptions configures the behavior of directory scanning operations.
type DirectoryScanOptions struct {
	// SkipUnreadableDirs determines whether to skip directories that cannot be read
	// or to return an error.
	SkipUnreadableDirs bool

	// MaxDepth limits recursion below the directory passed to ScanDirectory.
	MaxDepth int

	// IncludeHidden determines whether to include entries that start with '.'
	IncludeHidden bool

	// SkipPatterns contains directory names that are never descended into.
	SkipPatterns []string

	// Include holds doublestar patterns matched against the path relative to
	// the scanned directory. Empty means every file.
	Include []string

	// Ignore excludes root-relative paths, typically compiled from .gitignore.
	Ignore IgnoreMatcher
}

// FileInfo represents a file or directory discovered during scanning.
type FileInfo struct {
	// Name is the base filename without path components
	Name string

	// Path is the slash-separated path relative to the scan root
	Path string

	// IsDir indicates whether this entry represents a directory
	IsDir bool

	// Size is the file size in bytes (0 for directories)
	Size int64

	// ModTime is the last modification time
	ModTime time.Time
}

// SecureDirectoryScanner lists and reads files inside an os.Root boundary.
// It is safe for concurrent use once constructed.
type SecureDirectoryScanner struct {
	root     *os.Root
	opts     DirectoryScanOptions
	scanRoot string
}

// NewDirectoryScanner opens scanPath as a secure root.
//
// The path may start with "~/". It must exist, be a directory, and must not
// be a reserved system directory.
func NewDirectoryScanner(scanPath string, opts *DirectoryScanOptions) (*SecureDirectoryScanner, error) {
	if opts == nil {
		opts = getDefaultScanOptions()
	}

	if strings.TrimSpace(scanPath) == "" {
		return nil, fmt.Errorf("scan path cannot be empty")
	}

	absPath, err := filepath.Abs(ExpandPath(scanPath))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve scan path: %w", err)
	}

	if IsReservedDirectory(absPath) {
		return nil, fmt.Errorf("cannot scan reserved/system directory: %s", absPath)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access scan path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan path is not a directory: %s", absPath)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("cannot create secure scan root: %w", err)
	}

	o := *opts
	if o.MaxDepth <= 0 {
		o.MaxDepth = 20
	}

	return &SecureDirectoryScanner{
		root:     root,
		opts:     o,
		scanRoot: absPath,
	}, nil
}

// getDefaultScanOptions returns sensible default scanning options.
func getDefaultScanOptions() *DirectoryScanOptions {
	return &DirectoryScanOptions{
		SkipUnreadableDirs: true,
		MaxDepth:           20,
		IncludeHidden:      false,
		SkipPatterns:       getDefaultSkipPatterns(),
	}
}

// getDefaultSkipPatterns returns commonly skipped directory patterns.
func getDefaultSkipPatterns() []string {
	return []string{
		"node_modules",
		".git",
		"vendor",
		"bin",
		"obj",
		"dist",
		".cache",
		".vs",
		".vscode",
		".idea",
	}
}

// Root returns the absolute path of the scan root.
func (s *SecureDirectoryScanner) Root() string {
	return s.scanRoot
}

// Close releases resources associated with the scanner.
func (s *SecureDirectoryScanner) Close() error {
	if s.root != nil {
		err := s.root.Close()
		s.root = nil
		return err
	}
	return nil
}

// ScanDirectory recursively lists files below dir (relative to the scan root).
//
// A missing dir yields an error satisfying errors.Is(err, fs.ErrNotExist).
// Results are in directory-read order, which os.ReadDir sorts by name.
func (s *SecureDirectoryScanner) ScanDirectory(dir string) ([]FileInfo, error) {
	if s.root == nil {
		return nil, fmt.Errorf("scanner has been closed")
	}

	start := CleanRelative(dir)
	if start != "." {
		if err := ValidatePathSecurity(start); err != nil {
			return nil, err
		}
	}

	info, err := s.root.Stat(filepath.FromSlash(start))
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", start)
	}

	var results []FileInfo
	visited := make(map[string]bool)
	if err := s.scanRecursive(start, start, 1, visited, &results); err != nil {
		return nil, fmt.Errorf("directory scan failed: %w", err)
	}
	return results, nil
}

func (s *SecureDirectoryScanner) scanRecursive(base, relativePath string, depth int, visited map[string]bool, results *[]FileInfo) error {
	if depth > s.opts.MaxDepth {
		return nil
	}
	if visited[relativePath] {
		return nil
	}
	visited[relativePath] = true

	entries, err := s.readDir(relativePath)
	if err != nil {
		if s.opts.SkipUnreadableDirs && relativePath != base {
			return nil
		}
		return fmt.Errorf("failed to read directory %s: %w", relativePath, err)
	}

	for _, entry := range entries {
		entryPath := joinRel(relativePath, entry.Name())

		if entry.IsDir() {
			if s.shouldSkipDirectory(entry.Name(), entryPath) {
				continue
			}
			if err := s.scanRecursive(base, entryPath, depth+1, visited, results); err != nil {
				return err
			}
			continue
		}

		if !s.shouldIncludeFile(base, entry.Name(), entryPath) {
			continue
		}

		fi, err := s.createFileInfo(entry, entryPath)
		if err != nil {
			if s.opts.SkipUnreadableDirs {
				continue
			}
			return fmt.Errorf("failed to get file info for %s: %w", entryPath, err)
		}
		*results = append(*results, fi)
	}

	return nil
}

// ReadFile reads a root-relative file, refusing files larger than maxSize
// bytes (maxSize <= 0 disables the limit).
func (s *SecureDirectoryScanner) ReadFile(rel string, maxSize int64) ([]byte, error) {
	if s.root == nil {
		return nil, fmt.Errorf("scanner has been closed")
	}

	clean := CleanRelative(rel)
	if err := ValidatePathSecurity(clean); err != nil {
		return nil, err
	}

	f, err := s.root.Open(filepath.FromSlash(clean))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", clean)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("%s: %d bytes: %w", clean, info.Size(), ErrTooLarge)
	}

	return io.ReadAll(f)
}

func (s *SecureDirectoryScanner) readDir(rel string) ([]fs.DirEntry, error) {
	dir, err := s.root.Open(filepath.FromSlash(rel))
	if err != nil {
		return nil, err
	}
	defer dir.Close()

	entries, err := dir.ReadDir(-1)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(entries, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return entries, nil
}

// shouldSkipDirectory determines if a directory should be skipped based on configured rules.
func (s *SecureDirectoryScanner) shouldSkipDirectory(dirName, rel string) bool {
	if !s.opts.IncludeHidden && strings.HasPrefix(dirName, ".") {
		return true
	}
	if slices.Contains(s.opts.SkipPatterns, dirName) {
		return true
	}
	return s.opts.Ignore != nil && s.opts.Ignore.MatchesPath(rel+"/")
}

// shouldIncludeFile applies hidden-file, ignore-file and include-pattern rules.
func (s *SecureDirectoryScanner) shouldIncludeFile(base, fileName, rel string) bool {
	if !s.opts.IncludeHidden && strings.HasPrefix(fileName, ".") {
		return false
	}
	if s.opts.Ignore != nil && s.opts.Ignore.MatchesPath(rel) {
		return false
	}
	if len(s.opts.Include) == 0 {
		return true
	}

	within := rel
	if base != "." {
		within = strings.TrimPrefix(rel, base+"/")
	}
	for _, pattern := range s.opts.Include {
		if matched, err := doublestar.Match(pattern, within); err == nil && matched {
			return true
		}
	}
	return false
}

// createFileInfo creates a FileInfo struct from directory entry information.
func (s *SecureDirectoryScanner) createFileInfo(entry fs.DirEntry, rel string) (FileInfo, error) {
	info, err := entry.Info()
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to get file info: %w", err)
	}

	fi := FileInfo{
		Name:    entry.Name(),
		Path:    rel,
		IsDir:   entry.IsDir(),
		ModTime: info.ModTime(),
	}
	if !entry.IsDir() {
		fi.Size = info.Size()
	}
	return fi, nil
}

// LoadIgnoreFiles compiles .gitignore and .docignore found directly under
// root. It returns nil when neither file exists.
func LoadIgnoreFiles(root string) IgnoreMatcher {
	var lines []string
	for _, name := range []string{".gitignore", ".docignore"} {
		data, err := os.ReadFile(filepath.Join(ExpandPath(root), name))
		if err != nil {
			continue
		}
		lines = append(lines, strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")...)
	}
	if len(lines) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(lines...)
}

func joinRel(dir, name string) string {
	if dir == "." || dir == "" {
		return name
	}
	return path.Join(dir, name)
}
