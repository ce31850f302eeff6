package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"archdocs/internal/logging"
	"archdocs/pkg/fileops"
)

// LocalSource reads documents from a directory on disk. All access goes
// through a fileops.SecureDirectoryScanner, so paths cannot escape the base.
type LocalSource struct {
	scanner     *fileops.SecureDirectoryScanner
	maxFileSize int64
	logger      *logging.AppLogger
}

// NewLocalSource opens basePath as the document root.
//
// patterns are doublestar include patterns; .gitignore and .docignore files
// directly under basePath are honoured.
func NewLocalSource(basePath string, patterns []string, maxFileSize int64, logger *logging.AppLogger) (*LocalSource, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	scanner, err := fileops.NewDirectoryScanner(basePath, &fileops.DirectoryScanOptions{
		SkipUnreadableDirs: true,
		SkipPatterns:       []string{"node_modules", ".git", "vendor"},
		Include:            patterns,
		Ignore:             fileops.LoadIgnoreFiles(basePath),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local source: %w", err)
	}

	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	return &LocalSource{
		scanner:     scanner,
		maxFileSize: maxFileSize,
		logger:      logger.With("source", "local"),
	}, nil
}

// List returns every matching file below p in one recursive pass.
func (s *LocalSource) List(ctx context.Context, p string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files, err := s.scanner.ScanDirectory(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("Directory not present", "path", p)
			return []Entry{}, nil
		}
		return nil, unavailable("list", p, err)
	}

	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		entries = append(entries, Entry{Name: f.Name, Path: f.Path, Kind: EntryFile})
	}
	return entries, nil
}

// Fetch reads the file at p as UTF-8 text.
func (s *LocalSource) Fetch(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := s.scanner.ReadFile(p, s.maxFileSize)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", notFound(p)
		}
		return "", unavailable("fetch", p, err)
	}
	return string(data), nil
}

// Describe returns the absolute base directory.
func (s *LocalSource) Describe() string {
	return s.scanner.Root()
}

// Root returns the absolute base directory, used by the file watcher.
func (s *LocalSource) Root() string {
	return s.scanner.Root()
}

// Close releases the underlying os.Root.
func (s *LocalSource) Close() error {
	return s.scanner.Close()
}
