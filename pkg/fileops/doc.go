// Package fileops provides read-only, root-bounded access to a documentation tree.
//
// All reads go through an os.Root opened on the scan directory, so relative
// paths supplied by callers (including ones built from user input) cannot
// escape the tree through ".." segments or symlinks.
//
// # Validation Patterns
//
// Static checks run before touching the filesystem:
//
// 1. **Path Security**: ValidatePathSecurity() - rejects traversal and absolute paths
// 2. **File Size**: the scanner's ReadFile enforces a byte limit
//
// # Example: Scanning a Category
//
//	scanner, err := fileops.NewDirectoryScanner("~/docs", &fileops.DirectoryScanOptions{
//	    MaxDepth: 10,
//	    Include:  []string{"**/*.md"},
//	})
//	if err != nil {
//	    return fmt.Errorf("open docs: %w", err)
//	}
//	defer scanner.Close()
//
//	files, err := scanner.ScanDirectory("ADRs")
//	// files[i].Path is slash-separated and relative to the scan root
//
// # Ignore Files
//
// When the scan root contains a .gitignore or .docignore, matching paths are
// excluded from results (see LoadIgnoreFiles).
package fileops
