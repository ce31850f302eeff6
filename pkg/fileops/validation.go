package fileops

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ValidatePathSecurity checks a path that is meant to be relative to a scan root.
//
// The function rejects:
//   - Empty or whitespace-only paths
//   - Absolute paths
//   - Any ".." segment, before or after cleaning
//   - NUL bytes
//
// It performs static analysis only and does not access the filesystem.
//
// Usage example:
//
//	if err := fileops.ValidatePathSecurity("../../etc/passwd"); err != nil {
//	    return err
//	}
func ValidatePathSecurity(p string) error {
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if strings.ContainsRune(p, 0) {
		return fmt.Errorf("path contains invalid characters")
	}

	slashed := filepath.ToSlash(p)
	if path.IsAbs(slashed) || filepath.IsAbs(p) {
		return fmt.Errorf("absolute paths are not allowed")
	}

	for _, segment := range strings.Split(slashed, "/") {
		if segment == ".." {
			return fmt.Errorf("path traversal not allowed")
		}
	}

	if cleaned := path.Clean(slashed); cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("path traversal not allowed")
	}

	return nil
}

// CleanRelative normalizes a caller-supplied relative path to the slash form
// used by the scanner. "." and "" both mean the scan root.
func CleanRelative(p string) string {
	cleaned := path.Clean(filepath.ToSlash(strings.TrimSpace(p)))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" {
		return "."
	}
	return cleaned
}

// ExpandPath expands a leading "~/" to the user's home directory.
//
// Usage example:
//
//	expanded := fileops.ExpandPath("~/Documents/docs")
//	// Returns something like "/home/user/Documents/docs"
func ExpandPath(p string) string {
	if p == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}

// IsReservedDirectory reports whether p is a system directory that must never
// be used as a documentation root.
func IsReservedDirectory(p string) bool {
	clean := filepath.Clean(p)
	for _, reserved := range getReservedDirectories() {
		if clean == reserved {
			return true
		}
	}
	return false
}

func getReservedDirectories() []string {
	return []string{
		"/", "/etc", "/bin", "/sbin", "/usr", "/usr/bin", "/usr/sbin",
		"/var", "/sys", "/proc", "/dev", "/boot", "/root",
		`C:\`, `C:\Windows`, `C:\Windows\System32`, `C:\Program Files`,
	}
}
