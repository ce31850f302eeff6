package source

import (
	"fmt"
	"strings"
)

// DefaultMaxFileSize caps documents at 1 MiB, the GitHub contents API limit.
const DefaultMaxFileSize int64 = 1 << 20

// Config is the resolved, already-validated description of a document source.
// It is assembled by internal/config and treated as opaque by the index.
type Config struct {
	Kind Kind

	// BasePath is the directory holding the category folders. For local
	// sources it is a filesystem path; for remote kinds it is the path inside
	// the repository.
	BasePath string

	Owner      string
	Repository string
	Branch     string

	// RemoteURL and CloneDir apply to KindGit only.
	RemoteURL string
	CloneDir  string

	// Categories are the folder names scanned under BasePath.
	Categories []string

	// Patterns are doublestar include patterns for local scans.
	Patterns []string

	MaxFileSize int64

	// Token authenticates remote requests; empty means anonymous access.
	Token string
}

// Validate checks the fields required by the selected kind.
func (c Config) Validate() error {
	if !c.Kind.IsValid() {
		return fmt.Errorf("unknown source kind %q (expected local, github or git)", c.Kind)
	}
	if c.Kind == KindLocal && strings.TrimSpace(c.BasePath) == "" {
		return fmt.Errorf("local source requires a base path")
	}
	if c.Kind.IsRemote() && c.RemoteURL == "" {
		if strings.TrimSpace(c.Owner) == "" || strings.TrimSpace(c.Repository) == "" {
			return fmt.Errorf("%s source requires owner and repository", c.Kind)
		}
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	return nil
}

// RepoSlug returns "owner/repository".
func (c Config) RepoSlug() string {
	return c.Owner + "/" + c.Repository
}

// GitRemoteURL returns the configured clone URL or the GitHub HTTPS default.
func (c Config) GitRemoteURL() string {
	if c.RemoteURL != "" {
		return c.RemoteURL
	}
	return fmt.Sprintf("https://github.com/%s/%s.git", c.Owner, c.Repository)
}

func (c Config) maxFileSize() int64 {
	if c.MaxFileSize > 0 {
		return c.MaxFileSize
	}
	return DefaultMaxFileSize
}
