package source

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrNotFound means the path does not exist at the source.
	ErrNotFound = errors.New("source: not found")

	// ErrUnavailable covers every other failure: I/O, network, malformed responses.
	ErrUnavailable = errors.New("source: unavailable")
)

// IsNotFound reports whether err means "path does not exist".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// unavailable wraps cause so that errors.Is(err, ErrUnavailable) holds.
func unavailable(op, p string, cause error) error {
	return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, op, p, cause)
}

// notFound wraps ErrNotFound with the missing path.
func notFound(p string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, p)
}

// Kind selects the ContentSource implementation.
type Kind string

const (
	KindLocal  Kind = "local"
	KindGitHub Kind = "github"
	KindGit    Kind = "git"
)

// String returns the string representation of the source kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid checks if the kind is a known source kind.
func (k Kind) IsValid() bool {
	return k == KindLocal || k == KindGitHub || k == KindGit
}

// IsRemote reports whether the kind talks to a repository host.
func (k Kind) IsRemote() bool {
	return k == KindGitHub || k == KindGit
}

// EntryKind distinguishes files from directories.
type EntryKind string

const (
	EntryFile      EntryKind = "file"
	EntryDirectory EntryKind = "directory"
)

// Entry is one item returned by List.
type Entry struct {
	Name string
	Path string
	Kind EntryKind
}

// ContentSource is the capability the document index depends on.
type ContentSource interface {
	// List returns entries under p. Implementations may return directories,
	// which callers descend into with further List calls. A missing p yields
	// an empty slice and no error.
	List(ctx context.Context, p string) ([]Entry, error)

	// Fetch returns the text of the file at p. A missing file yields an error
	// satisfying IsNotFound; other failures wrap ErrUnavailable.
	Fetch(ctx context.Context, p string) (string, error)

	// Describe returns a short human-readable location for logs and status.
	Describe() string
}

// Remote is implemented by sources whose reads are network round trips.
// The index keeps no document text for them after a scan and fetches it
// on first use instead.
type Remote interface {
	IsRemote() bool
}

// markdownExtensions contains supported markdown file extensions
var markdownExtensions = []string{
	".md", ".mdown", ".mkdn", ".mkd", ".markdown",
}

// IsMarkdown checks if a filename has a markdown extension.
func IsMarkdown(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, m := range markdownExtensions {
		if ext == m {
			return true
		}
	}
	return false
}

// ListMarkdown walks p with repeated List calls and returns every markdown
// file below it, depth first in listing order. Directories deeper than
// maxDepth levels below p are not visited.
func ListMarkdown(ctx context.Context, src ContentSource, p string, maxDepth int) ([]Entry, error) {
	if maxDepth <= 0 {
		maxDepth = 20
	}
	var out []Entry
	if err := listMarkdown(ctx, src, p, 1, maxDepth, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func listMarkdown(ctx context.Context, src ContentSource, p string, depth, maxDepth int, out *[]Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := src.List(ctx, p)
	if err != nil {
		return err
	}

	for _, e := range entries {
		switch e.Kind {
		case EntryDirectory:
			if depth >= maxDepth {
				continue
			}
			if err := listMarkdown(ctx, src, e.Path, depth+1, maxDepth, out); err != nil {
				return err
			}
		default:
			if IsMarkdown(e.Name) {
				*out = append(*out, e)
			}
		}
	}
	return nil
}

// JoinPath joins slash-separated path elements, dropping empty ones.
func JoinPath(elems ...string) string {
	var parts []string
	for _, e := range elems {
		e = strings.Trim(strings.ReplaceAll(e, "\\", "/"), "/")
		if e != "" && e != "." {
			parts = append(parts, e)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return path.Clean(strings.Join(parts, "/"))
}
