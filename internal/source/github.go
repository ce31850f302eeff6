package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"archdocs/internal/logging"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// ProactiveRate throttles anonymous and authenticated callers alike to
	// stay well inside GitHub's hourly quota.
	ProactiveRate = 5

	// ProactiveBurst lets a category scan issue a few listings back to back.
	ProactiveBurst = 10
)

// APIError represents a GitHub API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// GitHubSource lists and fetches documents through the GitHub contents API.
// The API returns one directory level per request, so List is not recursive;
// ListMarkdown descends into the returned directory entries.
type GitHubSource struct {
	gh       *gh.Client
	owner    string
	repo     string
	ref      string
	basePath string
	limiter  *rate.Limiter
	logger   *logging.AppLogger
}

// NewGitHubSource builds a source for cfg. A non-empty cfg.Token is sent as
// a bearer token through an oauth2 client.
func NewGitHubSource(ctx context.Context, cfg Config, logger *logging.AppLogger) *GitHubSource {
	var hc *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		hc = oauth2.NewClient(ctx, ts)
		hc.Timeout = DefaultTimeout
	} else {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	return NewGitHubSourceWithClient(gh.NewClient(hc), cfg, logger)
}

// NewGitHubSourceWithClient wraps an existing go-github client. Tests use it
// to point the client at an httptest server.
func NewGitHubSourceWithClient(client *gh.Client, cfg Config, logger *logging.AppLogger) *GitHubSource {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &GitHubSource{
		gh:       client,
		owner:    cfg.Owner,
		repo:     cfg.Repository,
		ref:      cfg.Branch,
		basePath: JoinPath(cfg.BasePath),
		limiter:  rate.NewLimiter(rate.Limit(ProactiveRate), ProactiveBurst),
		logger:   logger.With("source", "github", "repo", cfg.RepoSlug()),
	}
}

// List returns the immediate children of p. A 404 yields an empty slice.
func (s *GitHubSource) List(ctx context.Context, p string) ([]Entry, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	full := s.repoPath(p)
	opts := &gh.RepositoryContentGetOptions{Ref: s.ref}
	file, dir, _, err := s.gh.Repositories.GetContents(ctx, s.owner, s.repo, full, opts)
	if err != nil {
		err = s.wrapError(err, "list contents")
		if isNotFoundStatus(err) {
			s.logger.Debug("Directory not present", "path", full)
			return []Entry{}, nil
		}
		return nil, unavailable("list", p, err)
	}

	if file != nil {
		return nil, unavailable("list", p, fmt.Errorf("path is a file, not a directory"))
	}

	entries := make([]Entry, 0, len(dir))
	for _, item := range dir {
		kind := EntryFile
		switch item.GetType() {
		case "dir":
			kind = EntryDirectory
		case "file":
		default:
			// symlinks and submodules are not followed
			continue
		}
		entries = append(entries, Entry{
			Name: item.GetName(),
			Path: s.relPath(item.GetPath()),
			Kind: kind,
		})
	}
	return entries, nil
}

// Fetch returns the decoded file at p. Files over the contents API inline
// limit are downloaded through the raw media type.
func (s *GitHubSource) Fetch(ctx context.Context, p string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	full := s.repoPath(p)
	opts := &gh.RepositoryContentGetOptions{Ref: s.ref}
	content, _, _, err := s.gh.Repositories.GetContents(ctx, s.owner, s.repo, full, opts)
	if err != nil {
		err = s.wrapError(err, "get contents")
		if isNotFoundStatus(err) {
			return "", notFound(p)
		}
		return "", unavailable("fetch", p, err)
	}

	if content == nil {
		return "", unavailable("fetch", p, fmt.Errorf("path is a directory, not a file"))
	}

	if content.GetEncoding() == "none" && content.GetSize() > 0 {
		return s.download(ctx, p, full)
	}

	decoded, err := content.GetContent()
	if err != nil {
		return "", unavailable("fetch", p, fmt.Errorf("decode content: %w", err))
	}
	return decoded, nil
}

func (s *GitHubSource) download(ctx context.Context, p, full string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.RepositoryContentGetOptions{Ref: s.ref}
	rc, _, err := s.gh.Repositories.DownloadContents(ctx, s.owner, s.repo, full, opts)
	if err != nil {
		err = s.wrapError(err, "download contents")
		if isNotFoundStatus(err) {
			return "", notFound(p)
		}
		return "", unavailable("fetch", p, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", unavailable("fetch", p, err)
	}
	return string(data), nil
}

// Describe returns "github:owner/repo@ref/base".
func (s *GitHubSource) Describe() string {
	d := fmt.Sprintf("github:%s/%s", s.owner, s.repo)
	if s.ref != "" {
		d += "@" + s.ref
	}
	if s.basePath != "" {
		d += "/" + s.basePath
	}
	return d
}

// IsRemote reports true: every read is an API request.
func (s *GitHubSource) IsRemote() bool {
	return true
}

// repoPath maps a base-relative path to a repository path.
func (s *GitHubSource) repoPath(p string) string {
	return JoinPath(s.basePath, p)
}

// relPath maps a repository path back to a base-relative path.
func (s *GitHubSource) relPath(p string) string {
	if s.basePath == "" {
		return p
	}
	return strings.TrimPrefix(p, s.basePath+"/")
}

// wrapError converts go-github errors to APIError.
func (s *GitHubSource) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
		if ghErr.Response.Request != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return apiErr
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return fmt.Errorf("%s: github rate limit exceeded, resets at %s",
			operation, rateLimitErr.Rate.Reset.Format(time.RFC3339))
	}

	return fmt.Errorf("%s: %w", operation, err)
}

func isNotFoundStatus(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
