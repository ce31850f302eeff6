package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"archdocs/internal/logging"
	"archdocs/pkg/fileops"

	"github.com/adrg/xdg"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/transport/http"
)

// Syncer is implemented by sources that must pull remote state before a scan.
// The index calls Sync at the start of every build.
type Syncer interface {
	Sync(ctx context.Context) error
}

// GitSource mirrors a repository into a local clone with go-git and serves
// documents from the clone through a LocalSource.
//
// Sync clones on first use and afterwards fetches and hard-resets to the
// remote branch. A working tree with local modifications is left alone.
type GitSource struct {
	remoteURL   string
	branch      string
	cloneDir    string
	basePath    string
	token       string
	patterns    []string
	maxFileSize int64
	logger      *logging.AppLogger

	mu    sync.RWMutex
	local *LocalSource
}

// NewGitSource creates a GitSource. Nothing touches the network until Sync.
func NewGitSource(cfg Config, logger *logging.AppLogger) *GitSource {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	cloneDir := cfg.CloneDir
	if cloneDir == "" {
		cloneDir = DefaultCloneDir(cfg)
	}
	return &GitSource{
		remoteURL:   cfg.GitRemoteURL(),
		branch:      cfg.Branch,
		cloneDir:    cloneDir,
		basePath:    JoinPath(cfg.BasePath),
		token:       cfg.Token,
		patterns:    cfg.Patterns,
		maxFileSize: cfg.maxFileSize(),
		logger:      logger.With("source", "git", "remote", cfg.GitRemoteURL()),
	}
}

// DefaultCloneDir returns $XDG_CACHE_HOME/archdocs/<owner>-<repository>.
func DefaultCloneDir(cfg Config) string {
	name := cfg.Owner + "-" + cfg.Repository
	if cfg.Owner == "" || cfg.Repository == "" {
		if info, err := ParseGitURL(cfg.RemoteURL); err == nil {
			name = info.Owner + "-" + info.Repo
		} else {
			name = "mirror"
		}
	}
	return filepath.Join(xdg.CacheHome, "archdocs", name)
}

// Sync brings the local clone up to date and reopens the document root.
//
// When a fetch fails but a clone of the same remote is already on disk, the
// existing mirror is still opened and the fetch error is returned.
func (g *GitSource) Sync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	clonePath, err := g.validateLocalPath()
	if err != nil {
		return err
	}

	status, err := g.validateCloneDirectory(clonePath)
	if err != nil {
		return err
	}

	var fetchErr error
	switch status {
	case dirEmpty:
		err := g.withAuthFallback(ctx, func(ctx context.Context, auth *http.BasicAuth) error {
			return g.performClone(ctx, clonePath, auth)
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return unavailable("sync", g.remoteURL, err)
		}
	case dirSameRepo:
		fetchErr = g.withAuthFallback(ctx, func(ctx context.Context, auth *http.BasicAuth) error {
			return g.performFetch(ctx, clonePath, auth)
		})
		if fetchErr != nil && ctx.Err() == nil {
			g.logger.Warn("Fetch failed, serving the existing mirror", "localPath", clonePath, "error", fetchErr)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := g.open(clonePath); err != nil {
		return unavailable("sync", g.remoteURL, err)
	}
	if fetchErr != nil {
		return unavailable("sync", g.remoteURL, fetchErr)
	}
	return nil
}

// open points the source at the documents inside clonePath.
func (g *GitSource) open(clonePath string) error {
	docsRoot := clonePath
	if g.basePath != "" {
		docsRoot = filepath.Join(clonePath, filepath.FromSlash(g.basePath))
	}
	local, err := NewLocalSource(docsRoot, g.patterns, g.maxFileSize, g.logger)
	if err != nil {
		return err
	}

	g.mu.Lock()
	prev := g.local
	g.local = local
	g.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

// List delegates to the local clone.
func (g *GitSource) List(ctx context.Context, p string) ([]Entry, error) {
	local, err := g.current()
	if err != nil {
		return nil, err
	}
	return local.List(ctx, p)
}

// Fetch delegates to the local clone.
func (g *GitSource) Fetch(ctx context.Context, p string) (string, error) {
	local, err := g.current()
	if err != nil {
		return "", err
	}
	return local.Fetch(ctx, p)
}

// Describe returns "git:<remote>@<branch>/<base>".
func (g *GitSource) Describe() string {
	d := "git:" + g.remoteURL
	if g.branch != "" {
		d += "@" + g.branch
	}
	if g.basePath != "" {
		d += "/" + g.basePath
	}
	return d
}

// CloneDir returns the local mirror directory.
func (g *GitSource) CloneDir() string {
	return g.cloneDir
}

// Close releases the local document root.
func (g *GitSource) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.local == nil {
		return nil
	}
	err := g.local.Close()
	g.local = nil
	return err
}

func (g *GitSource) current() (*LocalSource, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.local == nil {
		return nil, unavailable("read", g.remoteURL, errors.New("repository has not been synced"))
	}
	return g.local, nil
}

type dirStatus int

const (
	dirEmpty dirStatus = iota
	dirSameRepo
)

// validateLocalPath expands and absolutizes the clone directory.
func (g *GitSource) validateLocalPath() (string, error) {
	clean := filepath.Clean(fileops.ExpandPath(g.cloneDir))
	abs, err := filepath.Abs(clean)
	if err != nil {
		return "", fmt.Errorf("cannot resolve absolute path: %w", err)
	}
	if fileops.IsReservedDirectory(abs) {
		return "", fmt.Errorf("clone directory is a reserved system directory: %s", abs)
	}
	return abs, nil
}

// validateCloneDirectory refuses to touch a directory holding anything other
// than a clone of the configured remote.
func (g *GitSource) validateCloneDirectory(clonePath string) (dirStatus, error) {
	info, err := os.Stat(clonePath)
	if os.IsNotExist(err) {
		return dirEmpty, nil
	}
	if err != nil {
		return dirEmpty, fmt.Errorf("cannot access directory %s: %w", clonePath, err)
	}
	if !info.IsDir() {
		return dirEmpty, fmt.Errorf("path exists but is not a directory: %s", clonePath)
	}

	entries, err := os.ReadDir(clonePath)
	if err != nil {
		return dirEmpty, fmt.Errorf("cannot read directory %s: %w", clonePath, err)
	}
	if len(entries) == 0 {
		return dirEmpty, nil
	}

	repo, err := git.PlainOpen(clonePath)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return dirEmpty, fmt.Errorf("directory contains non-git content: %s", clonePath)
		}
		return dirEmpty, fmt.Errorf("cannot open git repository: %w", err)
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return dirEmpty, fmt.Errorf("cannot get origin remote: %w", err)
	}
	cfg := remote.Config()
	if cfg == nil || len(cfg.URLs) == 0 {
		return dirEmpty, fmt.Errorf("no URLs configured for origin remote")
	}

	if normalizeGitURL(cfg.URLs[0]) != normalizeGitURL(g.remoteURL) {
		return dirEmpty, fmt.Errorf("directory contains different git repository (current: %s, expected: %s)", cfg.URLs[0], g.remoteURL)
	}
	return dirSameRepo, nil
}

// withAuthFallback tries op anonymously first and retries with the token
// when the remote rejects the request.
func (g *GitSource) withAuthFallback(ctx context.Context, op func(ctx context.Context, auth *http.BasicAuth) error) error {
	err := op(ctx, nil)
	if err == nil || ctx.Err() != nil || !isAuthenticationError(err) {
		return err
	}
	if g.token == "" {
		return fmt.Errorf("GitHub authentication required - run 'archdocs auth set-token' or set %s: %w", TokenEnvVar, err)
	}

	g.logger.Debug("Public access failed, trying with authentication")
	// GitHub PAT authentication uses "token" as username
	return op(ctx, &http.BasicAuth{Username: "token", Password: g.token})
}

func (g *GitSource) performClone(ctx context.Context, clonePath string, auth *http.BasicAuth) error {
	g.logger.Info("Cloning repository", "localPath", clonePath)

	if err := os.MkdirAll(filepath.Dir(clonePath), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	opts := &git.CloneOptions{URL: g.remoteURL}
	if auth != nil {
		opts.Auth = auth
	}
	if g.branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(g.branch)
		opts.SingleBranch = true
	}

	if _, err := git.PlainCloneContext(ctx, clonePath, opts); err != nil {
		// a failed clone may leave a partial .git behind
		_ = os.RemoveAll(clonePath)
		return translateGitError("clone", err)
	}

	g.logger.Info("Repository cloned successfully", "localPath", clonePath)
	return nil
}

func (g *GitSource) performFetch(ctx context.Context, clonePath string, auth *http.BasicAuth) error {
	g.logger.Debug("Fetching repository updates", "localPath", clonePath)

	repo, err := git.PlainOpen(clonePath)
	if err != nil {
		return fmt.Errorf("failed to open existing repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get working tree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("failed to get working tree status: %w", err)
	}
	if !status.IsClean() {
		g.logger.Warn("Working tree has uncommitted changes, skipping sync", "localPath", clonePath)
		return nil
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return fmt.Errorf("failed to get origin remote: %w", err)
	}

	fetchOpts := &git.FetchOptions{Force: true}
	if auth != nil {
		fetchOpts.Auth = auth
	}

	err = remote.FetchContext(ctx, fetchOpts)
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return translateGitError("fetch", err)
	}
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		g.logger.Debug("Repository already up to date")
		return nil
	}

	branch := g.branch
	if branch == "" {
		head, err := repo.Head()
		if err != nil {
			return fmt.Errorf("failed to get current branch: %w", err)
		}
		branch = head.Name().Short()
	}

	ref, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		return fmt.Errorf("branch '%s' does not exist on remote 'origin'", branch)
	}

	if err := worktree.Reset(&git.ResetOptions{Commit: ref.Hash(), Mode: git.HardReset}); err != nil {
		return fmt.Errorf("failed to reset to origin/%s: %w", branch, err)
	}

	g.logger.Info("Repository updated", "branch", branch, "commit", ref.Hash().String())
	return nil
}

func isAuthenticationError(err error) bool {
	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"authentication required", "401", "unauthorized", "403", "forbidden"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// translateGitError maps go-git failures onto actionable messages.
func translateGitError(op string, err error) error {
	errStr := strings.ToLower(err.Error())

	switch {
	case isAuthenticationError(err):
		return fmt.Errorf("%s: GitHub authentication failed - check the token scope (repo access required): %w", op, err)
	case strings.Contains(errStr, "repository not found") || strings.Contains(errStr, "404"):
		return fmt.Errorf("%s: repository not found - check the URL or ensure you have access: %w", op, err)
	case strings.Contains(errStr, "network") || strings.Contains(errStr, "connection") || strings.Contains(errStr, "timeout"):
		return fmt.Errorf("%s: network error - check your internet connection and try again: %w", op, err)
	}
	return fmt.Errorf("failed to %s repository: %w", op, err)
}

// GitURLInfo contains the parsed components of a Git repository URL.
type GitURLInfo struct {
	Host  string
	Owner string
	Repo  string
}

var sshURLPattern = regexp.MustCompile(`^git@([^:]+):([^/]+)/(.+?)(?:\.git)?$`)

// ParseGitURL parses SSH (git@host:owner/repo.git) and HTTPS
// (https://host/owner/repo.git) repository URLs.
func ParseGitURL(gitURL string) (GitURLInfo, error) {
	gitURL = strings.TrimSpace(gitURL)

	if m := sshURLPattern.FindStringSubmatch(gitURL); m != nil {
		return GitURLInfo{Host: m[1], Owner: m[2], Repo: m[3]}, nil
	}

	rest, ok := strings.CutPrefix(gitURL, "https://")
	if !ok {
		rest, ok = strings.CutPrefix(gitURL, "http://")
	}
	if !ok {
		return GitURLInfo{}, fmt.Errorf("unsupported git URL: %s", gitURL)
	}

	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) < 3 || parts[0] == "" {
		return GitURLInfo{}, fmt.Errorf("URL path should contain owner/repo: %s", gitURL)
	}
	owner := parts[1]
	repo := strings.TrimSuffix(parts[2], ".git")
	if owner == "" || repo == "" {
		return GitURLInfo{}, fmt.Errorf("could not extract owner/repo from URL: %s", gitURL)
	}
	return GitURLInfo{Host: parts[0], Owner: owner, Repo: repo}, nil
}

// normalizeGitURL makes SSH and HTTPS URLs of the same repository compare
// equal. Local paths are only cleaned.
func normalizeGitURL(gitURL string) string {
	if info, err := ParseGitURL(gitURL); err == nil {
		return strings.ToLower(fmt.Sprintf("%s/%s/%s", info.Host, info.Owner, info.Repo))
	}
	return filepath.Clean(strings.TrimSuffix(strings.TrimSpace(gitURL), "/"))
}
