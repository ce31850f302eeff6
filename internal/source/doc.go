// Package source abstracts where documentation lives.
//
// A ContentSource enumerates entries under a logical, slash-separated path
// and fetches the raw text of a file. Paths are relative to the configured
// base path, so "ADRs/adr-001.md" means the same document for every source.
// Sources carry no business logic; metadata extraction and querying live in
// the extract, index and query packages.
//
// # Implementations
//
//   - LocalSource: a directory on disk read through a fileops scanner
//     bounded by os.Root. List is recursive; include patterns are doublestar
//     globs and .gitignore/.docignore files under the base path are honoured.
//   - GitHubSource: the GitHub contents API through go-github. List returns
//     one directory level per request; ListMarkdown descends into the
//     returned directories. Requests are throttled with a token bucket and
//     authenticated through oauth2 when a token is configured.
//   - GitSource: a go-git mirror of a repository, cloned on the
//     first Sync and fetched plus hard-reset on later ones. Reads go to a
//     LocalSource over the working tree.
//
// New picks the implementation from Config.Kind:
//
//	src, err := source.New(ctx, cfg, logger)
//	if err != nil { /* invalid configuration */ }
//	defer source.Close(src)
//
// # Optional capabilities
//
// The index checks for two optional interfaces:
//
//   - Syncer: Sync is called before every scan. GitSource uses it to update
//     the mirror. When a fetch fails but a clone exists, the mirror is still
//     opened and the fetch error returned, so an offline restart serves the
//     last synced documents.
//   - Remote: sources reporting IsRemote() keep no document text in the
//     index; content is fetched again on first use.
//
// # Errors
//
// A missing directory lists as empty. A missing file is an error satisfying
// IsNotFound. Every other failure wraps ErrUnavailable, and the index logs
// and skips the affected file or category instead of failing the scan.
//
// # Credentials
//
// CredentialManager stores a GitHub personal access token in the OS
// credential store through go-keyring. $GITHUB_TOKEN takes precedence. With
// no token the remote sources fall back to anonymous access, which covers
// public repositories.
package source
