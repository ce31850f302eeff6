// Package index builds and holds the in-memory document index.
//
// The index is built lazily on first read: one caller scans the source while
// concurrent callers wait on the same lock, then every later read is served
// from an immutable snapshot without locking. Refresh builds a new snapshot
// and swaps it in atomically, so readers see either the old or the new index
// and never a mix.
//
// # Content
//
// Each snapshot owns a content cache keyed by document id. For local and git
// sources the text read during the scan is kept, so queries never touch the
// disk again. Remote sources (and indexes built with Options.LazyContent)
// keep only metadata; Snapshot.Content fetches a document on first use and
// caches it. Concurrent misses for one document share a single fetch, which
// keeps running when the caller that started it gives up.
//
// # Failures
//
// A file that cannot be read is logged and skipped; a category that cannot be
// listed is logged and counted in Stats.Failed. Only cancellation aborts a
// build, and an aborted build publishes nothing.
package index

import (
	"context"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"archdocs/internal/docs"
	"archdocs/internal/extract"
	"archdocs/internal/logging"
	"archdocs/internal/source"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxDepth bounds how far below a category folder the scan descends.
const DefaultMaxDepth = 8

// Options tune a scan.
type Options struct {
	// Categories are scanned in this order; the order also decides which
	// document wins an id collision.
	Categories []docs.Category

	// MaxDepth bounds recursion below each category folder.
	MaxDepth int

	// Extractor overrides the default metadata extractor.
	Extractor *extract.Extractor

	// LazyContent drops document text once metadata is extracted, so
	// content is fetched from the source on first use. It is always on for
	// sources implementing source.Remote.
	LazyContent bool
}

// Index owns the document snapshot for one ContentSource.
type Index struct {
	src        source.ContentSource
	categories []docs.Category
	maxDepth   int
	extractor  *extract.Extractor
	lazy       bool
	logger     *logging.AppLogger

	// mu serializes builds; readers never take it once a snapshot exists.
	mu         sync.Mutex
	snap       atomic.Pointer[Snapshot]
	generation int
}

// New creates an uninitialized index over src.
func New(src source.ContentSource, opts Options, logger *logging.AppLogger) *Index {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	cats := opts.Categories
	if len(cats) == 0 {
		cats = docs.AllCategories
	}
	depth := opts.MaxDepth
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	ex := opts.Extractor
	if ex == nil {
		ex = extract.New()
	}
	lazy := opts.LazyContent
	if r, ok := src.(source.Remote); ok && r.IsRemote() {
		lazy = true
	}
	return &Index{
		src:        src,
		categories: cats,
		maxDepth:   depth,
		extractor:  ex,
		lazy:       lazy,
		logger:     logger.With("component", "index"),
	}
}

// Categories returns the categories this index scans.
func (ix *Index) Categories() []docs.Category {
	return append([]docs.Category(nil), ix.categories...)
}

// Ready reports whether a snapshot has been published.
func (ix *Index) Ready() bool {
	return ix.snap.Load() != nil
}

// Snapshot returns the current snapshot, building it on first use.
//
// A cancelled or failed first build publishes nothing; the next call tries
// again.
func (ix *Index) Snapshot(ctx context.Context) (*Snapshot, error) {
	if s := ix.snap.Load(); s != nil {
		return s, nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if s := ix.snap.Load(); s != nil {
		return s, nil
	}

	ix.logger.LogStateTransition("index", "uninitialized", "initializing")
	s, err := ix.build(ctx)
	if err != nil {
		ix.logger.LogStateTransition("index", "initializing", "uninitialized")
		return nil, err
	}
	ix.snap.Store(s)
	ix.logger.LogStateTransition("index", "initializing", "ready")
	return s, nil
}

// Refresh rebuilds the index from the source and swaps it in. On error the
// previous snapshot stays in place.
func (ix *Index) Refresh(ctx context.Context) (Stats, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.logger.LogStateTransition("index", "ready", "refreshing")
	s, err := ix.build(ctx)
	if err != nil {
		ix.logger.LogStateTransition("index", "refreshing", "ready")
		return ix.Stats(), err
	}
	ix.snap.Store(s)
	ix.logger.LogStateTransition("index", "refreshing", "ready")
	ix.logger.Info("Index refreshed", "documents", s.stats.Documents, "generation", s.stats.Generation)
	return s.stats, nil
}

// Stats describes the published snapshot without triggering a build.
func (ix *Index) Stats() Stats {
	if s := ix.snap.Load(); s != nil {
		return s.stats
	}
	return Stats{Source: ix.src.Describe()}
}

// All returns every indexed document in scan order.
func (ix *Index) All(ctx context.Context) ([]docs.Metadata, error) {
	s, err := ix.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.Documents(), nil
}

// Get looks up a document by id, ignoring case.
func (ix *Index) Get(ctx context.Context, id string) (docs.Metadata, bool, error) {
	s, err := ix.Snapshot(ctx)
	if err != nil {
		return docs.Metadata{}, false, err
	}
	md, ok := s.Get(id)
	return md, ok, nil
}

// Content returns the raw text of document id.
func (ix *Index) Content(ctx context.Context, id string) (string, error) {
	s, err := ix.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	return s.Content(ctx, id)
}

type scanned struct {
	md   docs.Metadata
	text string
}

type categoryResult struct {
	docs   []scanned
	failed int
}

// build scans every category in parallel and merges the results in
// category order.
func (ix *Index) build(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	defer ix.logger.LogPerformance("index build", start)

	if syncer, ok := ix.src.(source.Syncer); ok {
		if err := syncer.Sync(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// an existing mirror is still worth scanning
			ix.logger.Error("Source sync failed", "source", ix.src.Describe(), "error", err)
		}
	}

	results := make([]categoryResult, len(ix.categories))
	g, gctx := errgroup.WithContext(ctx)
	for i, cat := range ix.categories {
		g.Go(func() error {
			res, err := ix.scanCategory(gctx, cat)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ix.generation++
	s := newSnapshot(ix.src, ix.logger)
	s.stats.Source = ix.src.Describe()
	s.stats.Generation = ix.generation
	s.stats.ByCategory = make(map[docs.Category]int, len(ix.categories))

	for _, cat := range ix.categories {
		s.stats.ByCategory[cat] = 0
	}
	for i, cat := range ix.categories {
		s.stats.Failed += results[i].failed
		for _, d := range results[i].docs {
			if prev, dup := s.byID[d.md.ID]; dup {
				s.stats.Collisions++
				ix.logger.Warn("Duplicate document id, keeping first",
					"id", d.md.ID,
					"kept", s.docs[prev].SourcePath,
					"skipped", d.md.SourcePath)
				continue
			}
			s.add(d.md)
			if !ix.lazy {
				s.content.Store(d.md.ID, d.text)
			}
			s.stats.ByCategory[cat]++
		}
	}

	s.stats.Ready = true
	s.stats.Documents = len(s.docs)
	s.stats.LoadedAt = time.Now()
	s.stats.ScanMillis = time.Since(start).Milliseconds()

	ix.logger.Info("Index built",
		"documents", s.stats.Documents,
		"failed", s.stats.Failed,
		"collisions", s.stats.Collisions,
		"source", s.stats.Source)
	return s, nil
}

// scanCategory lists and extracts one category. Per-file and listing
// failures are logged and skipped; only cancellation aborts.
func (ix *Index) scanCategory(ctx context.Context, cat docs.Category) (categoryResult, error) {
	var res categoryResult

	entries, err := source.ListMarkdown(ctx, ix.src, string(cat), ix.maxDepth)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		ix.logger.Error("Failed to list category, skipping", "category", cat, "error", err)
		res.failed++
		return res, nil
	}

	for _, e := range entries {
		text, err := ix.src.Fetch(ctx, e.Path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			ix.logger.Error("Failed to read document, skipping", "path", e.Path, "error", err)
			res.failed++
			continue
		}

		md := ix.extractor.Extract(text, cat, fallbackName(e.Name))
		md.ID = docs.MakeID(cat, e.Path)
		md.SourcePath = e.Path
		d := scanned{md: md}
		if !ix.lazy {
			d.text = text
		}
		res.docs = append(res.docs, d)
	}

	ix.logger.Debug("Category scanned", "category", cat, "documents", len(res.docs), "failed", res.failed)
	return res, nil
}

// fallbackName is the file name without its extension.
func fallbackName(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}
