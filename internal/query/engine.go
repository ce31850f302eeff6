package query

import (
	"context"
	"path"
	"sort"
	"strings"

	"archdocs/internal/docs"
	"archdocs/internal/index"
	"archdocs/internal/logging"
	"archdocs/internal/source"
)

// Engine runs queries against an Index.
type Engine struct {
	ix       *index.Index
	basePath string
	logger   *logging.AppLogger
}

// New creates an Engine. basePath is the configured document root, used to
// accept paths such as "docs/ADRs/adr-001.md" as well as "ADRs/adr-001.md".
func New(ix *index.Index, basePath string, logger *logging.AppLogger) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Engine{
		ix:       ix,
		basePath: source.JoinPath(basePath),
		logger:   logger.With("component", "query"),
	}
}

// Index returns the underlying index.
func (e *Engine) Index() *index.Index {
	return e.ix
}

// ListAll returns every indexed document.
func (e *Engine) ListAll(ctx context.Context) ([]docs.Metadata, error) {
	return e.ix.All(ctx)
}

// ByCategory returns the documents of one category. An unknown category
// name is an argument error; a known category without documents is empty.
func (e *Engine) ByCategory(ctx context.Context, category string) ([]docs.Metadata, error) {
	cat, err := docs.ParseCategory(category)
	if err != nil {
		return nil, err
	}

	all, err := e.ix.All(ctx)
	if err != nil {
		return nil, err
	}

	out := []docs.Metadata{}
	for _, md := range all {
		if md.Category == cat {
			out = append(out, md)
		}
	}
	return out, nil
}

// ByID returns the document with id, ignoring case, or nil.
func (e *Engine) ByID(ctx context.Context, id string) (*docs.Metadata, error) {
	md, ok, err := e.ix.Get(ctx, id)
	if err != nil || !ok {
		return nil, err
	}
	return &md, nil
}

// ByTags returns documents carrying at least one of tags, ignoring case.
func (e *Engine) ByTags(ctx context.Context, tags []string) ([]docs.Metadata, error) {
	wanted := make(map[string]bool, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			wanted[strings.ToLower(t)] = true
		}
	}
	if len(wanted) == 0 {
		return nil, docs.InvalidArgument("at least one tag is required")
	}

	all, err := e.ix.All(ctx)
	if err != nil {
		return nil, err
	}

	out := []docs.Metadata{}
	for _, md := range all {
		for _, t := range md.Tags {
			if wanted[strings.ToLower(strings.TrimSpace(t))] {
				out = append(out, md)
				break
			}
		}
	}
	return out, nil
}

// FetchContent returns the document with its raw text. It returns nil when
// the id is unknown or the content cannot be read; read failures are logged.
func (e *Engine) FetchContent(ctx context.Context, id string) (*docs.Content, error) {
	s, err := e.ix.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	md, ok := s.Get(id)
	if !ok {
		return nil, nil
	}
	return e.content(ctx, s, md)
}

// ByIDOrPath resolves an id or a source path. Paths may carry the base path
// prefix and may omit the markdown extension.
func (e *Engine) ByIDOrPath(ctx context.Context, idOrPath string) (*docs.Content, error) {
	key := strings.TrimSpace(idOrPath)
	if key == "" {
		return nil, docs.InvalidArgument("id or path is required")
	}

	s, err := e.ix.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	md, ok := e.resolve(s, key)
	if !ok {
		return nil, nil
	}
	return e.content(ctx, s, md)
}

func (e *Engine) resolve(s *index.Snapshot, key string) (docs.Metadata, bool) {
	if md, ok := s.Get(key); ok {
		return md, true
	}

	p := source.JoinPath(key)
	if b := e.basePath; b != "" && len(p) > len(b) && p[len(b)] == '/' && strings.EqualFold(p[:len(b)], b) {
		p = p[len(b)+1:]
	}

	if md, ok := s.GetByPath(p); ok {
		return md, true
	}
	if path.Ext(p) == "" {
		if md, ok := s.GetByPath(p + ".md"); ok {
			return md, true
		}
		// "docs/ADRs/adr-001" doubles as an id once the base is stripped
		return s.Get(p)
	}
	return docs.Metadata{}, false
}

func (e *Engine) content(ctx context.Context, s *index.Snapshot, md docs.Metadata) (*docs.Content, error) {
	text, err := s.Content(ctx, md.ID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		e.logger.Error("Content unavailable", "id", md.ID, "path", md.SourcePath, "error", err)
		return nil, nil
	}
	return &docs.Content{Metadata: md, Content: text}, nil
}

// Tags returns every distinct tag with the number of documents carrying it,
// most used first. Tags differing only in case are merged under the first
// spelling seen.
func (e *Engine) Tags(ctx context.Context) ([]docs.TagCount, error) {
	all, err := e.ix.All(ctx)
	if err != nil {
		return nil, err
	}

	counts := map[string]*docs.TagCount{}
	var order []string
	for _, md := range all {
		seen := map[string]bool{}
		for _, t := range md.Tags {
			key := strings.ToLower(strings.TrimSpace(t))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			tc, ok := counts[key]
			if !ok {
				tc = &docs.TagCount{Tag: strings.TrimSpace(t)}
				counts[key] = tc
				order = append(order, key)
			}
			tc.Count++
		}
	}

	out := make([]docs.TagCount, 0, len(order))
	for _, key := range order {
		out = append(out, *counts[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return strings.ToLower(out[i].Tag) < strings.ToLower(out[j].Tag)
	})
	return out, nil
}

// Categories returns each scanned category with its document count.
func (e *Engine) Categories(ctx context.Context) ([]docs.CategoryCount, error) {
	all, err := e.ix.All(ctx)
	if err != nil {
		return nil, err
	}

	counts := map[docs.Category]int{}
	for _, md := range all {
		counts[md.Category]++
	}

	out := make([]docs.CategoryCount, 0, len(e.ix.Categories()))
	for _, c := range e.ix.Categories() {
		out = append(out, docs.CategoryCount{Category: c, Count: counts[c]})
	}
	return out, nil
}

// ParseTagList splits a comma or semicolon separated tag argument.
func ParseTagList(s string) []string {
	var out []string
	for _, t := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
