package index

import (
	"context"
	"strings"
	"sync"
	"time"

	"archdocs/internal/docs"
	"archdocs/internal/logging"
	"archdocs/internal/source"

	"golang.org/x/sync/singleflight"
)

// Stats summarizes a published snapshot.
type Stats struct {
	Ready      bool                  `json:"ready"`
	Source     string                `json:"source"`
	Documents  int                   `json:"documents"`
	ByCategory map[docs.Category]int `json:"byCategory,omitempty"`
	Failed     int                   `json:"failed"`
	Collisions int                   `json:"collisions"`
	Generation int                   `json:"generation"`
	LoadedAt   time.Time             `json:"loadedAt,omitzero"`
	ScanMillis int64                 `json:"scanMillis"`
}

// Snapshot is one immutable build of the index. Its metadata never changes
// after publication; only the content cache fills in.
type Snapshot struct {
	docs   []docs.Metadata
	byID   map[string]int
	byPath map[string]int
	stats  Stats

	src    source.ContentSource
	logger *logging.AppLogger

	content sync.Map // id -> string
	fetches singleflight.Group
}

func newSnapshot(src source.ContentSource, logger *logging.AppLogger) *Snapshot {
	return &Snapshot{
		byID:   make(map[string]int),
		byPath: make(map[string]int),
		src:    src,
		logger: logger,
	}
}

func (s *Snapshot) add(md docs.Metadata) {
	s.byID[md.ID] = len(s.docs)
	if _, dup := s.byPath[pathKey(md.SourcePath)]; !dup {
		s.byPath[pathKey(md.SourcePath)] = len(s.docs)
	}
	s.docs = append(s.docs, md)
}

// Documents returns all metadata in scan order. The slice is a copy.
func (s *Snapshot) Documents() []docs.Metadata {
	return append([]docs.Metadata(nil), s.docs...)
}

// Len returns the number of indexed documents.
func (s *Snapshot) Len() int {
	return len(s.docs)
}

// Stats returns the build statistics.
func (s *Snapshot) Stats() Stats {
	return s.stats
}

// Get looks up a document by id, ignoring case and surrounding slashes.
func (s *Snapshot) Get(id string) (docs.Metadata, bool) {
	i, ok := s.byID[docs.NormalizeID(id)]
	if !ok {
		return docs.Metadata{}, false
	}
	return s.docs[i], true
}

// GetByPath looks up a document by its source path, ignoring case.
func (s *Snapshot) GetByPath(p string) (docs.Metadata, bool) {
	i, ok := s.byPath[pathKey(p)]
	if !ok {
		return docs.Metadata{}, false
	}
	return s.docs[i], true
}

// Content returns the raw text of document id, fetching it from the source
// when it is not cached. Concurrent misses for one id share a single fetch.
//
// The shared fetch is detached from any one caller's cancellation; each
// caller stops waiting when its own ctx is done.
func (s *Snapshot) Content(ctx context.Context, id string) (string, error) {
	md, ok := s.Get(id)
	if !ok {
		return "", docs.NotFound(id)
	}
	if v, ok := s.content.Load(md.ID); ok {
		return v.(string), nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := s.fetches.DoChan(md.ID, func() (any, error) {
		// a flight that finished after our Load already stored the text
		if v, ok := s.content.Load(md.ID); ok {
			return v, nil
		}
		text, err := s.src.Fetch(fetchCtx, md.SourcePath)
		if err != nil {
			return "", err
		}
		actual, _ := s.content.LoadOrStore(md.ID, text)
		return actual, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func pathKey(p string) string {
	return strings.ToLower(source.JoinPath(p))
}
