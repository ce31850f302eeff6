package query

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	"archdocs/internal/docs"
	"archdocs/internal/index"
)

// Similarity weights.
const (
	sameCategoryScore = 20
	sharedTagScore    = 15
	keywordScale      = 100

	// MinRelated and MaxRelated bound the maxResults argument of Related.
	MinRelated = 1
	MaxRelated = 20

	// DefaultRelated is the result count used when the caller gives none.
	DefaultRelated = 5

	minKeywordLen = 4
)

// stopWords are common English words long enough to survive the length
// filter but too frequent to indicate relatedness.
var stopWords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true, "have": true,
	"will": true, "they": true, "them": true, "then": true, "than": true,
	"when": true, "what": true, "which": true, "there": true, "their": true,
	"these": true, "those": true, "been": true, "were": true, "into": true,
	"also": true, "such": true, "more": true, "other": true, "some": true,
	"only": true, "over": true, "very": true, "just": true, "your": true,
	"about": true, "would": true, "could": true, "should": true, "each": true,
	"does": true, "must": true, "like": true,
}

// Related returns up to maxResults documents similar to id, best first.
//
// An unknown id yields an empty result rather than an error.
func (e *Engine) Related(ctx context.Context, id string, maxResults int) ([]docs.Metadata, error) {
	if maxResults < MinRelated || maxResults > MaxRelated {
		return nil, docs.InvalidArgument("maxResults must be between %d and %d, got %d", MinRelated, MaxRelated, maxResults)
	}

	s, err := e.ix.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	origin, ok := s.Get(id)
	if !ok {
		return []docs.Metadata{}, nil
	}

	originKeywords := e.keywordsOf(ctx, s, origin)
	originTags := tagSet(origin.Tags)

	type scored struct {
		md    docs.Metadata
		score int
	}
	var candidates []scored

	for _, md := range s.Documents() {
		if md.ID == origin.ID {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		score := 0
		if md.Category == origin.Category {
			score += sameCategoryScore
		}
		score += sharedTagScore * intersectionSize(originTags, tagSet(md.Tags))
		score += keywordSimilarity(originKeywords, e.keywordsOf(ctx, s, md))

		if score > 0 {
			candidates = append(candidates, scored{md: md, score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	out := make([]docs.Metadata, 0, min(maxResults, len(candidates)))
	for i := 0; i < len(candidates) && i < maxResults; i++ {
		out = append(out, candidates[i].md)
	}
	return out, nil
}

func (e *Engine) keywordsOf(ctx context.Context, s *index.Snapshot, md docs.Metadata) map[string]bool {
	text, err := s.Content(ctx, md.ID)
	if err != nil {
		if ctx.Err() == nil {
			e.logger.Error("Content unavailable for keywords", "id", md.ID, "error", err)
		}
		return map[string]bool{}
	}
	return Keywords(text)
}

// Keywords tokenizes text on non-word characters and keeps lower-cased
// tokens longer than three characters that are not stop words.
func Keywords(text string) map[string]bool {
	out := map[string]bool{}
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	for _, tok := range tokens {
		tok = strings.ToLower(tok)
		if len([]rune(tok)) < minKeywordLen || stopWords[tok] {
			continue
		}
		out[tok] = true
	}
	return out
}

// keywordSimilarity is the Jaccard index of a and b scaled to 0..100.
func keywordSimilarity(a, b map[string]bool) int {
	shared := intersectionSize(a, b)
	union := len(a) + len(b) - shared
	if union == 0 {
		return 0
	}
	return int(math.Round(keywordScale * float64(shared) / float64(union)))
}

func tagSet(tags []string) map[string]bool {
	out := make(map[string]bool, len(tags))
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out[t] = true
		}
	}
	return out
}

func intersectionSize(a, b map[string]bool) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if b[k] {
			n++
		}
	}
	return n
}
