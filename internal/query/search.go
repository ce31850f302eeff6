package query

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"archdocs/internal/docs"
)

// Relevance weights per occurrence.
const (
	titleWeight       = 30
	descriptionWeight = 20
	tagWeight         = 15
	contentWeight     = 1

	maxRelevance = 100
	maxExcerpts  = 3
	excerptWidth = 200
	ellipsis     = "..."
)

// Search ranks documents by case-insensitive occurrences of term in title,
// description, tags and body. Documents without any match are dropped.
func (e *Engine) Search(ctx context.Context, term string) ([]docs.SearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, docs.InvalidArgument("search term cannot be empty")
	}

	s, err := e.ix.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(term)
	results := []docs.SearchResult{}

	for _, md := range s.Documents() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		titleMatches := strings.Count(strings.ToLower(md.Title), needle)
		descriptionMatches := strings.Count(strings.ToLower(md.Description), needle)

		tagMatches := 0
		for _, t := range md.Tags {
			if strings.Contains(strings.ToLower(t), needle) {
				tagMatches++
			}
		}

		body, err := s.Content(ctx, md.ID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			e.logger.Error("Content unavailable during search", "id", md.ID, "error", err)
			body = ""
		}
		contentMatches, excerpts := scanContent(body, needle)

		matchCount := titleMatches + descriptionMatches + tagMatches + contentMatches
		if matchCount == 0 {
			continue
		}

		score := titleMatches*titleWeight +
			descriptionMatches*descriptionWeight +
			tagMatches*tagWeight +
			contentMatches*contentWeight

		results = append(results, docs.SearchResult{
			Metadata:       md,
			RelevanceScore: min(maxRelevance, score),
			MatchCount:     matchCount,
			Excerpts:       excerpts,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	return results, nil
}

// scanContent counts needle line by line and collects up to maxExcerpts
// matching lines.
func scanContent(body, needle string) (int, []string) {
	count := 0
	excerpts := []string{}
	for _, line := range strings.Split(body, "\n") {
		n := strings.Count(strings.ToLower(line), needle)
		if n == 0 {
			continue
		}
		count += n
		if len(excerpts) < maxExcerpts {
			excerpts = append(excerpts, excerpt(strings.TrimSpace(line), needle))
		}
	}
	return count, excerpts
}

// excerpt trims line to excerptWidth runes centred on the first match,
// marking cut ends with an ellipsis.
func excerpt(line, needle string) string {
	runes := []rune(line)
	if len(runes) <= excerptWidth {
		return line
	}

	at := indexFold(runes, []rune(needle))
	if at < 0 {
		at = 0
	}
	needleLen := len([]rune(needle))

	start := at - (excerptWidth-needleLen)/2
	start = max(0, min(start, len(runes)-excerptWidth))
	end := start + excerptWidth

	var b strings.Builder
	if start > 0 {
		b.WriteString(ellipsis)
	}
	b.WriteString(strings.TrimSpace(string(runes[start:end])))
	if end < len(runes) {
		b.WriteString(ellipsis)
	}
	return b.String()
}

// indexFold finds needle (already lower case) in haystack ignoring case and
// returns the rune offset, or -1.
func indexFold(haystack, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, r := range needle {
			if unicode.ToLower(haystack[i+j]) != r {
				continue outer
			}
		}
		return i
	}
	return -1
}
