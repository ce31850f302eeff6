// Package extract derives document metadata from raw markdown.
//
// Extraction is a pure function of the text: a title from the first level-1
// heading, a description from the first paragraph after it, and tags plus
// optional language/label enrichments from one of two encodings tried in a
// fixed order (front-matter, then inline "Key: value" lines).
//
// Extraction never fails. Malformed input yields the fallback title, no
// description and no tags.
package extract

import (
	"strings"

	"archdocs/internal/docs"
)

// maxDescriptionLines bounds the paragraph collected as description.
const maxDescriptionLines = 3

// Extractor applies a fixed sequence of metadata strategies.
type Extractor struct {
	strategies []Strategy
}

// New returns an Extractor that tries strategies in order. With no
// arguments it uses front-matter first and inline second.
func New(strategies ...Strategy) *Extractor {
	if len(strategies) == 0 {
		strategies = []Strategy{FrontMatter{}, Inline{}}
	}
	return &Extractor{strategies: strategies}
}

var defaultExtractor = New()

// Extract runs the default extractor.
func Extract(raw string, category docs.Category, fallbackName string) docs.Metadata {
	return defaultExtractor.Extract(raw, category, fallbackName)
}

// Extract returns metadata without ID and SourcePath, which the index fills in.
func (e *Extractor) Extract(raw string, category docs.Category, fallbackName string) (md docs.Metadata) {
	md = docs.Metadata{Title: fallbackName, Category: category, Tags: []string{}}

	defer func() {
		if r := recover(); r != nil {
			md = docs.Metadata{Title: fallbackName, Category: category, Tags: []string{}}
		}
	}()

	body := strings.TrimPrefix(strings.ReplaceAll(raw, "\r\n", "\n"), bom)

	var fields Fields
	for _, s := range e.strategies {
		f, rest, ok := s.Parse(body)
		body = rest
		if ok {
			fields = f
			break
		}
	}

	lines := strings.Split(body, "\n")
	title, titleLine := findTitle(lines)

	switch {
	case title != "":
		md.Title = title
	case fields.Title != "":
		md.Title = fields.Title
	}

	md.Description = fields.Description
	if md.Description == "" {
		md.Description = findDescription(lines, titleLine+1)
	}

	if fields.Tags != nil {
		md.Tags = fields.Tags
	}
	md.Language = fields.Language
	md.Label = fields.Label
	return md
}

// findTitle returns the first level-1 ATX heading and its line index, or
// ("", -1) when there is none.
func findTitle(lines []string) (string, int) {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(trimmed, "# ")
		if !ok {
			continue
		}
		// optional closing sequence: "# Title #"
		rest = strings.TrimSpace(strings.TrimRight(rest, "#"))
		if rest != "" {
			return rest, i
		}
	}
	return "", -1
}

// findDescription skips blank, heading and inline metadata lines from start,
// then joins up to maxDescriptionLines consecutive text lines.
func findDescription(lines []string, start int) string {
	i := start
	for ; i < len(lines); i++ {
		t := strings.TrimSpace(lines[i])
		if t == "" || isHeading(t) || isInlineMetadata(t) {
			continue
		}
		break
	}

	var collected []string
	for ; i < len(lines) && len(collected) < maxDescriptionLines; i++ {
		t := strings.TrimSpace(lines[i])
		if t == "" || isHeading(t) {
			break
		}
		collected = append(collected, t)
	}
	return strings.TrimSpace(strings.Join(collected, " "))
}

func isHeading(trimmed string) bool {
	return strings.HasPrefix(trimmed, "#")
}
