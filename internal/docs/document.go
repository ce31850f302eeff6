// Package docs holds the document model shared by the index, the query
// engine and the tool registry.
package docs

import (
	"path"
	"strings"
)

// Metadata describes one discovered markdown document.
type Metadata struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Category    Category `json:"category"`
	SourcePath  string   `json:"sourcePath"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags"`

	// Optional enrichments; empty when the document does not declare them.
	Language string `json:"language,omitempty"`
	Label    string `json:"label,omitempty"`
}

// HasTag reports whether the document carries tag, ignoring case.
func (m Metadata) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Content pairs metadata with the raw markdown text.
type Content struct {
	Metadata
	Content string `json:"content"`
}

// SearchResult is one ranked hit for a search term.
type SearchResult struct {
	Metadata       Metadata `json:"metadata"`
	RelevanceScore int      `json:"relevanceScore"`
	MatchCount     int      `json:"matchCount"`
	Excerpts       []string `json:"excerpts"`
}

// TagCount is a distinct tag with the number of documents carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// CategoryCount is a category with the number of indexed documents.
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

// MakeID derives the stable document id from category and source path:
// lowercase "<category>/<filename-without-extension>".
func MakeID(category Category, sourcePath string) string {
	name := path.Base(strings.ReplaceAll(sourcePath, "\\", "/"))
	name = strings.TrimSuffix(name, path.Ext(name))
	return strings.ToLower(string(category) + "/" + name)
}

// NormalizeID lowercases and trims an id supplied by a caller.
func NormalizeID(id string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(id), "/"))
}
