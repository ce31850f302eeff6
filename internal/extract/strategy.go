package extract

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// Fields is the structured metadata a strategy recovers from a document.
type Fields struct {
	Title       string
	Description string
	Tags        []string
	Language    string
	Label       string
}

// Strategy recovers Fields from one metadata encoding.
//
// Parse returns ok=false when the encoding is absent. rest is the text left
// once the strategy's own markup is removed; strategies that do not strip
// anything return raw unchanged.
type Strategy interface {
	Name() string
	Parse(raw string) (f Fields, rest string, ok bool)
}

// FrontMatter reads a leading YAML block delimited by "---" lines.
type FrontMatter struct{}

// Inline reads "Key: value" lines anywhere in the document. A leading
// front-matter block is not its encoding and is dropped from rest.
type Inline struct{}

var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// bom is the UTF-8 byte order mark some editors write at the start of a file.
const bom = "\ufeff"

// tagList accepts a YAML sequence or a comma/semicolon separated scalar.
type tagList []string

func (t *tagList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		out := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind == yaml.ScalarNode {
				out = append(out, item.Value)
			}
		}
		*t = cleanTags(out)
	case yaml.ScalarNode:
		*t = splitTags(node.Value)
	}
	return nil
}

func (FrontMatter) Name() string { return "front-matter" }

func (FrontMatter) Parse(raw string) (Fields, string, bool) {
	raw = strings.TrimPrefix(raw, bom)
	if !hasFrontMatter(raw) {
		return Fields{}, raw, false
	}

	var node yaml.Node
	body, err := frontmatter.Parse(strings.NewReader(raw), &node, yamlFormat)
	if err != nil {
		// unparsable YAML: drop the block so it does not leak into the
		// description, and let later strategies try
		return Fields{}, stripFrontMatter(raw), false
	}

	return frontMatterFields(&node), string(bytes.TrimLeft(body, "\r\n")), true
}

// frontMatterFields decodes the known keys one at a time, so a key of the
// wrong type only loses that key.
func frontMatterFields(node *yaml.Node) Fields {
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return Fields{}
	}

	var f Fields
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		switch strings.ToLower(key) {
		case "title":
			f.Title = scalarValue(value)
		case "description":
			f.Description = scalarValue(value)
		case "language":
			f.Language = scalarValue(value)
		case "category":
			f.Label = scalarValue(value)
		case "tags":
			var tags tagList
			if err := value.Decode(&tags); err == nil {
				f.Tags = []string(tags)
			}
		}
	}
	return f
}

// scalarValue returns the trimmed value of a scalar node and "" otherwise.
func scalarValue(node *yaml.Node) string {
	if node.Kind != yaml.ScalarNode {
		return ""
	}
	return strings.TrimSpace(node.Value)
}

// hasFrontMatter requires "---" on the very first line and a closing "---".
func hasFrontMatter(raw string) bool {
	lines := strings.Split(raw, "\n")
	if len(lines) < 2 || strings.TrimRight(lines[0], " \t\r") != "---" {
		return false
	}
	for _, l := range lines[1:] {
		if strings.TrimRight(l, " \t\r") == "---" {
			return true
		}
	}
	return false
}

func stripFrontMatter(raw string) string {
	lines := strings.Split(raw, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t\r") == "---" {
			return strings.Join(lines[i+1:], "\n")
		}
	}
	return raw
}

var (
	inlineTagsRe     = inlineKey(`[Tt]ags`)
	inlineLanguageRe = inlineKey(`[Ll]anguage`)
	inlineCategoryRe = inlineKey(`[Cc]ategory`)
)

// inlineKey matches "Key: value", tolerating a list bullet and bold markers
// such as "- **Tags:** a, b".
func inlineKey(key string) *regexp.Regexp {
	return regexp.MustCompile(`^\s*(?:[-*+]\s+)?(?:\*\*|__)?` + key + `(?:\*\*|__)?\s*:\s*(?:\*\*|__)?\s*(.*?)\s*$`)
}

func (Inline) Name() string { return "inline" }

func (Inline) Parse(raw string) (Fields, string, bool) {
	raw = strings.TrimPrefix(raw, bom)
	if hasFrontMatter(raw) {
		raw = stripFrontMatter(raw)
	}

	var f Fields
	found := false
	tagsSeen := false

	for _, line := range strings.Split(raw, "\n") {
		if !tagsSeen {
			if m := inlineTagsRe.FindStringSubmatch(line); m != nil {
				f.Tags = splitTags(m[1])
				tagsSeen = true
				found = true
				continue
			}
		}
		if f.Language == "" {
			if m := inlineLanguageRe.FindStringSubmatch(line); m != nil && m[1] != "" {
				f.Language = trimQuotes(m[1])
				found = true
				continue
			}
		}
		if f.Label == "" {
			if m := inlineCategoryRe.FindStringSubmatch(line); m != nil && m[1] != "" {
				f.Label = trimQuotes(m[1])
				found = true
			}
		}
	}
	return f, raw, found
}

// isInlineMetadata reports whether line is a Tags/Language/Category line.
func isInlineMetadata(line string) bool {
	return inlineTagsRe.MatchString(line) ||
		inlineLanguageRe.MatchString(line) ||
		inlineCategoryRe.MatchString(line)
}

// splitTags splits on commas and semicolons, removing brackets and quotes.
func splitTags(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	return cleanTags(parts)
}

func cleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t = trimQuotes(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func trimQuotes(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "\"'`"))
}
