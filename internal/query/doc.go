// Package query answers lookups, full-text search and related-document
// queries against the document index.
//
// Every operation triggers the lazy index build on first use. Argument
// errors are reported before the index is touched and wrap
// docs.ErrInvalidArgument. Unknown ids are not errors: lookups return nil
// and Related returns an empty list.
//
// # Search
//
// Search scores every document against a case-insensitive term:
//
//	score = min(100, 30*title + 20*description + 15*tags + 1*content)
//
// where title and description count occurrences, tags counts the tags
// containing the term, and content counts occurrences across the raw text
// line by line. Documents with no match are dropped. Up to three excerpts
// are kept per document, each at most 200 characters centred on the first
// match in its line. Equal scores keep scan order.
//
// # Related documents
//
// Related compares one document with every other:
//
//	score = 20 (same category) + 15 per shared tag + round(100 * jaccard)
//
// where jaccard is the keyword overlap of the two texts. Keywords are
// lower-cased letter/digit tokens of four or more characters, minus a
// stop-word list. Only positive scores are returned, best first, capped
// at maxResults (1 to 20).
package query
