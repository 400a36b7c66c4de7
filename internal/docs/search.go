package docs

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pylens/pylens/internal/types"
)

// previewContext is the number of characters of surrounding context shown
// on each side of a search hit.
const previewContext = 50

// Search runs a substring search over parsed documents. Matching is
// case-insensitive unless caseSensitive is set. One match is reported per
// section containing the query, with a bounded preview around the first
// occurrence. Results are ordered by file path for stable output.
func Search(documents map[string]*types.DocFile, query string, caseSensitive bool) []types.DocMatch {
	if query == "" {
		return nil
	}

	needle := query
	if !caseSensitive {
		needle = strings.ToLower(query)
	}

	paths := make([]string, 0, len(documents))
	for path := range documents {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var matches []types.DocMatch
	for _, path := range paths {
		doc := documents[path]
		if doc == nil {
			continue
		}
		for _, section := range doc.Sections {
			haystack := section.Content
			if !caseSensitive {
				haystack = strings.ToLower(haystack)
			}
			idx := strings.Index(haystack, needle)
			if idx < 0 {
				continue
			}
			matches = append(matches, types.DocMatch{
				File:    doc.FilePath,
				Section: section.Title,
				Level:   section.Level,
				Preview: preview(section.Content, idx, len(query)),
			})
		}
	}
	return matches
}

// preview extracts a window of text around a match, adding ellipses where
// the window is clipped. Cut points are widened to rune boundaries so the
// window never splits a multi-byte character.
func preview(content string, idx, matchLen int) string {
	start := idx - previewContext
	if start < 0 {
		start = 0
	}
	end := idx + matchLen + previewContext
	if end > len(content) {
		end = len(content)
	}
	for start > 0 && !utf8.RuneStart(content[start]) {
		start--
	}
	for end < len(content) && !utf8.RuneStart(content[end]) {
		end++
	}
	out := content[start:end]
	if start > 0 {
		out = "..." + out
	}
	if end < len(content) {
		out += "..."
	}
	return out
}
