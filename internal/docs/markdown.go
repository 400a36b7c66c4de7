package docs

import (
	"strings"

	"github.com/pylens/pylens/internal/types"
)

// parseMarkdown splits markdown content into leveled sections. ATX headings
// (`#` prefixes) and setext headings (`=`/`-` underlines) both open a new
// section; content before the first heading becomes a level-0 preamble
// section.
func parseMarkdown(content string) []types.DocSection {
	lines := strings.Split(content, "\n")

	var sections []types.DocSection
	var current *types.DocSection
	var body []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		if current != nil {
			current.Content = text
			sections = append(sections, *current)
		} else if text != "" {
			sections = append(sections, types.DocSection{Content: text, Level: 0})
		}
		body = body[:0]
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if level, title, ok := atxHeading(line); ok {
			flush()
			current = &types.DocSection{Title: title, Level: level}
			continue
		}

		if i+1 < len(lines) {
			if level, ok := setextUnderline(lines[i+1], line); ok {
				flush()
				current = &types.DocSection{Title: strings.TrimSpace(line), Level: level}
				i++ // consume the underline
				continue
			}
		}

		body = append(body, line)
	}
	flush()

	return sections
}

// atxHeading parses a `#`-prefixed heading line. The marker must be
// followed by whitespace and non-empty title text; a bare `#` line is body
// content, not a heading.
func atxHeading(line string) (level int, title string, ok bool) {
	trimmed := strings.TrimLeft(line, " ")
	n := 0
	for n < len(trimmed) && trimmed[n] == '#' {
		n++
	}
	if n == 0 || n > 6 {
		return 0, "", false
	}
	rest := trimmed[n:]
	if rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return 0, "", false
	}
	title = strings.TrimSpace(rest)
	if title == "" {
		return 0, "", false
	}
	return n, title, true
}

// setextUnderline reports whether underline promotes the preceding line to
// a heading. `=` underlines are level 1, `-` underlines level 2.
func setextUnderline(underline, heading string) (int, bool) {
	text := strings.TrimSpace(heading)
	if text == "" || strings.HasPrefix(text, "#") {
		return 0, false
	}
	u := strings.TrimRight(underline, " \t")
	if len(u) < 2 {
		return 0, false
	}
	switch {
	case strings.Count(u, "=") == len(u):
		return 1, true
	case strings.Count(u, "-") == len(u):
		return 2, true
	}
	return 0, false
}
