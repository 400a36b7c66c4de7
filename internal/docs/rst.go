package docs

import (
	"strings"

	"github.com/pylens/pylens/internal/types"
)

// rstUnderlineChars are the punctuation characters reStructuredText accepts
// as section underlines.
const rstUnderlineChars = "=-`:'\"~^_*+#<>"

// rstLevels maps common underline characters to a heading depth. Unlisted
// characters default to level 2.
var rstLevels = map[byte]int{
	'=': 1,
	'-': 2,
	'~': 3,
	'^': 4,
}

// parseRST splits reStructuredText content into leveled sections based on
// underlined titles. Content before the first title becomes a level-0
// preamble section.
func parseRST(content string) []types.DocSection {
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

		if i+1 < len(lines) {
			if level, ok := rstUnderline(lines[i+1], line); ok {
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

// rstUnderline reports whether underline marks the preceding line as a
// section title. The underline must be a uniform run of one punctuation
// character at least as long as the title.
func rstUnderline(underline, title string) (int, bool) {
	text := strings.TrimRight(title, " \t")
	if strings.TrimSpace(text) == "" {
		return 0, false
	}
	u := strings.TrimRight(underline, " \t")
	if len(u) < len(text) || len(u) == 0 {
		return 0, false
	}
	ch := u[0]
	if !strings.ContainsRune(rstUnderlineChars, rune(ch)) {
		return 0, false
	}
	for i := 1; i < len(u); i++ {
		if u[i] != ch {
			return 0, false
		}
	}
	level, ok := rstLevels[ch]
	if !ok {
		level = 2
	}
	return level, true
}
