// Package format normalizes model-produced markdown before it is stored or
// returned, fixing the rendering glitches chat models habitually emit.
package format

import (
	"regexp"
	"strings"
)

var (
	headingNoSpace = regexp.MustCompile(`^(#{1,6})([^#\s])`)
	trailingSpace  = regexp.MustCompile(`[ \t]+$`)
)

// Normalize cleans up markdown text: headings get a space after their hash
// marks and a blank line before them, runs of three or more blank lines
// collapse to one, and trailing whitespace is trimmed. The result always ends
// without a trailing newline. Normalize is pure; calling it twice yields the
// same output as calling it once.
func Normalize(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	out := make([]string, 0, len(lines))
	blanks := 0
	for _, line := range lines {
		line = trailingSpace.ReplaceAllString(line, "")
		line = headingNoSpace.ReplaceAllString(line, "$1 $2")

		if line == "" {
			blanks++
			continue
		}

		if isHeading(line) && len(out) > 0 && blanks == 0 {
			out = append(out, "")
		} else if blanks > 0 && len(out) > 0 {
			out = append(out, "")
		}
		blanks = 0
		out = append(out, line)
	}

	return strings.Join(out, "\n")
}

func isHeading(line string) bool {
	if !strings.HasPrefix(line, "#") {
		return false
	}
	rest := strings.TrimLeft(line, "#")
	return strings.HasPrefix(rest, " ") && len(line)-len(rest) <= 6
}
