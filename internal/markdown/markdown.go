// Package markdown implements heading-delimited section replacement and
// small heading/indentation helpers for Markdown text. It deliberately
// works on raw lines, not a parsed document tree.
package markdown

import "strings"

// HeadingLevel returns the number of leading '#' marks of a heading
// line, or 0 when the line is not an ATX heading.
func HeadingLevel(line string) int {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n > 6 {
		return 0
	}
	if n < len(line) && line[n] != ' ' {
		return 0
	}
	return n
}

// ToHeading renders title as a heading of the given level.
func ToHeading(title string, level int) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + title
}

// Tab returns one indentation unit: a tab character, or tabSize spaces.
func Tab(useTab bool, tabSize int) string {
	if useTab {
		return "\t"
	}
	if tabSize < 1 {
		tabSize = 4
	}
	return strings.Repeat(" ", tabSize)
}

// UpdateSection returns doc with the body of the section marked by
// heading replaced by body. Matching is exact on the full heading line
// (text and level), first occurrence only. The replaced span runs from
// the heading line up to, but not including, the next heading of
// equal-or-shallower level, or end of document. When the heading does
// not occur, body is appended, adding only as many newlines as needed
// for one blank-line separator. Everything outside the span is
// preserved byte for byte, which makes repeated merges of the same
// body idempotent.
func UpdateSection(doc, heading, body string) string {
	if strings.TrimSpace(doc) == "" {
		return body
	}

	level := HeadingLevel(heading)
	lines := strings.Split(doc, "\n")

	start := -1
	for i, line := range lines {
		if line == heading {
			start = i
			break
		}
	}
	if start == -1 {
		switch {
		case strings.HasSuffix(doc, "\n\n"):
			return doc + body
		case strings.HasSuffix(doc, "\n"):
			return doc + "\n" + body
		default:
			return doc + "\n\n" + body
		}
	}

	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		if l := HeadingLevel(lines[i]); l > 0 && l <= level {
			end = i
			break
		}
	}

	var out []string
	out = append(out, lines[:start]...)
	out = append(out, strings.Split(body, "\n")...)
	out = append(out, lines[end:]...)
	return strings.Join(out, "\n")
}
