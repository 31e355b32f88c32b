package placement

import (
	"regexp"
	"strings"

	"github.com/zjrosen/tasktpl/internal/domain/template"
)

var (
	// list marker (-, *, +, 1., 1)) followed by whitespace or end of line
	listItemRe = regexp.MustCompile(`^[ \t]*(?:[-*+]|\d+[.)])(?:[ \t]|$)`)
	// list marker followed by a one-character status cell: "- [ ]", "1. [x]"
	taskItemRe = regexp.MustCompile(`^[ \t]*(?:[-*+]|\d+[.)])[ \t]+\[[^\[\]\n]\](?:[ \t]|$)`)
)

// ClassifyLine reports whether line is a task item, a plain list item or neither.
func ClassifyLine(line string) template.LineKind {
	switch {
	case taskItemRe.MatchString(line):
		return template.LineTask
	case listItemRe.MatchString(line):
		return template.LineList
	default:
		return template.LineNone
	}
}

// IndentWidth counts the leading space and tab characters of line.
func IndentWidth(line string) int {
	n := 0
	for n < len(line) && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	return n
}

// SplitLines splits document text into lines, dropping a trailing '\r' from each.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Prefix returns the minimal list marker that makes an empty line the given kind.
func Prefix(kind template.LineKind) string {
	if kind == template.LineTask {
		return "- [ ] "
	}
	return "- "
}
