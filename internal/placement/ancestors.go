package placement

import (
	"math"
	"strings"

	"github.com/zjrosen/tasktpl/internal/domain/template"
	"github.com/zjrosen/tasktpl/internal/wrapper"
)

// DefaultAncestorTags are the order tags whose wrappers name an ancestor line.
var DefaultAncestorTags = []string{"artifact"}

// TemplateIDOfLine returns the template id that identifies line as an ancestor:
// the right-most wrapper whose order tag is in tags, else the right-most wrapper
// with a template key, else "".
func TemplateIDOfLine(line string, tags []string) string {
	instances := wrapper.Scan(line)
	for i := len(instances) - 1; i >= 0; i-- {
		if containsFold(tags, instances[i].Attrs.OrderTag) {
			return instances[i].Attrs.Key
		}
	}
	for i := len(instances) - 1; i >= 0; i-- {
		if instances[i].Attrs.Key != "" {
			return instances[i].Attrs.Key
		}
	}
	return ""
}

// AncestorsFromLines resolves the ancestor chain, nearest first, of the line at
// index. currentLine is the live text of that line, which may differ from
// lines[index] while it is being edited. Every ancestor is a task or list line
// with strictly smaller indentation than everything below it in the chain; the
// scan stops at indentation zero.
func AncestorsFromLines(lines []string, index int, currentLine string) []string {
	ancestors := []string{}
	if index > len(lines) {
		index = len(lines)
	}
	current := IndentWidth(currentLine)
	threshold := math.MaxInt
	for i := index - 1; i >= 0; i-- {
		line := lines[i]
		if ClassifyLine(line) == template.LineNone {
			continue
		}
		indent := IndentWidth(line)
		if indent >= threshold || indent >= current {
			continue
		}
		ancestors = append(ancestors, TemplateIDOfLine(line, DefaultAncestorTags))
		threshold = indent
		if indent == 0 {
			break
		}
	}
	return ancestors
}

// AncestorsFromText resolves ancestors when no live cursor is available. The
// current line is located by exact match first, then ignoring trailing
// whitespace. An unlocatable line has no ancestors.
func AncestorsFromText(lines []string, currentLine string) []string {
	index := FindLine(lines, currentLine)
	if index < 0 {
		return []string{}
	}
	return AncestorsFromLines(lines, index, currentLine)
}

// FindLine returns the index of the first line equal to target, falling back
// to a comparison that ignores trailing whitespace, or -1.
func FindLine(lines []string, target string) int {
	for i, l := range lines {
		if l == target {
			return i
		}
	}
	trimmed := strings.TrimRight(target, " \t\r")
	for i, l := range lines {
		if strings.TrimRight(l, " \t\r") == trimmed {
			return i
		}
	}
	return -1
}

func containsFold(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
