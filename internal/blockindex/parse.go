package blockindex

import (
	"regexp"
	"strings"

	"github.com/zjrosen/tasktpl/internal/domain/template"
	"github.com/zjrosen/tasktpl/internal/placement"
	"github.com/zjrosen/tasktpl/internal/workflow"
	"github.com/zjrosen/tasktpl/internal/wrapper"
)

var (
	// trailing " ^block-id" that names a line
	blockIDRe = regexp.MustCompile(`(?:^|[ \t])\^([A-Za-z0-9][A-Za-z0-9_-]*)[ \t]*$`)
	// the status cell of a task line
	statusRe = regexp.MustCompile(`^[ \t]*(?:[-*+]|\d+[.)])[ \t]+\[([^\[\]\n])\]`)
)

// ParseBlocks returns one record per line of text that ends in a block id once
// template wrappers are removed, so instances appended after the id keep the
// line indexed. Text is the line without the id suffix and without wrappers.
// A later duplicate id in the same file is ignored.
func ParseBlocks(path, text string) []workflow.Record {
	var out []workflow.Record
	seen := make(map[string]bool)
	for i, raw := range placement.SplitLines(text) {
		line := wrapper.RemoveWrappersByTemplate(raw).WithoutWrappers
		m := blockIDRe.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		id := line[m[2]:m[3]]
		if seen[id] {
			continue
		}
		seen[id] = true

		body := line[:m[0]]
		rec := workflow.Record{
			Ref:     path + "#^" + id,
			Path:    path,
			BlockID: id,
			Line:    i,
			Kind:    placement.ClassifyLine(body),
			Text:    strings.Join(strings.Fields(body), " "),
		}
		if rec.Kind == template.LineTask {
			if s := statusRe.FindStringSubmatch(body); s != nil {
				rec.Status = s[1]
			}
		}
		out = append(out, rec)
	}
	return out
}
