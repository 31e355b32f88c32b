package insert

import (
	"context"
	"strings"

	"github.com/zjrosen/tasktpl/internal/domain/template"
	"github.com/zjrosen/tasktpl/internal/editor"
	"github.com/zjrosen/tasktpl/internal/log"
	"github.com/zjrosen/tasktpl/internal/placement"
)

// placementMode says how the cursor line receives markup.
type placementMode int

const (
	appendInline placementMode = iota
	replaceLine
)

// decidePlacement picks how a template with the given allowed line kinds lands
// on a line of kind. Empty lines are coerced into the required list item;
// any other mismatch is rejected before the buffer is touched.
func decidePlacement(allowed template.Allowed, line string, kind template.LineKind) (placementMode, string, bool) {
	empty := strings.TrimSpace(line) == ""
	switch {
	case allowed.Any:
		return appendInline, "", true
	case allowed.Task && allowed.List:
		if kind == template.LineTask || kind == template.LineList {
			return appendInline, "", true
		}
		if empty {
			return replaceLine, placement.Prefix(template.LineList), true
		}
	case allowed.Task:
		if kind == template.LineTask {
			return appendInline, "", true
		}
		if empty {
			return replaceLine, placement.Prefix(template.LineTask), true
		}
	case allowed.List:
		if kind == template.LineList {
			return appendInline, "", true
		}
		if empty {
			return replaceLine, placement.Prefix(template.LineList), true
		}
	}
	return 0, "", false
}

func describeAllowed(allowed template.Allowed) string {
	switch {
	case allowed.Task && allowed.List:
		return "a task or list line"
	case allowed.Task:
		return "a task line"
	case allowed.List:
		return "a list line"
	}
	return "a matching line"
}

// InsertTemplateAtCursor renders id and places it on the cursor line of ed.
//
// Lines of the wrong kind are rejected with NOT_ALLOWED_HERE. An empty line
// becomes the minimal list item the template needs, keeping its indentation.
// Otherwise the markup is appended to the line, separated by exactly one space.
// Rules are evaluated against the line as it will look after coercion. The
// cursor ends just after the inserted markup.
func (o *Orchestrator) InsertTemplateAtCursor(ctx context.Context, id string, ed editor.Editor, path string, params template.Params) (*Result, error) {
	def, ok := o.templates.FindByID(id)
	if !ok {
		log.Warn(log.CatInsert, "unknown template", "id", id)
		return nil, &template.InsertError{Code: template.CodeUnknownTemplate, TemplateID: id, Message: "no template registered for " + id}
	}

	cur := ed.Cursor()
	line := ed.Line(cur.Line)
	kind := placement.ClassifyLine(line)
	allowed := def.Rules().AllowedLines()

	mode, prefix, ok := decidePlacement(allowed, line, kind)
	if !ok {
		return nil, &template.InsertError{
			Code:       template.CodeNotAllowedHere,
			TemplateID: def.ID(),
			Message:    "requires " + describeAllowed(allowed) + " (current line is " + string(kind) + ")",
		}
	}

	effective := line
	if mode == replaceLine {
		effective = line[:placement.IndentWidth(line)] + prefix
	}

	lines := editor.Lines(ed)
	pctx := placement.Context{Line: effective, LineIndex: cur.Line, Lines: lines, Path: path}
	res, err := o.InsertTemplate(ctx, def.ID(), pctx, params)
	if err != nil {
		return nil, err
	}

	var end int
	switch mode {
	case replaceLine:
		next := effective + res.Markup
		editor.ReplaceLine(ed, cur.Line, next)
		end = len(next)
	default:
		text := res.Markup
		if lastNonSpace(text) == '>' && !endsWithSpace(line) && !endsWithSpace(text) {
			text += " "
		}
		if line != "" && !endsWithSpace(line) {
			text = " " + text
		}
		at := editor.Position{Line: cur.Line, Ch: len(line)}
		ed.ReplaceRange(text, at, at)
		end = len(line) + len(text)
	}
	ed.SetCursor(editor.Position{Line: cur.Line, Ch: end})

	res.Line = cur.Line
	log.Info(log.CatInsert, "inserted template", "id", def.ID(), "instance", res.InstanceID, "line", cur.Line, "path", path)
	return res, nil
}

// RunInsertCommand is the command entry point: it collects parameters when
// the definition declares any, then inserts at the cursor. A cancelled
// collection returns template.ErrCollectCancelled and leaves ed untouched.
func (o *Orchestrator) RunInsertCommand(ctx context.Context, id string, ed editor.Editor, path string) (*Result, error) {
	def, ok := o.templates.FindByID(id)
	if !ok {
		return nil, &template.InsertError{Code: template.CodeUnknownTemplate, TemplateID: id, Message: "no template registered for " + id}
	}

	params := def.Defaults()
	if def.HasParams() {
		if o.collector == nil {
			return nil, ErrNoCollector
		}
		collected, err := o.collector.Collect(ctx, def, template.CollectCreate, params)
		if err != nil {
			log.Debug(log.CatInsert, "parameter collection ended", "id", def.ID(), "error", err)
			return nil, err
		}
		params = collected
	}
	return o.InsertTemplateAtCursor(ctx, def.ID(), ed, path, params)
}

// Command binds one visible definition to RunInsertCommand.
type Command struct {
	ID    string
	Label string
	Run   func(ctx context.Context, ed editor.Editor, path string) (*Result, error)
}

// Commands enumerates the non-hidden definitions as insert commands.
func (o *Orchestrator) Commands() []Command {
	defs := o.templates.Visible()
	cmds := make([]Command, 0, len(defs))
	for _, def := range defs {
		id := def.ID()
		cmds = append(cmds, Command{
			ID:    id,
			Label: def.Label(),
			Run: func(ctx context.Context, ed editor.Editor, path string) (*Result, error) {
				return o.RunInsertCommand(ctx, id, ed, path)
			},
		})
	}
	return cmds
}

func lastNonSpace(s string) byte {
	t := strings.TrimRight(s, " \t")
	if t == "" {
		return 0
	}
	return t[len(t)-1]
}

func endsWithSpace(s string) bool {
	return s != "" && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t')
}
