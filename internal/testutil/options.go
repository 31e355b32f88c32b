package testutil

import "strings"

// Line is one line of a generated document.
type Line struct {
	indent  int
	marker  string
	status  rune
	task    bool
	text    string
	blockID string
	markup  string
}

// LineOption configures a line.
type LineOption func(*Line)

// Task returns an open "- [ ] text" line.
func Task(text string, opts ...LineOption) Line {
	return build(Line{marker: "-", task: true, status: ' ', text: text}, opts)
}

// Item returns a plain "- text" list line.
func Item(text string, opts ...LineOption) Line {
	return build(Line{marker: "-", text: text}, opts)
}

// Prose returns a line that is neither a task nor a list item.
func Prose(text string, opts ...LineOption) Line {
	return build(Line{text: text}, opts)
}

// Blank returns an empty line.
func Blank() Line {
	return Line{}
}

func build(l Line, opts []LineOption) Line {
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

// Status sets the task status character, e.g. 'x' or '/'.
func Status(c rune) LineOption {
	return func(l *Line) { l.status = c }
}

// Done marks a task as completed.
func Done() LineOption {
	return Status('x')
}

// Indent nests the line by depth levels of two spaces.
func Indent(depth int) LineOption {
	return func(l *Line) { l.indent = depth }
}

// Marker replaces the list marker ("-", "*", "+" or "1.").
func Marker(m string) LineOption {
	return func(l *Line) { l.marker = m }
}

// BlockID appends a "^id" anchor.
func BlockID(id string) LineOption {
	return func(l *Line) { l.blockID = id }
}

// Markup appends raw markup after the text and before any anchor.
func Markup(m string) LineOption {
	return func(l *Line) { l.markup = m }
}

// String renders the line without a trailing newline.
func (l Line) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat("  ", l.indent))
	if l.marker != "" {
		sb.WriteString(l.marker + " ")
	}
	if l.task {
		sb.WriteString("[" + string(l.status) + "] ")
	}
	sb.WriteString(l.text)
	if l.markup != "" {
		sb.WriteString(" " + l.markup)
	}
	if l.blockID != "" {
		sb.WriteString(" ^" + l.blockID)
	}
	return sb.String()
}
