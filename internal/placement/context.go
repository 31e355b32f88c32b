package placement

// Context is the per-operation view of where an insertion happens.
type Context struct {
	// Line is the live text of the current line.
	Line string
	// LineIndex is the current line's index in Lines, or -1 when unknown.
	LineIndex int
	// Lines is the full document.
	Lines []string
	// Path is the document's file path, if any.
	Path string
}

// NewContext builds a context for the line at index of a live buffer.
func NewContext(lines []string, index int, path string) Context {
	ctx := Context{LineIndex: index, Lines: lines, Path: path}
	if index >= 0 && index < len(lines) {
		ctx.Line = lines[index]
	} else {
		ctx.LineIndex = -1
	}
	return ctx
}

// TextContext builds a context from document text and the current line's text
// when the line's position is unknown.
func TextContext(text, line, path string) Context {
	return Context{Line: line, LineIndex: -1, Lines: SplitLines(text), Path: path}
}

// Resolver computes the ancestor chain for a context, nearest first.
type Resolver func(ctx Context) []string

// Ancestors is the default Resolver: the live variant when the line index is
// known, otherwise the document-text variant.
func Ancestors(ctx Context) []string {
	if ctx.LineIndex >= 0 && ctx.LineIndex <= len(ctx.Lines) {
		return AncestorsFromLines(ctx.Lines, ctx.LineIndex, ctx.Line)
	}
	return AncestorsFromText(ctx.Lines, ctx.Line)
}
