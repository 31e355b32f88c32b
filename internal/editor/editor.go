// Package editor defines the line-buffer port the insertion flow edits
// through, and an in-memory Buffer implementing it for files on disk.
package editor

// Position addresses a byte offset within a line.
type Position struct {
	Line int `json:"line"`
	Ch   int `json:"ch"`
}

// Editor is the host editor handle. Line numbers and offsets are zero-based.
type Editor interface {
	Cursor() Position
	SetCursor(pos Position)
	Line(n int) string
	LineCount() int
	// ReplaceRange replaces the text between from and to with text.
	ReplaceRange(text string, from, to Position)
	Text() string
}

// Lines returns every line of e.
func Lines(e Editor) []string {
	n := e.LineCount()
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = e.Line(i)
	}
	return out
}

// ReplaceLine replaces the whole of line n.
func ReplaceLine(e Editor, n int, text string) {
	e.ReplaceRange(text, Position{Line: n}, Position{Line: n, Ch: len(e.Line(n))})
}
