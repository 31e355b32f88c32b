package editor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Buffer is an in-memory Editor over a document's lines.
type Buffer struct {
	lines  []string
	cursor Position
	edits  int
}

var _ Editor = (*Buffer)(nil)

// NewBuffer splits text into lines. An empty text is one empty line.
func NewBuffer(text string) *Buffer {
	return &Buffer{lines: strings.Split(text, "\n")}
}

// Open reads the file at path into a Buffer.
func Open(path string) (*Buffer, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the document the user asked to edit
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return NewBuffer(string(data)), nil
}

// Save writes the buffer to path through a temporary file in the same directory.
func (b *Buffer) Save(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tasktpl-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.WriteString(b.Text()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if info, err := os.Stat(path); err == nil {
		_ = os.Chmod(tmp.Name(), info.Mode().Perm())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

// Cursor returns the cursor position.
func (b *Buffer) Cursor() Position {
	return b.cursor
}

// SetCursor moves the cursor, clamped to the document.
func (b *Buffer) SetCursor(pos Position) {
	b.cursor = b.clamp(pos)
}

// Line returns line n, or "" when n is out of range.
func (b *Buffer) Line(n int) string {
	if n < 0 || n >= len(b.lines) {
		return ""
	}
	return b.lines[n]
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() int {
	return len(b.lines)
}

// Text joins the lines with '\n'.
func (b *Buffer) Text() string {
	return strings.Join(b.lines, "\n")
}

// Edits counts ReplaceRange calls.
func (b *Buffer) Edits() int {
	return b.edits
}

// ReplaceRange replaces [from, to) with text, which may span lines.
// Positions are clamped to the document; a reversed range is swapped.
func (b *Buffer) ReplaceRange(text string, from, to Position) {
	from, to = b.clamp(from), b.clamp(to)
	if to.Line < from.Line || (to.Line == from.Line && to.Ch < from.Ch) {
		from, to = to, from
	}

	head := b.lines[from.Line][:from.Ch]
	tail := b.lines[to.Line][to.Ch:]
	inserted := strings.Split(head+text+tail, "\n")

	lines := make([]string, 0, len(b.lines)-(to.Line-from.Line)+len(inserted)-1)
	lines = append(lines, b.lines[:from.Line]...)
	lines = append(lines, inserted...)
	lines = append(lines, b.lines[to.Line+1:]...)
	b.lines = lines
	b.edits++
	b.cursor = b.clamp(b.cursor)
}

func (b *Buffer) clamp(pos Position) Position {
	if pos.Line < 0 {
		pos.Line = 0
	}
	if pos.Line >= len(b.lines) {
		pos.Line = len(b.lines) - 1
	}
	if pos.Ch < 0 {
		pos.Ch = 0
	}
	if n := len(b.lines[pos.Line]); pos.Ch > n {
		pos.Ch = n
	}
	return pos
}
