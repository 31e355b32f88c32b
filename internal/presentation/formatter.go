package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatJSON writes v as indented JSON
func (f *Formatter) FormatJSON(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

var (
	idStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#54A0FF"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF8787"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#73F59F"))
)

// FormatTemplates writes one line per template
func (f *Formatter) FormatTemplates(templates []TemplateDTO) error {
	width := 0
	for _, t := range templates {
		width = max(width, len(t.ID))
	}
	for _, t := range templates {
		line := idStyle.Render(fmt.Sprintf("%-*s", width, t.ID)) + "  " + t.Label
		if rules := describeRules(t); rules != "" {
			line += "  " + subtleStyle.Render(rules)
		}
		if _, err := fmt.Fprintln(f.writer, line); err != nil {
			return err
		}
	}
	return nil
}

func describeRules(t TemplateDTO) string {
	var parts []string
	for _, v := range t.Rules {
		var p []string
		if len(v.AllowedOn) > 0 {
			kinds := make([]string, len(v.AllowedOn))
			for i, k := range v.AllowedOn {
				kinds[i] = string(k)
			}
			p = append(p, strings.Join(kinds, "|"))
		}
		if v.TopLevel {
			p = append(p, "top-level")
		}
		if len(v.Parent) > 0 {
			p = append(p, "under "+strings.Join(v.Parent, "|"))
		}
		parts = append(parts, strings.Join(p, " "))
	}
	if len(parts) == 0 {
		return ""
	}
	return "[" + strings.Join(parts, " or ") + "]"
}

// FormatInstances writes the instances of a document grouped under its path
func (f *Formatter) FormatInstances(path string, instances []InstanceDTO) error {
	if _, err := fmt.Fprintln(f.writer, headerStyle.Render(path)); err != nil {
		return err
	}
	for _, in := range instances {
		keys := make([]string, 0, len(in.Params))
		for k, v := range in.Params {
			keys = append(keys, k+"="+v)
		}
		sort.Strings(keys)
		line := fmt.Sprintf("  %s %s %s",
			subtleStyle.Render(fmt.Sprintf("%d:%d", in.Line+1, in.Start)),
			idStyle.Render(in.TemplateID),
			strings.Join(keys, " "))
		if _, err := fmt.Fprintln(f.writer, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

// FormatBlocks writes one line per indexed block
func (f *Formatter) FormatBlocks(blocks []BlockDTO) error {
	for _, b := range blocks {
		line := fmt.Sprintf("%s %s %s", idStyle.Render(b.Ref), subtleStyle.Render(b.Status), b.Text)
		if _, err := fmt.Fprintln(f.writer, line); err != nil {
			return err
		}
	}
	return nil
}

// FormatError writes a failed operation
func (f *Formatter) FormatError(e ErrorDTO) error {
	head := "error"
	if e.Code != "" {
		head = e.Code
	}
	msg := errorStyle.Render(head) + ": " + e.Message
	if len(e.RequiredParents) > 0 {
		msg += "\n  " + subtleStyle.Render("allowed parents: "+strings.Join(e.RequiredParents, ", "))
	}
	if len(e.Ancestors) > 0 {
		msg += "\n  " + subtleStyle.Render("ancestors: "+strings.Join(e.Ancestors, " < "))
	}
	_, err := fmt.Fprintln(f.writer, msg)
	return err
}

// FormatSuccess writes a one-line confirmation
func (f *Formatter) FormatSuccess(msg string) error {
	_, err := fmt.Fprintln(f.writer, successStyle.Render(msg))
	return err
}
