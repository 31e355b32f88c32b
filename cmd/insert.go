package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/tasktpl/internal/editor"
	"github.com/zjrosen/tasktpl/internal/insert"
	"github.com/zjrosen/tasktpl/internal/prompt"
)

var (
	insertTemplate string
	insertLine     int
	insertFlags    documentFlags

	// driverFactory builds the prompt driver for --interactive.
	driverFactory = func() prompt.Driver { return prompt.NewSurveyDriver() }
)

var insertCmd = &cobra.Command{
	Use:   "insert FILE",
	Short: "Insert a template instance into a markdown file",
	Long: `Render a template and place it on a line of FILE.

An empty line becomes the list item the template needs. Task and list lines
get the instance appended. The placement rules of the template must accept the
line, otherwise nothing is written.

Without --line a new line is appended to the end of the file.`,
	Example: `  tasktpl insert todo.md -t agile.epic --line 3
  tasktpl insert todo.md -t meta.priority --line 5 -p level=high
  tasktpl insert todo.md -t meta.blockref --line 7 -i`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDocument(cmd, args[0], &insertFlags, runInsert)
	},
}

func init() {
	insertCmd.Flags().StringVarP(&insertTemplate, "template", "t", "", "template id (required)")
	insertCmd.Flags().IntVarP(&insertLine, "line", "l", 0, "1-based line to insert on (default: append a line)")
	insertFlags.register(insertCmd)
	_ = insertCmd.MarkFlagRequired("template")
	_ = insertCmd.RegisterFlagCompletionFunc("template", completeTemplates)
	rootCmd.AddCommand(insertCmd)
}

func runInsert(ctx context.Context, a *app, buf *editor.Buffer, path string) (*insert.Result, error) {
	line, err := targetLine(buf, insertLine)
	if err != nil {
		return nil, err
	}
	buf.SetCursor(editor.Position{Line: line, Ch: len(buf.Line(line))})

	if insertFlags.interactive {
		return a.orch.RunInsertCommand(ctx, insertTemplate, buf, path)
	}
	params, err := parseParams(insertFlags.params)
	if err != nil {
		return nil, err
	}
	return a.orch.InsertTemplateAtCursor(ctx, insertTemplate, buf, path, params)
}

// targetLine returns the 0-based line for a 1-based flag value. Zero appends
// a line unless the document already ends in an empty one.
func targetLine(buf *editor.Buffer, n int) (int, error) {
	last := buf.LineCount() - 1
	switch {
	case n == 0:
		if buf.Line(last) == "" {
			if last > 0 && buf.Line(last-1) == "" {
				return last - 1, nil
			}
			at := editor.Position{Line: last, Ch: 0}
			buf.ReplaceRange("\n", at, at)
			return last, nil
		}
		at := editor.Position{Line: last, Ch: len(buf.Line(last))}
		buf.ReplaceRange("\n", at, at)
		return last + 1, nil
	case n < 0 || n > last+1:
		return 0, fmt.Errorf("line %d is outside the document (1-%d)", n, last+1)
	}
	return n - 1, nil
}

func completeTemplates(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	a, err := newApp(context.Background(), cfg, appOptions{})
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer a.Close(context.Background())
	var ids []string
	for _, c := range a.orch.Commands() {
		ids = append(ids, c.ID+"\t"+c.Label)
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
