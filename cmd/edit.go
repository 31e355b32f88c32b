package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/zjrosen/tasktpl/internal/editor"
	"github.com/zjrosen/tasktpl/internal/insert"
)

var (
	editInstance string
	editFlags    documentFlags
)

var editCmd = &cobra.Command{
	Use:   "edit FILE",
	Short: "Edit the parameters of a template instance",
	Long: `Re-render an existing instance in FILE with new parameter values.

The instance keeps its id. Current values are read back from the markup and
--param values are applied over them; with --interactive every field is
prompted for, pre-filled with its current value.`,
	Example: `  tasktpl edit todo.md --instance tpl-1a2b3c -p level=low
  tasktpl edit todo.md --instance tpl-1a2b3c -i`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDocument(cmd, args[0], &editFlags, runEdit)
	},
}

func init() {
	editCmd.Flags().StringVar(&editInstance, "instance", "", "instance id (required)")
	editFlags.register(editCmd)
	_ = editCmd.MarkFlagRequired("instance")
	rootCmd.AddCommand(editCmd)
}

func runEdit(ctx context.Context, a *app, buf *editor.Buffer, path string) (*insert.Result, error) {
	params, err := parseParams(editFlags.params)
	if err != nil {
		return nil, err
	}
	return a.orch.EditInstance(ctx, buf, path, editInstance, params)
}
