package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/tasktpl/internal/editor"
	"github.com/zjrosen/tasktpl/internal/log"
	"github.com/zjrosen/tasktpl/internal/presentation"
	"github.com/zjrosen/tasktpl/internal/wrapper"
)

var stripDryRun bool

var stripCmd = &cobra.Command{
	Use:   "strip FILE...",
	Short: "Remove every template instance from markdown files",
	Long: `Remove the outermost template instances from each FILE, leaving the
surrounding text in place. Each removed instance leaves a single space behind;
trailing whitespace is trimmed from the lines that changed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStrip,
}

func init() {
	stripCmd.Flags().BoolVar(&stripDryRun, "dry-run", false, "print the change instead of writing the files")
	rootCmd.AddCommand(stripCmd)
}

func runStrip(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	formatter := presentation.NewFormatter(out)

	for _, path := range args {
		buf, err := editor.Open(path)
		if err != nil {
			return err
		}
		before := buf.Text()
		removed := stripBuffer(buf)
		log.Info(log.CatScan, "stripped instances", "path", path, "removed", removed, "dry_run", stripDryRun)

		if stripDryRun {
			if _, err := io.WriteString(out, lineDiff(before, buf.Text())); err != nil {
				return err
			}
			continue
		}
		if removed == 0 {
			continue
		}
		if err := buf.Save(path); err != nil {
			return err
		}
		if err := formatter.FormatSuccess(fmt.Sprintf("removed %d instance(s) from %s", removed, path)); err != nil {
			return err
		}
	}
	return nil
}

// stripBuffer removes every instance from ed and returns how many it removed.
func stripBuffer(ed editor.Editor) int {
	removed := 0
	for i := 0; i < ed.LineCount(); i++ {
		res := wrapper.RemoveWrappersByTemplate(ed.Line(i))
		if len(res.RemovedWrappers) == 0 {
			continue
		}
		removed += len(res.RemovedWrappers)
		editor.ReplaceLine(ed, i, strings.TrimRight(res.WithoutWrappers, " \t"))
	}
	return removed
}
