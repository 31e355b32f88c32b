package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/tasktpl/internal/log"
	"github.com/zjrosen/tasktpl/internal/placement"
	"github.com/zjrosen/tasktpl/internal/presentation"
	"github.com/zjrosen/tasktpl/internal/wrapper"
)

var scanJSON bool

var scanCmd = &cobra.Command{
	Use:   "scan FILE...",
	Short: "List the template instances in markdown files",
	Long: `Scan each FILE line by line and report every outermost template instance:
its template, instance id, byte range and the parameter values its markup
carries.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "output in JSON format")
	rootCmd.AddCommand(scanCmd)
}

// fileInstances groups the instances of one file for JSON output.
type fileInstances struct {
	Path      string                      `json:"path"`
	Instances []presentation.InstanceDTO `json:"instances"`
}

func runScan(cmd *cobra.Command, args []string) error {
	formatter := presentation.NewFormatter(cmd.OutOrStdout())
	results := make([]fileInstances, 0, len(args))

	for _, path := range args {
		data, err := os.ReadFile(path) //nolint:gosec // G304: user-supplied document path
		if err != nil {
			return err
		}
		found := scanText(string(data))
		log.Debug(log.CatScan, "scanned document", "path", path, "instances", len(found))

		if scanJSON {
			results = append(results, fileInstances{Path: path, Instances: found})
			continue
		}
		if err := formatter.FormatInstances(path, found); err != nil {
			return err
		}
	}

	if scanJSON {
		return formatter.FormatJSON(results)
	}
	return nil
}

// scanText returns the instances of every line of text, with 1-based lines.
func scanText(text string) []presentation.InstanceDTO {
	found := []presentation.InstanceDTO{}
	for i, line := range placement.SplitLines(text) {
		if instances := wrapper.Scan(line); len(instances) > 0 {
			found = append(found, presentation.FromInstances(i+1, instances)...)
		}
	}
	return found
}
