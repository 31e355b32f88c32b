package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/tasktpl/internal/catalog"
	"github.com/zjrosen/tasktpl/internal/config"
	"github.com/zjrosen/tasktpl/internal/domain/template"
	"github.com/zjrosen/tasktpl/internal/presentation"
)

var (
	listJSON      bool
	listAll       bool
	listNamespace string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available templates",
	Long: `List every registered template with its placement rules.

Hidden templates are left out unless --all is given.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output in JSON format")
	listCmd.Flags().BoolVar(&listAll, "all", false, "include hidden templates")
	listCmd.Flags().StringVarP(&listNamespace, "namespace", "n", "", "only list templates in this namespace")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	reg, err := catalog.Load(config.ExpandHome(cfg.CatalogDir))
	if err != nil {
		return err
	}

	var defs []*template.Definition
	if listAll {
		defs = reg.List()
	} else {
		defs = reg.Visible()
	}
	if listNamespace != "" {
		filtered := defs[:0:0]
		for _, def := range defs {
			if def.Namespace() == listNamespace {
				filtered = append(filtered, def)
			}
		}
		defs = filtered
	}

	formatter := presentation.NewFormatter(cmd.OutOrStdout())
	dtos := presentation.FromDefinitions(defs)
	if listJSON {
		return formatter.FormatJSON(dtos)
	}
	return formatter.FormatTemplates(dtos)
}
