package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/tasktpl/internal/config"
	"github.com/zjrosen/tasktpl/internal/log"
	"github.com/zjrosen/tasktpl/internal/presentation"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config to .tasktpl/config.yaml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := configTarget()
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		log.Info(log.CatConfig, "wrote default config", "path", path)
		return presentation.NewFormatter(cmd.OutOrStdout()).FormatSuccess("wrote " + path)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set one value in the config file, keeping its comments",
	Example: `  tasktpl config set vault ~/notes
  tasktpl config set workflows.enabled false`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configTarget()
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := config.WriteDefaultConfig(path); err != nil {
				return err
			}
		}
		if err := config.SaveValue(path, args[0], configValue(args[1])); err != nil {
			return err
		}
		log.Info(log.CatConfig, "saved config value", "path", path, "key", args[0])
		return presentation.NewFormatter(cmd.OutOrStdout()).FormatSuccess(fmt.Sprintf("%s = %s", args[0], args[1]))
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config")
	configCmd.AddCommand(configInitCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// configTarget is the file in use, or the project config when none was found.
func configTarget() string {
	if cfgFile != "" {
		return cfgFile
	}
	if used := viper.ConfigFileUsed(); used != "" {
		if _, err := os.Stat(used); err == nil {
			return used
		}
	}
	return filepath.Join(config.DirName, "config.yaml")
}

// configValue keeps booleans and numbers typed in the YAML.
func configValue(s string) any {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
