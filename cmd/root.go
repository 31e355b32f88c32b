package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/tasktpl/internal/config"
	"github.com/zjrosen/tasktpl/internal/log"
	"github.com/zjrosen/tasktpl/internal/paths"
	"github.com/zjrosen/tasktpl/internal/presentation"
)

var (
	version   = "dev"
	cfgFile   string
	cfg       config.Config
	debugFlag bool
	logPath   string

	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "tasktpl",
	Short: "Structured inline templates for markdown task lists",
	Long: `tasktpl inserts, edits and scans template instances: inline markup on
task and list lines that records which template produced it and the values it
was rendered from. Placement rules keep templates in their place in the task
hierarchy, and block references are enriched from an index of the vault.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logCleanup != nil {
			logCleanup()
			logCleanup = nil
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .tasktpl/config.yaml, then ~/.config/tasktpl/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write debug logs (also enabled by TASKTPL_DEBUG)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log-file", "",
		"debug log path (default: debug.log, or TASKTPL_LOG)")
	rootCmd.PersistentFlags().String("vault", "",
		"root directory block references resolve against")

	_ = viper.BindPFlag("vault", rootCmd.PersistentFlags().Lookup("vault"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("catalog_dir", defaults.CatalogDir)
	viper.SetDefault("vault", defaults.Vault)
	viper.SetDefault("index.path", defaults.Index.Path)
	viper.SetDefault("index.cache_ttl", defaults.Index.CacheTTL)
	viper.SetDefault("workflows.enabled", defaults.Workflows.Enabled)
	viper.SetDefault("workflows.timeout", defaults.Workflows.Timeout)
	viper.SetDefault("workflows.enrichment_ttl", defaults.Workflows.EnrichmentTTL)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	viper.SetEnvPrefix("TASKTPL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .tasktpl/config.yaml (current directory or nearest parent)
		// 2. ~/.config/tasktpl/config.yaml (user config)
		if local := paths.FindProjectConfig("", config.DirName); local != "" {
			viper.SetConfigFile(local)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "tasktpl"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	// a missing config file means defaults
	_ = viper.ReadInConfig()

	cfg = config.Defaults()
	_ = viper.Unmarshal(&cfg)

	// a relative vault in a project config is relative to the project
	if used := viper.ConfigFileUsed(); used != "" && filepath.Base(filepath.Dir(used)) == config.DirName {
		if v := config.ExpandHome(cfg.Vault); !filepath.IsAbs(v) {
			cfg.Vault = filepath.Join(filepath.Dir(filepath.Dir(used)), v)
		}
	}
}

// setup starts debug logging and validates the loaded configuration.
func setup(cmd *cobra.Command, _ []string) error {
	debug := os.Getenv("TASKTPL_DEBUG") != "" || debugFlag
	if debug && logCleanup == nil {
		path := logPath
		if path == "" {
			path = os.Getenv("TASKTPL_LOG")
		}
		if path == "" {
			path = "debug.log"
		}
		cleanup, err := log.Init(path)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		logCleanup = cleanup
		log.Info(log.CatConfig, "tasktpl starting", "command", cmd.Name(), "config", viper.ConfigFileUsed())
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// errSilent marks an error whose details were already written.
var errSilent = errors.New("command failed")

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errSilent) {
		_ = presentation.NewFormatter(os.Stderr).FormatError(presentation.FromError(err))
	}
	return err
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
