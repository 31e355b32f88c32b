// Package config provides configuration types and defaults for tasktpl.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/tasktpl/internal/log"
	"github.com/zjrosen/tasktpl/internal/tracing"
)

// DirName is the per-project configuration directory.
const DirName = ".tasktpl"

// Config holds all configuration options for tasktpl.
type Config struct {
	// CatalogDir holds user catalog YAML files merged over the built-ins.
	CatalogDir string          `mapstructure:"catalog_dir"`
	Vault      string          `mapstructure:"vault"` // root of the markdown files block references point into
	Index      IndexConfig     `mapstructure:"index"`
	Workflows  WorkflowsConfig `mapstructure:"workflows"`
	Tracing    tracing.Config  `mapstructure:"tracing"`
	Flags      map[string]bool `mapstructure:"flags"`
}

// IndexConfig holds block index settings.
type IndexConfig struct {
	Path     string        `mapstructure:"path"`      // SQLite database; relative paths are under the vault
	CacheTTL time.Duration `mapstructure:"cache_ttl"` // lookup memoisation, 0 disables
}

// WorkflowsConfig holds enrichment settings.
type WorkflowsConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Timeout       time.Duration `mapstructure:"timeout"`        // per enrichment run
	EnrichmentTTL time.Duration `mapstructure:"enrichment_ttl"` // unread results are dropped after this
}

// DefaultTracesFilePath returns the default path for trace files.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tasktpl", "traces", "traces.jsonl")
}

// DefaultCatalogDir returns the default user catalog directory.
func DefaultCatalogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tasktpl", "catalogs")
}

// Defaults returns the default configuration.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = "" // derived from the config dir at runtime
	return Config{
		CatalogDir: DefaultCatalogDir(),
		Vault:      ".",
		Index: IndexConfig{
			Path:     filepath.Join(DirName, "index.db"),
			CacheTTL: time.Minute,
		},
		Workflows: WorkflowsConfig{
			Enabled:       true,
			Timeout:       5 * time.Second,
			EnrichmentTTL: 10 * time.Minute,
		},
		Tracing: tc,
	}
}

// IndexPath resolves Index.Path against the vault.
func (c Config) IndexPath() string {
	p := ExpandHome(c.Index.Path)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(ExpandHome(c.Vault), p)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// Validate checks every section.
func Validate(c Config) error {
	if strings.TrimSpace(c.Vault) == "" {
		return fmt.Errorf("vault is required")
	}
	if err := ValidateIndex(c.Index); err != nil {
		return err
	}
	if err := ValidateWorkflows(c.Workflows); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// ValidateIndex checks block index settings.
func ValidateIndex(idx IndexConfig) error {
	if strings.TrimSpace(idx.Path) == "" {
		return fmt.Errorf("index.path is required")
	}
	if idx.CacheTTL < 0 {
		return fmt.Errorf("index.cache_ttl must not be negative, got %v", idx.CacheTTL)
	}
	return nil
}

// ValidateWorkflows checks enrichment settings.
func ValidateWorkflows(w WorkflowsConfig) error {
	if !w.Enabled {
		return nil
	}
	if w.Timeout <= 0 {
		return fmt.Errorf("workflows.timeout must be positive, got %v", w.Timeout)
	}
	if w.EnrichmentTTL <= 0 {
		return fmt.Errorf("workflows.enrichment_ttl must be positive, got %v", w.EnrichmentTTL)
	}
	return nil
}

// ValidateTracing checks the tracing configuration.
func ValidateTracing(tc tracing.Config) error {
	if tc.SampleRate < 0.0 || tc.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tc.SampleRate)
	}

	if tc.Exporter != "" {
		switch tc.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tc.Exporter)
		}
	}

	if tc.Enabled && tc.Exporter == "otlp" && tc.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}
	return nil
}

// DefaultConfigTemplate returns the commented config file written by init.
func DefaultConfigTemplate() string {
	return `# tasktpl configuration

# Extra template catalogs (*.yaml), merged over the built-in agile and meta namespaces
# catalog_dir: ~/.config/tasktpl/catalogs

# Root of the markdown files that block references (file#^id) resolve against
vault: .

# Block index
index:
  path: .tasktpl/index.db  # relative paths are under the vault
  cache_ttl: 1m            # memoise reference lookups, 0 disables

# Background enrichment after insertion (block reference status, ...)
workflows:
  enabled: true
  timeout: 5s              # per enrichment run
  enrichment_ttl: 10m      # unread results are dropped after this

# Distributed tracing of insertions and workflows
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/tasktpl/traces/traces.jsonl  # Output file for file exporter
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)

# Opt-in behaviours
# flags:
#   block-suggestions: true        # complete block references from the index while prompting
#   reindex-on-save: false         # refresh a document's index rows after insert/edit
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
