package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/tasktpl/internal/blockindex"
	"github.com/zjrosen/tasktpl/internal/config"
	"github.com/zjrosen/tasktpl/internal/log"
	"github.com/zjrosen/tasktpl/internal/presentation"
	"github.com/zjrosen/tasktpl/internal/watcher"
)

var (
	indexList  bool
	indexJSON  bool
	indexWatch bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the block index of the vault",
	Long: `Walk the vault and record every block anchor (a trailing ^id on a line)
of every markdown file. Block reference templates resolve against this index.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexList, "list", false, "list the indexed blocks after rebuilding")
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "output in JSON format")
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "keep the index current until interrupted")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	x, err := blockindex.Open(cfg.IndexPath(), config.ExpandHome(cfg.Vault))
	if err != nil {
		return err
	}
	defer func() { _ = x.Close() }()

	stats, err := x.Rebuild(ctx)
	if err != nil {
		return err
	}

	formatter := presentation.NewFormatter(cmd.OutOrStdout())
	if indexWatch {
		if err := formatter.FormatSuccess(fmt.Sprintf("indexed %d block(s) in %d file(s), watching %s", stats.Blocks, stats.Files, x.Root())); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return watchIndex(ctx, x, formatter)
	}
	if !indexList {
		if indexJSON {
			return formatter.FormatJSON(stats)
		}
		return formatter.FormatSuccess(fmt.Sprintf("indexed %d block(s) in %d file(s)", stats.Blocks, stats.Files))
	}

	recs, err := x.List(ctx)
	if err != nil {
		return err
	}
	blocks := presentation.FromRecords(recs, blockindex.Classifier)
	if indexJSON {
		return formatter.FormatJSON(blocks)
	}
	return formatter.FormatBlocks(blocks)
}

// watchIndex re-indexes changed markdown files until ctx is done.
func watchIndex(ctx context.Context, x *blockindex.Index, formatter *presentation.Formatter) error {
	w, err := watcher.New(watcher.DefaultConfig(x.Root()))
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch := <-changes:
			for _, file := range batch {
				n, err := x.IndexFile(ctx, file)
				if err != nil {
					log.ErrorErr(log.CatIndex, "reindexing file", err, "path", file)
					continue
				}
				rel, _ := x.Rel(file)
				if err := formatter.FormatSuccess(fmt.Sprintf("reindexed %s (%d block(s))", rel, n)); err != nil {
					return err
				}
			}
		}
	}
}
