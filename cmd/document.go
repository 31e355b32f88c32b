package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/tasktpl/internal/editor"
	"github.com/zjrosen/tasktpl/internal/insert"
	"github.com/zjrosen/tasktpl/internal/presentation"
)

// documentFlags are shared by the commands that rewrite a document.
type documentFlags struct {
	params      []string
	interactive bool
	dryRun      bool
	noEnrich    bool
	json        bool
}

func (f *documentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.params, "param", "p", nil, "parameter as key=value (repeatable)")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "prompt for parameters")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "print the change instead of writing the file")
	cmd.Flags().BoolVar(&f.noEnrich, "no-enrich", false, "skip template workflows")
	cmd.Flags().BoolVar(&f.json, "json", false, "output the result as JSON")
}

func (f *documentFlags) appOptions() (appOptions, error) {
	params, err := parseParams(f.params)
	if err != nil {
		return appOptions{}, err
	}
	opts := appOptions{Enrich: !f.noEnrich, Params: params}
	if f.interactive {
		opts.Driver = driverFactory()
	}
	return opts, nil
}

// mutation runs one change against a document buffer.
type mutation func(ctx context.Context, a *app, buf *editor.Buffer, path string) (*insert.Result, error)

// runDocument opens file, applies fn, enriches the result and writes the
// document back (or prints a diff with --dry-run).
func runDocument(cmd *cobra.Command, file string, flags *documentFlags, fn mutation) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	opts, err := flags.appOptions()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	buf, err := editor.Open(file)
	if err != nil {
		return err
	}
	before := buf.Text()

	res, err := fn(ctx, a, buf, a.docPath(file))
	if err != nil {
		return err
	}
	res, enriched := a.enrich(ctx, buf, res)

	out := cmd.OutOrStdout()
	if flags.dryRun {
		if _, err := io.WriteString(out, lineDiff(before, buf.Text())); err != nil {
			return err
		}
	} else {
		if err := buf.Save(file); err != nil {
			return err
		}
		a.reindex(ctx, file)
	}

	formatter := presentation.NewFormatter(out)
	if flags.json {
		return formatter.FormatJSON(presentation.FromResult(res, enriched))
	}
	if flags.dryRun {
		return nil
	}
	return formatter.FormatSuccess(fmt.Sprintf("%s %s at %s:%d", res.Definition.ID(), res.InstanceID, file, res.Line+1))
}
