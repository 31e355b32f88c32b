package cmd

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/zjrosen/tasktpl/internal/blockindex"
	"github.com/zjrosen/tasktpl/internal/catalog"
	"github.com/zjrosen/tasktpl/internal/config"
	"github.com/zjrosen/tasktpl/internal/domain/template"
	"github.com/zjrosen/tasktpl/internal/editor"
	"github.com/zjrosen/tasktpl/internal/flags"
	"github.com/zjrosen/tasktpl/internal/insert"
	"github.com/zjrosen/tasktpl/internal/log"
	"github.com/zjrosen/tasktpl/internal/prompt"
	"github.com/zjrosen/tasktpl/internal/tracing"
	"github.com/zjrosen/tasktpl/internal/workflow"
)

// appOptions selects which collaborators a command needs.
type appOptions struct {
	// Index opens the block index even when enrichment is off.
	Index bool
	// Enrich runs template workflows after rendering.
	Enrich bool
	// Collector, when set, is used to collect parameters.
	Collector template.Collector
	// Driver prompts for parameters when Collector is nil; nil disables prompting.
	Driver prompt.Driver
	// Params are merged under every collected value.
	Params template.Params
}

// app is the composition of the packages a command runs against.
type app struct {
	cfg      config.Config
	flags    *flags.Registry
	registry *template.Registry
	orch     *insert.Orchestrator
	index    *blockindex.Index
	lookup   *blockindex.CachedLookup
	enricher *workflow.Enricher
	tracing  *tracing.Provider
}

func newApp(ctx context.Context, c config.Config, opts appOptions) (*app, error) {
	a := &app{cfg: c, flags: flags.New(c.Flags)}

	reg, err := catalog.Load(config.ExpandHome(c.CatalogDir))
	if err != nil {
		return nil, err
	}
	a.registry = reg

	tc := c.Tracing
	if tc.FilePath == "" {
		tc.FilePath = config.DefaultTracesFilePath()
	}
	a.tracing, err = tracing.NewProvider(tc)
	if err != nil {
		log.ErrorErr(log.CatConfig, "tracing disabled", err)
		a.tracing = tracing.Noop()
	}

	enrich := opts.Enrich && c.Workflows.Enabled
	if opts.Index || enrich || a.flags.Enabled(flags.FlagReindexOnSave) {
		a.index, err = blockindex.Open(c.IndexPath(), config.ExpandHome(c.Vault))
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.lookup = blockindex.NewCachedLookup(a.index, c.Index.CacheTTL)
	}

	orchOpts := []insert.Option{insert.WithTracer(a.tracing.Tracer())}
	if enrich {
		runner := workflow.NewRunner(workflow.WithTracer(a.tracing.Tracer()))
		ports := workflow.Ports{Lookup: a.lookup, Classifier: blockindex.Classifier}
		a.enricher = workflow.NewEnricher(runner, ports, workflow.EnricherConfig{
			TTL:     c.Workflows.EnrichmentTTL,
			Timeout: c.Workflows.Timeout,
		})
		orchOpts = append(orchOpts, insert.WithEnricher(a.enricher))
	}

	collector := opts.Collector
	if collector == nil && opts.Driver != nil {
		pc := prompt.NewCollector(opts.Driver)
		if a.flags.Enabled(flags.FlagBlockSuggestions) {
			pc.Blocks = a.suggestBlocks(ctx)
		}
		collector = pc
	}
	if collector != nil {
		cliParams := opts.Params
		orchOpts = append(orchOpts, insert.WithCollector(template.CollectorFunc(
			func(ctx context.Context, def *template.Definition, mode template.CollectMode, initial template.Params) (template.Params, error) {
				return collector.Collect(ctx, def, mode, initial.Merge(cliParams))
			})))
	}

	a.orch = insert.New(reg, orchOpts...)
	return a, nil
}

// suggestBlocks completes block references from the index, when one is open.
func (a *app) suggestBlocks(ctx context.Context) func(string) []string {
	if a.index == nil {
		return nil
	}
	return func(toComplete string) []string {
		recs, err := a.index.List(ctx)
		if err != nil {
			return nil
		}
		var out []string
		for _, r := range recs {
			if strings.Contains(r.Ref, toComplete) {
				out = append(out, r.Ref)
			}
		}
		return out
	}
}

// docPath returns file as stored in the index, or file itself without one.
func (a *app) docPath(file string) string {
	if a.index == nil {
		return file
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return file
	}
	rel, err := a.index.Rel(abs)
	if err != nil {
		return file
	}
	return rel
}

// enrich waits for res's workflows and applies the result to ed.
func (a *app) enrich(ctx context.Context, ed editor.Editor, res *insert.Result) (*insert.Result, bool) {
	if a.enricher == nil || res.Session == "" {
		return res, false
	}
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Workflows.Timeout*2)
	defer cancel()
	next, err := a.orch.ApplyEnrichment(ctx, ed, res)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.ErrorErr(log.CatWorkflow, "applying enrichment", err, "instance", res.InstanceID)
	}
	return next, next != res
}

// reindex refreshes file's rows after it was rewritten, when enabled.
func (a *app) reindex(ctx context.Context, file string) {
	if a.index == nil || !a.flags.Enabled(flags.FlagReindexOnSave) {
		return
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return
	}
	if _, err := a.index.IndexFile(ctx, abs); err != nil {
		log.ErrorErr(log.CatIndex, "reindexing saved document", err, "path", file)
		return
	}
	_ = a.lookup.Invalidate(ctx)
}

// Close releases every collaborator.
func (a *app) Close(ctx context.Context) {
	if a.enricher != nil {
		a.enricher.Close()
	}
	if a.index != nil {
		_ = a.index.Close()
	}
	if a.tracing != nil {
		_ = a.tracing.Shutdown(ctx)
	}
}
