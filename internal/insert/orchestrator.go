// Package insert composes the registry, placement rules, renderers and the
// wrapper scanner into the operations that add or replace template instances
// in a line buffer. It is the only package that mutates a buffer, and only
// after every check has passed.
package insert

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/tasktpl/internal/domain/template"
	"github.com/zjrosen/tasktpl/internal/log"
	"github.com/zjrosen/tasktpl/internal/placement"
	"github.com/zjrosen/tasktpl/internal/tracing"
	"github.com/zjrosen/tasktpl/internal/workflow"
	"github.com/zjrosen/tasktpl/internal/wrapper"
)

var (
	ErrInstanceNotFound = errors.New("template instance not found")
	ErrReplaceFailed    = errors.New("template instance could not be replaced")
	ErrNoCollector      = errors.New("template needs parameters but no collector is configured")
)

// Result describes one rendered instance.
type Result struct {
	Definition *template.Definition
	Markup     string
	InstanceID string
	// Params are the merged parameters the markup was rendered from.
	Params template.Params
	// Session identifies background enrichment; empty when none was started.
	Session workflow.Session
	// Line is the buffer line that received the markup, or -1.
	Line int
	Path string
}

// Orchestrator inserts, edits and replaces template instances.
type Orchestrator struct {
	templates template.Provider
	enricher  *workflow.Enricher
	collector template.Collector
	resolve   placement.Resolver
	tracer    trace.Tracer
	newID     func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEnricher runs declared workflows in the background after each render.
func WithEnricher(e *workflow.Enricher) Option {
	return func(o *Orchestrator) { o.enricher = e }
}

// WithCollector sets the port parameters are collected through.
func WithCollector(c template.Collector) Option {
	return func(o *Orchestrator) { o.collector = c }
}

// WithResolver replaces the ancestor resolver used for rule evaluation.
func WithResolver(r placement.Resolver) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.resolve = r
		}
	}
}

// WithTracer records a span per operation.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithInstanceIDs replaces the instance id generator.
func WithInstanceIDs(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// New creates an orchestrator over templates.
func New(templates template.Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		templates: templates,
		resolve:   placement.Ancestors,
		tracer:    noop.NewTracerProvider().Tracer("noop"),
		newID:     wrapper.NewInstanceID,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// FindTemplateByID resolves id through the registry fallback chain.
func (o *Orchestrator) FindTemplateByID(id string) (*template.Definition, bool) {
	return o.templates.FindByID(id)
}

// InsertTemplate renders a new instance of id for the placement context.
// It fails with UNKNOWN_TEMPLATE, a rule code, or RENDER_FAILED. When the
// definition declares workflows and an enricher is configured, enrichment
// starts in the background under the returned Result.Session.
func (o *Orchestrator) InsertTemplate(ctx context.Context, id string, pctx placement.Context, params template.Params) (*Result, error) {
	ctx, span := o.tracer.Start(ctx, tracing.SpanPrefixInsert+"template", trace.WithAttributes(
		attribute.String(tracing.AttrTemplateID, id),
		attribute.Int(tracing.AttrLineIndex, pctx.LineIndex),
		attribute.String(tracing.AttrFilePath, pctx.Path),
	))
	defer span.End()

	res, err := o.insertTemplate(ctx, id, pctx, params)
	if err != nil {
		if code, ok := template.ErrorCode(err); ok {
			span.SetAttributes(attribute.String(tracing.AttrErrorCode, string(code)))
		}
		tracing.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String(tracing.AttrInstanceID, res.InstanceID))
	return res, nil
}

func (o *Orchestrator) insertTemplate(ctx context.Context, id string, pctx placement.Context, params template.Params) (*Result, error) {
	def, ok := o.templates.FindByID(id)
	if !ok {
		log.Warn(log.CatInsert, "unknown template", "id", id)
		return nil, &template.InsertError{Code: template.CodeUnknownTemplate, TemplateID: id, Message: "no template registered for " + id}
	}

	eval := placement.Check(pctx, def.Rules(), o.resolve)
	if !eval.Allowed() {
		trace.SpanFromContext(ctx).AddEvent(tracing.EventRulesRejected)
		return nil, violation(def, eval)
	}

	merged := def.Defaults().Merge(params)
	instanceID := o.newID()
	markup, err := o.render(def, merged, instanceID)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Definition: def,
		Markup:     markup,
		InstanceID: instanceID,
		Params:     merged,
		Line:       pctx.LineIndex,
		Path:       pctx.Path,
	}
	res.Session = o.startEnrichment(ctx, def, merged, pctx.Path)

	log.Debug(log.CatInsert, "rendered template", "id", def.ID(), "instance", instanceID, "session", res.Session)
	return res, nil
}

// violation maps a rejected evaluation to an InsertError. The code follows
// the first variant's failed constraint: line kind, then parent, then
// top-level.
func violation(def *template.Definition, eval placement.Evaluation) error {
	rv := &template.RulesViolationError{Messages: eval.Messages(), Ancestors: eval.Ancestors}
	ie := &template.InsertError{
		Code:       template.CodeNotAllowedHere,
		TemplateID: def.ID(),
		Message:    strings.Join(rv.Messages, "; "),
		Ancestors:  eval.Ancestors,
		Err:        rv,
	}
	first := eval.Variants[0]
	switch {
	case !first.LineOK:
	case !first.ParentOK:
		ie.Code = template.CodeParentMissing
		ie.RequiredParents = append([]string(nil), first.Variant.Parent...)
	case !first.TopLevelOK:
		ie.Code = template.CodeTopLevelOnly
	}
	log.Debug(log.CatInsert, "placement rejected", "id", def.ID(), "code", ie.Code, "ancestors", eval.Ancestors)
	return ie
}

// render calls the definition's render function, turning errors and panics
// into RENDER_FAILED with the original message.
func (o *Orchestrator) render(def *template.Definition, params template.Params, instanceID string) (markup string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error(log.CatInsert, "render panicked", "id", def.ID(), "panic", r, "stack", string(debug.Stack()))
			err = &template.InsertError{
				Code:       template.CodeRenderFailed,
				TemplateID: def.ID(),
				Message:    fmt.Sprint(r),
				Err:        fmt.Errorf("render panicked: %v", r),
			}
		}
	}()

	markup, err = def.Render()(template.RenderInput{Definition: def, Params: params, InstanceID: instanceID})
	if err != nil {
		log.ErrorErr(log.CatInsert, "render failed", err, "id", def.ID())
		return "", &template.InsertError{Code: template.CodeRenderFailed, TemplateID: def.ID(), Message: err.Error(), Err: err}
	}
	return markup, nil
}

func (o *Orchestrator) startEnrichment(ctx context.Context, def *template.Definition, params template.Params, path string) workflow.Session {
	if o.enricher == nil || len(def.Workflows()) == 0 {
		return ""
	}
	session := workflow.NewSession()
	if !o.enricher.Start(ctx, session, def, params, path) {
		return ""
	}
	return session
}

// Rerender consumes res's enrichment patch, if ready, and renders the
// enriched markup under the same instance id. The boolean is false when
// there was nothing to apply.
func (o *Orchestrator) Rerender(ctx context.Context, res *Result) (*Result, bool, error) {
	if res == nil || res.Session == "" || o.enricher == nil {
		return res, false, nil
	}
	patch, ok := o.enricher.Take(ctx, res.Session)
	if !ok {
		return res, false, nil
	}
	return o.rerenderWith(res, patch)
}

func (o *Orchestrator) rerenderWith(res *Result, patch template.Params) (*Result, bool, error) {
	patch = patch.WithoutScratch()
	if len(patch) == 0 {
		return res, false, nil
	}
	params := res.Params.Merge(patch)
	markup, err := o.render(res.Definition, params, res.InstanceID)
	if err != nil {
		return res, false, err
	}
	next := *res
	next.Markup = markup
	next.Params = params
	next.Session = ""
	return &next, true, nil
}
