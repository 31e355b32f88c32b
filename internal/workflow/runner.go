package workflow

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/tasktpl/internal/domain/template"
	"github.com/zjrosen/tasktpl/internal/log"
	"github.com/zjrosen/tasktpl/internal/tracing"
)

var (
	ErrEmptyName     = errors.New("workflow or step name is empty")
	ErrDuplicateName = errors.New("workflow or step already registered")
	ErrUnknownStep   = errors.New("unknown step")
)

// Runner executes named workflows. A name resolves to a registered workflow
// (an ordered list of steps) or, failing that, to a single registered step.
type Runner struct {
	mu        sync.RWMutex
	steps     map[string]Step
	workflows map[string][]string
	tracer    trace.Tracer
}

// Option configures a Runner.
type Option func(*Runner)

// WithTracer records a span per workflow and per step.
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) {
		if t != nil {
			r.tracer = t
		}
	}
}

// NewRunner returns a runner with the built-in reference steps and the
// blockRef workflow registered.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		steps:     make(map[string]Step),
		workflows: make(map[string][]string),
		tracer:    noop.NewTracerProvider().Tracer("noop"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.steps[StepResolveReference] = ResolveReference
	r.steps[StepClassifyReference] = ClassifyReference
	r.workflows[WorkflowBlockRef] = []string{StepResolveReference, StepClassifyReference}
	return r
}

// RegisterStep adds a named step.
func (r *Runner) RegisterStep(name string, step Step) error {
	if name == "" || step == nil {
		return ErrEmptyName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.steps[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	r.steps[name] = step
	return nil
}

// RegisterWorkflow adds a named, ordered list of previously registered steps.
func (r *Runner) RegisterWorkflow(name string, steps ...string) error {
	if name == "" {
		return ErrEmptyName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.workflows[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	for _, s := range steps {
		if _, ok := r.steps[s]; !ok {
			return fmt.Errorf("%w: %s in workflow %s", ErrUnknownStep, s, name)
		}
	}
	r.workflows[name] = append([]string(nil), steps...)
	return nil
}

// Has reports whether name resolves to a workflow or step.
func (r *Runner) Has(name string) bool {
	_, ok := r.resolve(name)
	return ok
}

type namedStep struct {
	name string
	fn   Step
}

func (r *Runner) resolve(name string) ([]namedStep, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if names, ok := r.workflows[name]; ok {
		out := make([]namedStep, 0, len(names))
		for _, n := range names {
			out = append(out, namedStep{name: n, fn: r.steps[n]})
		}
		return out, true
	}
	if fn, ok := r.steps[name]; ok {
		return []namedStep{{name: name, fn: fn}}, true
	}
	return nil, false
}

// Run executes def's workflows over initial and returns the merged result
// without scratch keys. Unknown names and failing steps are logged and skipped.
func (r *Runner) Run(ctx context.Context, def *template.Definition, initial template.Params, ports Ports) template.Params {
	if def == nil {
		return initial.WithoutScratch()
	}
	return r.RunNamed(ctx, def.Workflows(), initial, ports)
}

// RunNamed executes the given workflow names in order.
func (r *Runner) RunNamed(ctx context.Context, names []string, initial template.Params, ports Ports) template.Params {
	acc := initial.Clone()
	for _, name := range names {
		if ctx.Err() != nil {
			log.Warn(log.CatWorkflow, "workflows interrupted", "workflow", name, "error", ctx.Err())
			break
		}
		steps, ok := r.resolve(name)
		if !ok {
			log.Warn(log.CatWorkflow, "unknown workflow", "workflow", name)
			continue
		}
		acc = r.runWorkflow(ctx, name, steps, acc, ports)
	}
	return acc.WithoutScratch()
}

func (r *Runner) runWorkflow(ctx context.Context, name string, steps []namedStep, acc template.Params, ports Ports) template.Params {
	ctx, span := r.tracer.Start(ctx, tracing.SpanPrefixWorkflow+name,
		trace.WithAttributes(attribute.String(tracing.AttrWorkflowName, name)))
	defer span.End()

	for i, s := range steps {
		if ctx.Err() != nil {
			break
		}
		patch, err := r.runStep(ctx, name, i, s, acc, ports)
		if err != nil {
			log.Warn(log.CatWorkflow, "step failed", "workflow", name, "step", s.name, "error", err)
			span.AddEvent(tracing.EventStepFailed, trace.WithAttributes(
				attribute.String(tracing.AttrStepName, s.name),
				attribute.String(tracing.AttrErrorMessage, err.Error()),
			))
			continue
		}
		acc = acc.Merge(patch)
	}
	return acc
}

func (r *Runner) runStep(ctx context.Context, workflow string, index int, s namedStep, params template.Params, ports Ports) (patch template.Params, err error) {
	ctx, span := r.tracer.Start(ctx, tracing.SpanPrefixStep+s.name, trace.WithAttributes(
		attribute.String(tracing.AttrWorkflowName, workflow),
		attribute.String(tracing.AttrStepName, s.name),
		attribute.Int(tracing.AttrStepIndex, index),
	))
	defer func() {
		if rec := recover(); rec != nil {
			log.Error(log.CatWorkflow, "step panicked", "step", s.name, "panic", rec, "stack", string(debug.Stack()))
			span.AddEvent(tracing.EventStepPanicked)
			patch, err = nil, fmt.Errorf("step %s panicked: %v", s.name, rec)
		}
		tracing.RecordError(span, err)
		span.End()
	}()

	// the step sees a copy; only its returned patch reaches the accumulator
	return s.fn(ctx, params.Clone(), ports)
}
