package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/tasktpl/internal/domain/template"
)

func defWithWorkflows(t *testing.T, names ...string) *template.Definition {
	t.Helper()
	def, err := template.NewBuilder("test").
		Key("wf").
		Workflows(names...).
		Render(func(template.RenderInput) (string, error) { return "", nil }).
		Build()
	require.NoError(t, err)
	return def
}

func constStep(patch template.Params) Step {
	return func(context.Context, template.Params, Ports) (template.Params, error) {
		return patch, nil
	}
}

func TestRunner_StepsRunInOrderAndSeeEarlierResults(t *testing.T) {
	r := NewRunner()
	var seen []string
	require.NoError(t, r.RegisterStep("first", func(_ context.Context, p template.Params, _ Ports) (template.Params, error) {
		seen = append(seen, "first:"+p.String("a"))
		return template.Params{"a": "from-first", "__tmp": 1}, nil
	}))
	require.NoError(t, r.RegisterStep("second", func(_ context.Context, p template.Params, _ Ports) (template.Params, error) {
		seen = append(seen, "second:"+p.String("a")+":"+p.String("__tmp"))
		return template.Params{"a": "from-second", "b": "x"}, nil
	}))
	require.NoError(t, r.RegisterWorkflow("pipeline", "first", "second"))

	got := r.Run(context.Background(), defWithWorkflows(t, "pipeline"), template.Params{"a": "initial"}, Ports{})

	require.Equal(t, []string{"first:initial", "second:from-first:1"}, seen)
	require.Equal(t, template.Params{"a": "from-second", "b": "x"}, got)
}

func TestRunner_FailingStepsContributeNothing(t *testing.T) {
	r := NewRunner()
	require.NoError(t, r.RegisterStep("ok1", constStep(template.Params{"one": "1"})))
	require.NoError(t, r.RegisterStep("fails", func(context.Context, template.Params, Ports) (template.Params, error) {
		return template.Params{"leak": "x"}, errors.New("boom")
	}))
	require.NoError(t, r.RegisterStep("panics", func(context.Context, template.Params, Ports) (template.Params, error) {
		panic("kaboom")
	}))
	require.NoError(t, r.RegisterStep("ok2", constStep(template.Params{"two": "2"})))
	require.NoError(t, r.RegisterWorkflow("mixed", "ok1", "fails", "panics", "ok2"))

	got := r.Run(context.Background(), defWithWorkflows(t, "mixed"), nil, Ports{})

	require.Equal(t, template.Params{"one": "1", "two": "2"}, got)
}

func TestRunner_NameResolvesToSingleStep(t *testing.T) {
	r := NewRunner()
	require.NoError(t, r.RegisterStep("solo", constStep(template.Params{"solo": true})))

	got := r.Run(context.Background(), defWithWorkflows(t, "solo", "missing"), template.Params{"keep": "k"}, Ports{})

	require.Equal(t, template.Params{"keep": "k", "solo": true}, got)
	require.True(t, r.Has("solo"))
	require.True(t, r.Has(WorkflowBlockRef))
	require.False(t, r.Has("missing"))
}

func TestRunner_StripsScratchKeys(t *testing.T) {
	r := NewRunner()

	got := r.Run(context.Background(), defWithWorkflows(t), template.Params{"__caller": "x", "a": "b"}, Ports{})

	require.Equal(t, template.Params{"a": "b"}, got)
}

func TestRunner_StepCannotMutateAccumulator(t *testing.T) {
	r := NewRunner()
	require.NoError(t, r.RegisterStep("mutates", func(_ context.Context, p template.Params, _ Ports) (template.Params, error) {
		p["sneaky"] = "x"
		return nil, errors.New("failed after mutating")
	}))

	got := r.Run(context.Background(), defWithWorkflows(t, "mutates"), template.Params{}, Ports{})

	require.Empty(t, got)
}

func TestRunner_BlockRefWorkflow(t *testing.T) {
	rec := &Record{Path: "todo.md", BlockID: "abc", Status: "x"}
	ports := Ports{
		Lookup:     &fakeLookup{refs: map[string]*Record{"#^abc": rec}},
		Classifier: ClassifierFunc(func(r *Record) string { return "done" }),
	}

	got := NewRunner().Run(context.Background(), defWithWorkflows(t, WorkflowBlockRef), template.Params{RefParam: "^abc"}, ports)

	require.Equal(t, template.Params{RefParam: "^abc", StatusParam: "done"}, got)
}

func TestRunner_Registration(t *testing.T) {
	r := NewRunner()

	require.ErrorIs(t, r.RegisterStep("", constStep(nil)), ErrEmptyName)
	require.ErrorIs(t, r.RegisterStep("x", nil), ErrEmptyName)
	require.ErrorIs(t, r.RegisterStep(StepResolveReference, constStep(nil)), ErrDuplicateName)
	require.ErrorIs(t, r.RegisterWorkflow(WorkflowBlockRef), ErrDuplicateName)
	require.ErrorIs(t, r.RegisterWorkflow("w", "nope"), ErrUnknownStep)
	require.ErrorIs(t, r.RegisterWorkflow(""), ErrEmptyName)
}

func TestRunner_CancelledContextStops(t *testing.T) {
	r := NewRunner()
	require.NoError(t, r.RegisterStep("s", constStep(template.Params{"ran": true})))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := r.Run(ctx, defWithWorkflows(t, "s"), template.Params{}, Ports{})

	require.Empty(t, got)
}

func TestRunner_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	r := NewRunner(WithTracer(tp.Tracer("test")))
	require.NoError(t, r.RegisterStep("fails", func(context.Context, template.Params, Ports) (template.Params, error) {
		return nil, errors.New("boom")
	}))
	require.NoError(t, r.RegisterWorkflow("w", "fails"))

	r.Run(context.Background(), defWithWorkflows(t, "w"), nil, Ports{})

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	require.Equal(t, "step.fails", spans[0].Name())
	require.Equal(t, "workflow.w", spans[1].Name())
	require.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
	require.Len(t, spans[1].Events(), 1)
}
