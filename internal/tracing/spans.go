package tracing

import (
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrTemplateID   = "template.id"
	AttrInstanceID   = "template.instance_id"
	AttrSessionID    = "session.id"
	AttrWorkflowName = "workflow.name"
	AttrStepName     = "workflow.step"
	AttrStepIndex    = "workflow.step_index"
	AttrLineIndex    = "document.line"
	AttrFilePath     = "document.path"
	AttrReference    = "reference"

	AttrErrorMessage = "error.message"
	AttrErrorCode    = "error.code"
)

// Span name prefixes.
const (
	SpanPrefixWorkflow = "workflow."
	SpanPrefixStep     = "step."
	SpanPrefixInsert   = "insert."
	SpanPrefixLookup   = "lookup."
)

// Event names.
const (
	EventStepFailed      = "step.failed"
	EventStepPanicked    = "step.panicked"
	EventWorkflowUnknown = "workflow.unknown"
	EventEnrichmentReady = "enrichment.ready"
	EventRulesRejected   = "rules.rejected"
)

// RecordError marks span as failed with err's message. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
