package insert

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/tasktpl/internal/domain/template"
	"github.com/zjrosen/tasktpl/internal/editor"
	"github.com/zjrosen/tasktpl/internal/log"
	"github.com/zjrosen/tasktpl/internal/tracing"
	"github.com/zjrosen/tasktpl/internal/wrapper"
)

// located is one wrapper instance found in a buffer line.
type located struct {
	line  int
	start int
	end   int
}

// locate finds the instance anchored by instanceID anywhere in ed, or by key on
// the cursor line when instanceID is empty.
func locate(ed editor.Editor, key, instanceID string) (located, bool) {
	attr, value := wrapper.AttrWrapper, instanceID
	lines := []int{ed.Cursor().Line}
	if instanceID == "" {
		attr, value = wrapper.AttrKey, key
	} else {
		lines = lines[:0]
		for i := 0; i < ed.LineCount(); i++ {
			if strings.Contains(ed.Line(i), instanceID) {
				lines = append(lines, i)
			}
		}
	}

	for _, n := range lines {
		text := ed.Line(n)
		start, tagEnd, ok := wrapper.FindOpeningTagByAttr(text, attr, value)
		if !ok {
			continue
		}
		end, ok := wrapper.FindMatchingWrapperEnd(text, tagEnd+1)
		if !ok {
			continue
		}
		return located{line: n, start: start, end: end}, true
	}
	return located{}, false
}

// ReplaceWrapperInstance swaps an existing instance for newMarkup. The target
// is the instance with instanceID anywhere in the buffer, or the first
// instance of key on the cursor line when instanceID is empty. It returns
// false, leaving ed unchanged, when the opening or matching closing tag
// cannot be found. On success the cursor ends after the new markup.
func (o *Orchestrator) ReplaceWrapperInstance(ed editor.Editor, key, newMarkup, instanceID string) bool {
	loc, ok := locate(ed, key, instanceID)
	if !ok {
		log.Debug(log.CatInsert, "instance not found for replacement", "key", key, "instance", instanceID)
		return false
	}
	ed.ReplaceRange(newMarkup,
		editor.Position{Line: loc.line, Ch: loc.start},
		editor.Position{Line: loc.line, Ch: loc.end})
	ed.SetCursor(editor.Position{Line: loc.line, Ch: loc.start + len(newMarkup)})
	log.Debug(log.CatInsert, "replaced instance", "key", key, "instance", instanceID, "line", loc.line)
	return true
}

// EditInstance re-renders the instance instanceID with its current parameters
// merged with overrides. Parameters are recovered with the definition's parse
// override when it has one, else by generic extraction. When a collector is
// configured and the definition has parameters, it is consulted in edit mode.
// Placement rules are not re-checked; the instance keeps its id. path names
// the document for enrichment, as in InsertTemplateAtCursor.
func (o *Orchestrator) EditInstance(ctx context.Context, ed editor.Editor, path, instanceID string, overrides template.Params) (*Result, error) {
	ctx, span := o.tracer.Start(ctx, tracing.SpanPrefixInsert+"edit", trace.WithAttributes(
		attribute.String(tracing.AttrInstanceID, instanceID),
	))
	defer span.End()

	res, err := o.editInstance(ctx, ed, path, instanceID, overrides)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String(tracing.AttrTemplateID, res.Definition.ID()))
	return res, nil
}

func (o *Orchestrator) editInstance(ctx context.Context, ed editor.Editor, path, instanceID string, overrides template.Params) (*Result, error) {
	loc, ok := locate(ed, "", instanceID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, instanceID)
	}
	raw := ed.Line(loc.line)[loc.start:loc.end]
	attrs := wrapper.InstanceAttrs(raw)

	def, ok := o.templates.FindByID(attrs.Key)
	if !ok {
		return nil, &template.InsertError{Code: template.CodeUnknownTemplate, TemplateID: attrs.Key, Message: "no template registered for " + attrs.Key}
	}

	params, err := o.currentParams(def, raw)
	if err != nil {
		return nil, err
	}
	params = params.Merge(overrides)

	if o.collector != nil && def.HasParams() {
		params, err = o.collector.Collect(ctx, def, template.CollectEdit, params)
		if err != nil {
			return nil, err
		}
	}

	merged := def.Defaults().Merge(params)
	markup, err := o.render(def, merged, instanceID)
	if err != nil {
		return nil, err
	}
	if !o.ReplaceWrapperInstance(ed, def.ID(), markup, instanceID) {
		return nil, fmt.Errorf("%w: %s", ErrReplaceFailed, instanceID)
	}

	res := &Result{
		Definition: def,
		Markup:     markup,
		InstanceID: instanceID,
		Params:     merged,
		Line:       loc.line,
		Path:       path,
	}
	res.Session = o.startEnrichment(ctx, def, merged, path)
	log.Info(log.CatInsert, "edited instance", "id", def.ID(), "instance", instanceID, "line", loc.line)
	return res, nil
}

func (o *Orchestrator) currentParams(def *template.Definition, raw string) (template.Params, error) {
	if parse := def.Parse(); parse != nil {
		params, err := parse(raw)
		if err != nil {
			return nil, &template.InsertError{Code: template.CodeRenderFailed, TemplateID: def.ID(), Message: "parse: " + err.Error(), Err: err}
		}
		return params, nil
	}
	params := template.Params{}
	for k, v := range wrapper.ExtractParams(raw) {
		params[k] = v
	}
	return params, nil
}

// ApplyEnrichment waits for res's enrichment, re-renders with the patch and
// replaces the instance in ed. It returns res unchanged when no enrichment was
// started, the workflows produced no changes, or the instance was edited away
// in the meantime.
func (o *Orchestrator) ApplyEnrichment(ctx context.Context, ed editor.Editor, res *Result) (*Result, error) {
	if res == nil || res.Session == "" || o.enricher == nil {
		return res, nil
	}
	patch, ok := o.enricher.Wait(ctx, res.Session)
	if !ok {
		return res, ctx.Err()
	}
	next, changed, err := o.rerenderWith(res, patch)
	if err != nil || !changed {
		return res, err
	}

	// the cursor may have moved since insertion
	cursor := ed.Cursor()
	if !o.ReplaceWrapperInstance(ed, next.Definition.ID(), next.Markup, next.InstanceID) {
		log.Warn(log.CatInsert, "enriched instance no longer present", "instance", res.InstanceID)
		return res, nil
	}
	ed.SetCursor(cursor)
	log.Debug(log.CatInsert, "applied enrichment", "instance", next.InstanceID, "keys", patch.Keys())
	return next, nil
}
