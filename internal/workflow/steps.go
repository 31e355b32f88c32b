package workflow

import (
	"context"
	"path"
	"strings"

	"github.com/zjrosen/tasktpl/internal/domain/template"
	"github.com/zjrosen/tasktpl/internal/log"
)

// Built-in step and workflow names.
const (
	StepResolveReference  = "resolveReference"
	StepClassifyReference = "classifyReference"
	WorkflowBlockRef      = "blockRef"
)

const blockMarker = "#^"

// ReferenceCandidates lists the forms a reference is tried in: the reference
// as given, the normalized "#^id" form, then "file.md#^id" with the markdown
// extension inferred. docPath supplies the file for bare ids.
func ReferenceCandidates(ref, docPath string) []string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	file, id := SplitReference(ref)

	var out []string
	add := func(c string) {
		for _, existing := range out {
			if existing == c {
				return
			}
		}
		out = append(out, c)
	}
	add(ref)
	if id == "" {
		return out
	}
	add(blockMarker + id)
	if file == "" {
		file = docPath
	}
	if file != "" {
		if path.Ext(file) == "" {
			file += ".md"
		}
		add(file + blockMarker + id)
	}
	return out
}

// SplitReference separates "file#^id", "#^id", "^id" and bare "id" forms
// into the file part and the block id.
func SplitReference(ref string) (file, id string) {
	ref = strings.TrimSpace(ref)
	if i := strings.Index(ref, blockMarker); i >= 0 {
		return ref[:i], ref[i+len(blockMarker):]
	}
	if strings.HasPrefix(ref, "^") {
		return "", ref[1:]
	}
	if strings.ContainsAny(ref, "/#") || path.Ext(ref) == ".md" {
		return ref, ""
	}
	return "", ref
}

// ResolveReference looks RefParam up through ports.Lookup, trying every
// candidate form and finally the id-only lookup. The first hit is stored
// under RecordParam.
func ResolveReference(ctx context.Context, params template.Params, ports Ports) (template.Params, error) {
	ref := params.String(RefParam)
	if strings.TrimSpace(ref) == "" {
		return nil, nil
	}
	if ports.Lookup == nil {
		return nil, ErrNoLookup
	}

	var lastErr error
	for _, candidate := range ReferenceCandidates(ref, ports.Path) {
		rec, err := ports.Lookup.Resolve(ctx, candidate)
		if err != nil {
			log.Debug(log.CatWorkflow, "reference candidate failed", "candidate", candidate, "error", err)
			lastErr = err
			continue
		}
		if rec != nil {
			return template.Params{RecordParam: rec}, nil
		}
	}

	if byID, ok := ports.Lookup.(IDLookup); ok {
		if _, id := SplitReference(ref); id != "" {
			rec, err := byID.ResolveID(ctx, id)
			if err != nil {
				return nil, err
			}
			if rec != nil {
				return template.Params{RecordParam: rec}, nil
			}
		}
	}

	log.Debug(log.CatWorkflow, "reference not found", "ref", ref)
	return nil, lastErr
}

// ClassifyReference exposes the resolved record's classification under
// StatusParam unless the caller already supplied one.
func ClassifyReference(ctx context.Context, params template.Params, ports Ports) (template.Params, error) {
	rec, _ := params[RecordParam].(*Record)
	if rec == nil || params.Has(StatusParam) {
		return nil, nil
	}
	if ports.Classifier == nil {
		return nil, ErrNoClassifier
	}
	return template.Params{StatusParam: ports.Classifier.Classify(rec)}, nil
}
