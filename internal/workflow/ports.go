// Package workflow runs the named enrichment steps a template declares and
// keeps their results for the render that follows.
//
// Steps are best-effort: a step that errors or panics contributes nothing and
// the next step still runs. Keys with the scratch prefix are visible to later
// steps but never returned.
package workflow

import (
	"context"
	"errors"

	"github.com/zjrosen/tasktpl/internal/domain/template"
)

// Parameter keys shared by the built-in steps.
const (
	// RefParam holds the caller-supplied block reference.
	RefParam = "ref"
	// StatusParam receives the reference's classification.
	StatusParam = "status"
	// RecordParam is the scratch key the resolved Record is stored under.
	RecordParam = template.ScratchPrefix + "record"
)

var (
	ErrNoLookup     = errors.New("no reference lookup configured")
	ErrNoClassifier = errors.New("no reference classifier configured")
)

// Record is a previously indexed block a reference resolved to.
type Record struct {
	Ref     string `json:"ref"`
	Path    string `json:"path"`
	BlockID string `json:"blockId"`
	Line    int    `json:"line"`
	Text    string `json:"text"`
	// Kind is the line kind of the block's line.
	Kind template.LineKind `json:"kind"`
	// Status is the raw status cell character of a task line.
	Status string `json:"status,omitempty"`
}

// Lookup resolves an opaque reference. A nil record with a nil error means
// the reference is unknown.
type Lookup interface {
	Resolve(ctx context.Context, ref string) (*Record, error)
}

// IDLookup is implemented by lookups that can also resolve a bare block id
// regardless of the file it lives in.
type IDLookup interface {
	ResolveID(ctx context.Context, id string) (*Record, error)
}

// Classifier derives a categorical status from a record.
type Classifier interface {
	Classify(rec *Record) string
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(rec *Record) string

// Classify calls f.
func (f ClassifierFunc) Classify(rec *Record) string {
	return f(rec)
}

// Ports are the external collaborators steps may use.
type Ports struct {
	Lookup     Lookup
	Classifier Classifier
	// Path is the document being edited; relative references resolve against it.
	Path string
}

// Step computes a patch from the accumulated parameters.
type Step func(ctx context.Context, params template.Params, ports Ports) (template.Params, error)
