package template

import (
	"context"
	"errors"
)

// Provider defines read-only access to template definitions.
// The insertion flow depends on this interface rather than the concrete Registry.
type Provider interface {
	// FindByID resolves an id using the registry fallback chain.
	FindByID(id string) (*Definition, bool)

	// List returns all definitions sorted by id.
	List() []*Definition

	// Visible returns the definitions command registrars should expose.
	Visible() []*Definition
}

// Compile-time check that Registry implements Provider.
var _ Provider = (*Registry)(nil)

// CollectMode tells a collector whether it is creating or editing an instance.
type CollectMode string

const (
	CollectCreate CollectMode = "create"
	CollectEdit   CollectMode = "edit"
)

// ErrCollectCancelled is returned by a Collector when the user backs out.
var ErrCollectCancelled = errors.New("parameter collection cancelled")

// Collector gathers field values for a schema, typically from a human.
type Collector interface {
	Collect(ctx context.Context, def *Definition, mode CollectMode, initial Params) (Params, error)
}

// CollectorFunc adapts a function to the Collector interface.
type CollectorFunc func(ctx context.Context, def *Definition, mode CollectMode, initial Params) (Params, error)

// Collect calls f.
func (f CollectorFunc) Collect(ctx context.Context, def *Definition, mode CollectMode, initial Params) (Params, error) {
	return f(ctx, def, mode, initial)
}
