// Package template implements the domain layer for inline template definitions.
//
// It contains only pure Go code: definitions, placement rule variants, parameter
// schemas, the namespace-grouped registry and the error taxonomy raised by the
// insertion flow. It has no knowledge of editors, files, YAML or workflows.
//
// # Core Types
//
// Definition describes one insertable template: its "namespace.key" identity,
// optional parameter schema and defaults, placement rule variants, order tag,
// declared enrichment workflows and the render/parse functions bound to it.
// Use Builder for construction; definitions are immutable once built.
//
// Rule is a list of Variant values. A placement is allowed when any variant
// passes all of its constraints (line kind, top-level, parent).
//
// # Registry
//
// Registry groups definitions by namespace and resolves ids with a chain of
// fallbacks (exact, last segment, namespace scan, global scan). It is read-only
// after construction and safe for concurrent reads.
//
// # Errors
//
// InsertError carries one of the Code values (UNKNOWN_TEMPLATE, NOT_ALLOWED_HERE,
// TOP_LEVEL_ONLY, PARENT_MISSING, RENDER_FAILED). RulesViolationError aggregates
// the reasons every rule variant failed together with the resolved ancestors.
package template
