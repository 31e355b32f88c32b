// Package placement decides where a template may be inserted.
//
// It classifies document lines as task, list or prose, resolves the chain of
// enclosing template ids by scanning upward through decreasing indentation, and
// evaluates a definition's rule variants against that context. Nothing in this
// package mutates a document.
package placement
