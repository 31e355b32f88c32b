package blockindex

import (
	"github.com/zjrosen/tasktpl/internal/domain/template"
	"github.com/zjrosen/tasktpl/internal/workflow"
)

// Statuses a block classifies as.
const (
	StatusTodo       = "todo"
	StatusDone       = "done"
	StatusInProgress = "in-progress"
	StatusCancelled  = "cancelled"
	StatusDeferred   = "deferred"
	StatusOther      = "other"
	StatusNote       = "note"
)

// Classify maps a record's status cell to a status name. Lines that are not
// tasks are notes.
func Classify(rec *workflow.Record) string {
	if rec == nil || rec.Kind != template.LineTask {
		return StatusNote
	}
	switch rec.Status {
	case " ", "":
		return StatusTodo
	case "x", "X":
		return StatusDone
	case "/":
		return StatusInProgress
	case "-":
		return StatusCancelled
	case ">":
		return StatusDeferred
	default:
		return StatusOther
	}
}

// Classifier is Classify as a workflow.Classifier.
var Classifier workflow.Classifier = workflow.ClassifierFunc(Classify)
