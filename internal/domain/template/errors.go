package template

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies an insertion failure.
type Code string

const (
	CodeUnknownTemplate Code = "UNKNOWN_TEMPLATE"
	CodeNotAllowedHere  Code = "NOT_ALLOWED_HERE"
	CodeTopLevelOnly    Code = "TOP_LEVEL_ONLY"
	CodeParentMissing   Code = "PARENT_MISSING"
	CodeRenderFailed    Code = "RENDER_FAILED"
)

// RulesViolationError reports why no rule variant accepted a placement.
type RulesViolationError struct {
	Messages  []string // one reason per failed constraint, across all variants
	Ancestors []string // resolved ancestor chain, nearest first
}

func (e *RulesViolationError) Error() string {
	if len(e.Messages) == 0 {
		return "template not allowed here"
	}
	return "template not allowed here: " + strings.Join(e.Messages, "; ")
}

// InsertError is the single structured error the insertion flow returns.
type InsertError struct {
	Code            Code
	TemplateID      string
	Message         string
	Ancestors       []string
	RequiredParents []string
	Err             error
}

func (e *InsertError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.TemplateID != "" {
		fmt.Fprintf(&b, " [%s]", e.TemplateID)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *InsertError) Unwrap() error {
	return e.Err
}

// ErrorCode extracts the Code of an InsertError anywhere in err's chain.
func ErrorCode(err error) (Code, bool) {
	var ie *InsertError
	if errors.As(err, &ie) {
		return ie.Code, true
	}
	return "", false
}

// IsCode reports whether err carries the given insertion code.
func IsCode(err error, code Code) bool {
	c, ok := ErrorCode(err)
	return ok && c == code
}
