package placement

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zjrosen/tasktpl/internal/domain/template"
	"github.com/zjrosen/tasktpl/internal/log"
)

// VariantResult records which constraints of one variant held.
type VariantResult struct {
	Variant    template.Variant
	LineOK     bool
	TopLevelOK bool
	ParentOK   bool
}

// Passed reports whether every constraint of the variant held.
func (r VariantResult) Passed() bool {
	return r.LineOK && r.TopLevelOK && r.ParentOK
}

// Evaluation is the outcome of checking a rule against a context.
type Evaluation struct {
	Kind      template.LineKind
	Ancestors []string
	Variants  []VariantResult
}

// Allowed reports whether the rule accepted the context. A rule without
// variants always does.
func (e Evaluation) Allowed() bool {
	if len(e.Variants) == 0 {
		return true
	}
	for _, v := range e.Variants {
		if v.Passed() {
			return true
		}
	}
	return false
}

// Nearest returns the nearest ancestor id and whether there is any ancestor.
func (e Evaluation) Nearest() (string, bool) {
	if len(e.Ancestors) == 0 {
		return "", false
	}
	return e.Ancestors[0], true
}

// Messages lists one reason per failed constraint across all variants.
func (e Evaluation) Messages() []string {
	var msgs []string
	multi := len(e.Variants) > 1
	for i, r := range e.Variants {
		prefix := ""
		if multi {
			prefix = fmt.Sprintf("variant %d: ", i+1)
		}
		if !r.LineOK {
			msgs = append(msgs, fmt.Sprintf("%srequires a %s line (current line is %s)",
				prefix, joinKinds(r.Variant.AllowedOn), e.Kind))
		}
		if !r.TopLevelOK {
			msgs = append(msgs, fmt.Sprintf("%smust be top-level (nested under %s)",
				prefix, describeAncestor(e.Ancestors[0])))
		}
		if !r.ParentOK {
			nearest := "none"
			if id, ok := e.Nearest(); ok {
				nearest = describeAncestor(id)
			}
			msgs = append(msgs, fmt.Sprintf("%srequires parent %s (nearest ancestor is %s)",
				prefix, strings.Join(r.Variant.Parent, " or "), nearest))
		}
	}
	return msgs
}

// Check evaluates every variant of rule against ctx. Ancestors are resolved at
// most once; a nil resolve uses Ancestors.
func Check(ctx Context, rule template.Rule, resolve Resolver) Evaluation {
	eval := Evaluation{Kind: ClassifyLine(ctx.Line), Ancestors: []string{}}
	if len(rule) == 0 {
		return eval
	}
	if resolve == nil {
		resolve = Ancestors
	}
	if a := resolve(ctx); a != nil {
		eval.Ancestors = a
	}

	nearest, hasAncestor := eval.Nearest()
	for _, v := range rule {
		eval.Variants = append(eval.Variants, VariantResult{
			Variant:    v,
			LineOK:     v.AllowsLine(eval.Kind),
			TopLevelOK: !v.TopLevel || !hasAncestor,
			ParentOK:   len(v.Parent) == 0 || (hasAncestor && slices.Contains(v.Parent, nearest)),
		})
	}
	return eval
}

// EvaluateRules returns nil when any variant of rule accepts ctx, otherwise a
// *template.RulesViolationError with every failure reason and the ancestors.
func EvaluateRules(ctx Context, rule template.Rule, resolve Resolver) error {
	eval := Check(ctx, rule, resolve)
	if eval.Allowed() {
		log.Debug(log.CatRules, "placement allowed", "kind", eval.Kind, "ancestors", eval.Ancestors)
		return nil
	}
	err := &template.RulesViolationError{Messages: eval.Messages(), Ancestors: eval.Ancestors}
	log.Debug(log.CatRules, "placement rejected", "kind", eval.Kind, "ancestors", eval.Ancestors, "reasons", len(err.Messages))
	return err
}

// IsAllowedInContext is EvaluateRules collapsed to a boolean.
func IsAllowedInContext(ctx Context, rule template.Rule, resolve Resolver) bool {
	return Check(ctx, rule, resolve).Allowed()
}

func joinKinds(kinds []template.LineKind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, " or ")
}

func describeAncestor(id string) string {
	if id == "" {
		return "a plain list item"
	}
	return id
}
