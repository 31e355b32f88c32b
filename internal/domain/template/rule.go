package template

// LineKind classifies a document line for placement purposes.
type LineKind string

const (
	LineTask LineKind = "task" // list item with a [ ] status cell
	LineList LineKind = "list" // list item without a status cell
	LineAny  LineKind = "any"  // wildcard, only meaningful in Variant.AllowedOn
	LineNone LineKind = "none" // prose or empty line
)

// Variant is one admissible combination of placement constraints.
type Variant struct {
	// AllowedOn lists the line kinds the template may be placed on.
	// Empty, or containing LineAny, means any line.
	AllowedOn []LineKind `yaml:"allowedOn" json:"allowedOn,omitempty"`

	// TopLevel requires the line to have no ancestors.
	TopLevel bool `yaml:"topLevel" json:"topLevel,omitempty"`

	// Parent lists allowed template ids for the nearest ancestor.
	Parent []string `yaml:"parent" json:"parent,omitempty"`
}

// AllowsAnyLine reports whether the variant places no line-kind constraint.
func (v Variant) AllowsAnyLine() bool {
	if len(v.AllowedOn) == 0 {
		return true
	}
	for _, k := range v.AllowedOn {
		if k == LineAny {
			return true
		}
	}
	return false
}

// AllowsLine reports whether the variant accepts a line of the given kind.
func (v Variant) AllowsLine(kind LineKind) bool {
	if v.AllowsAnyLine() {
		return true
	}
	for _, k := range v.AllowedOn {
		if k == kind {
			return true
		}
	}
	return false
}

// Rule is the full placement rule of a definition: OR across variants.
type Rule []Variant

// Allowed summarises the union of line kinds accepted by any variant.
type Allowed struct {
	Any  bool
	Task bool
	List bool
}

// AllowedLines computes the union of AllowedOn across all variants.
// A rule without variants, or any variant without a line constraint, allows any line.
func (r Rule) AllowedLines() Allowed {
	if len(r) == 0 {
		return Allowed{Any: true}
	}
	var a Allowed
	for _, v := range r {
		if v.AllowsAnyLine() {
			return Allowed{Any: true}
		}
		for _, k := range v.AllowedOn {
			switch k {
			case LineTask:
				a.Task = true
			case LineList:
				a.List = true
			}
		}
	}
	return a
}
