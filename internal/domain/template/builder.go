package template

import "errors"

// Builder errors
var (
	ErrEmptyNamespace = errors.New("template namespace cannot be empty")
	ErrEmptyKey       = errors.New("template key cannot be empty")
	ErrNoRender       = errors.New("template must have a render function")
)

// Builder provides a fluent API for creating definitions
type Builder struct {
	def Definition
}

// NewBuilder creates a new definition builder for a namespace
func NewBuilder(namespace string) *Builder {
	return &Builder{def: Definition{namespace: namespace}}
}

// Key sets the key within the namespace (may itself contain dots)
func (b *Builder) Key(k string) *Builder {
	b.def.key = k
	return b
}

// Label sets the human-readable name
func (b *Builder) Label(l string) *Builder {
	b.def.label = l
	return b
}

// Params marks the definition as parameterized and attaches its schema
func (b *Builder) Params(schema *ParamSchema) *Builder {
	b.def.hasParams = true
	b.def.schema = schema
	return b
}

// Defaults sets default parameter values merged under caller params
func (b *Builder) Defaults(p Params) *Builder {
	b.def.defaults = p.Clone()
	return b
}

// Rules sets the placement rule variants
func (b *Builder) Rules(variants ...Variant) *Builder {
	b.def.rules = append(Rule(nil), variants...)
	return b
}

// OrderTag sets the placement category
func (b *Builder) OrderTag(tag string) *Builder {
	b.def.orderTag = tag
	return b
}

// Workflows sets the enrichment workflow names
func (b *Builder) Workflows(names ...string) *Builder {
	b.def.workflows = append([]string(nil), names...)
	return b
}

// Hidden excludes the definition from dynamic command registration
func (b *Builder) Hidden(h bool) *Builder {
	b.def.hidden = h
	return b
}

// Render binds the render function
func (b *Builder) Render(fn RenderFunc) *Builder {
	b.def.render = fn
	return b
}

// Parse binds a parse override
func (b *Builder) Parse(fn ParseFunc) *Builder {
	b.def.parse = fn
	return b
}

// Build creates the definition, validating required fields
func (b *Builder) Build() (*Definition, error) {
	if b.def.namespace == "" {
		return nil, ErrEmptyNamespace
	}
	if b.def.key == "" {
		return nil, ErrEmptyKey
	}
	if b.def.render == nil {
		return nil, ErrNoRender
	}
	if err := b.def.schema.Validate(); err != nil {
		return nil, err
	}

	def := b.def
	def.id = BuildID(def.namespace, def.key)
	return &def, nil
}
