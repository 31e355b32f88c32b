package template

// RenderInput is everything a render function needs to produce one instance.
type RenderInput struct {
	Definition *Definition
	Params     Params
	InstanceID string
}

// RenderFunc turns parameters into the complete markup of one wrapper instance.
type RenderFunc func(in RenderInput) (string, error)

// ParseFunc recovers parameters from the markup of an existing instance.
type ParseFunc func(markup string) (Params, error)

// Definition represents a registered template.
type Definition struct {
	id        string // e.g., "agile.epic"
	namespace string // e.g., "agile"
	key       string // e.g., "epic"
	label     string // e.g., "Epic"
	hasParams bool
	schema    *ParamSchema
	defaults  Params
	rules     Rule
	orderTag  string   // e.g., "artifact"
	workflows []string // e.g., ["blockRef"]
	hidden    bool
	render    RenderFunc
	parse     ParseFunc
}

// ID returns the full "namespace.key" identifier
func (d *Definition) ID() string {
	return d.id
}

// Namespace returns the registry group
func (d *Definition) Namespace() string {
	return d.namespace
}

// Key returns the id remainder after the namespace
func (d *Definition) Key() string {
	return d.key
}

// Label returns the human-readable name, falling back to the id
func (d *Definition) Label() string {
	if d.label == "" {
		return d.id
	}
	return d.label
}

// HasParams reports whether inserting requires collecting parameters
func (d *Definition) HasParams() bool {
	return d.hasParams
}

// Schema returns the parameter schema, which may be nil
func (d *Definition) Schema() *ParamSchema {
	return d.schema
}

// Defaults returns a copy of the default parameter values, including schema field defaults
func (d *Definition) Defaults() Params {
	return d.schema.FieldDefaults().Merge(d.defaults)
}

// Rules returns the placement rule variants
func (d *Definition) Rules() Rule {
	return d.rules
}

// OrderTag returns the placement category written to each instance
func (d *Definition) OrderTag() string {
	return d.orderTag
}

// Workflows returns the names of enrichment workflows run after insertion
func (d *Definition) Workflows() []string {
	return d.workflows
}

// Hidden reports whether command registrars should skip this definition
func (d *Definition) Hidden() bool {
	return d.hidden
}

// Render returns the bound render function
func (d *Definition) Render() RenderFunc {
	return d.render
}

// Parse returns the parse override, or nil when generic extraction applies
func (d *Definition) Parse() ParseFunc {
	return d.parse
}
