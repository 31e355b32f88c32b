package template

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldType selects the input control a collector presents for a field.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldTextarea    FieldType = "textarea"
	FieldDropdown    FieldType = "dropdown"
	FieldBlockSelect FieldType = "blockSelect"
)

// Option is one choice of a dropdown field.
type Option struct {
	Label string `yaml:"label" json:"label" validate:"required"`
	Value string `yaml:"value" json:"value" validate:"required"`
}

// Field describes one collectable parameter.
type Field struct {
	Name         string    `yaml:"name" json:"name" validate:"required"`
	Label        string    `yaml:"label" json:"label,omitempty"`
	Type         FieldType `yaml:"type" json:"type,omitempty" validate:"omitempty,oneof=text textarea dropdown blockSelect"`
	Placeholder  string    `yaml:"placeholder" json:"placeholder,omitempty"`
	DefaultValue string    `yaml:"defaultValue" json:"defaultValue,omitempty"`
	Required     bool      `yaml:"required" json:"required,omitempty"`
	Options      []Option  `yaml:"options" json:"options,omitempty" validate:"dive"`
}

// EffectiveType returns the field type, defaulting to text.
func (f Field) EffectiveType() FieldType {
	if f.Type == "" {
		return FieldText
	}
	return f.Type
}

// DisplayLabel returns the label, falling back to the field name.
func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Titles overrides the collector title per mode.
type Titles struct {
	Create string `yaml:"create" json:"create,omitempty"`
	Edit   string `yaml:"edit" json:"edit,omitempty"`
}

// ParamSchema is consumed by the external parameter collector.
type ParamSchema struct {
	Title       string  `yaml:"title" json:"title,omitempty"`
	Description string  `yaml:"description" json:"description,omitempty"`
	Titles      *Titles `yaml:"titles" json:"titles,omitempty"`
	Fields      []Field `yaml:"fields" json:"fields" validate:"unique=Name,dive"`
}

// ErrInvalidSchema is wrapped by every schema validation failure.
var ErrInvalidSchema = errors.New("invalid parameter schema")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func schemaValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks field names, types, uniqueness and dropdown options.
func (s *ParamSchema) Validate() error {
	if s == nil {
		return nil
	}
	if err := schemaValidator().Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidSchema, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	for _, f := range s.Fields {
		if strings.ContainsAny(f.Name, "\"'<> =") {
			return fmt.Errorf("%w: field name %q cannot be used as a marker value", ErrInvalidSchema, f.Name)
		}
		if f.EffectiveType() == FieldDropdown && len(f.Options) == 0 {
			return fmt.Errorf("%w: dropdown field %q has no options", ErrInvalidSchema, f.Name)
		}
	}
	return nil
}

// TitleFor returns the collector title for the mode ("create" or "edit").
func (s *ParamSchema) TitleFor(mode CollectMode) string {
	if s == nil {
		return ""
	}
	if s.Titles != nil {
		switch mode {
		case CollectCreate:
			if s.Titles.Create != "" {
				return s.Titles.Create
			}
		case CollectEdit:
			if s.Titles.Edit != "" {
				return s.Titles.Edit
			}
		}
	}
	return s.Title
}

// MissingRequired lists required fields without a value in params.
func (s *ParamSchema) MissingRequired(params Params) []string {
	if s == nil {
		return nil
	}
	var missing []string
	for _, f := range s.Fields {
		if f.Required && !params.Has(f.Name) {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// FieldDefaults returns the schema's per-field default values.
func (s *ParamSchema) FieldDefaults() Params {
	out := Params{}
	if s == nil {
		return out
	}
	for _, f := range s.Fields {
		if f.DefaultValue != "" {
			out[f.Name] = f.DefaultValue
		}
	}
	return out
}
