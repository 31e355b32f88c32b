package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zjrosen/tasktpl/internal/domain/template"
	"github.com/zjrosen/tasktpl/internal/log"
)

var ErrRequired = errors.New("a value is required")

// Collector asks for every schema field through a Driver, in schema order.
type Collector struct {
	driver Driver
	// Blocks suggests references for blockSelect fields.
	Blocks func(toComplete string) []string
}

var _ template.Collector = (*Collector)(nil)

// NewCollector creates a collector over driver.
func NewCollector(driver Driver) *Collector {
	return &Collector{driver: driver}
}

// Collect prompts for each field of def's schema, pre-filled from initial,
// and returns initial merged with the answers.
func (c *Collector) Collect(ctx context.Context, def *template.Definition, mode template.CollectMode, initial template.Params) (template.Params, error) {
	schema := def.Schema()
	if schema == nil || len(schema.Fields) == 0 {
		return initial.Clone(), nil
	}
	log.Debug(log.CatInsert, "collecting parameters", "id", def.ID(), "mode", mode, "title", schema.TitleFor(mode))

	answers := template.Params{}
	for _, f := range schema.Fields {
		v, err := c.ask(ctx, f, initial.String(f.Name))
		if err != nil {
			return nil, err
		}
		answers[f.Name] = v
	}
	return initial.Merge(answers), nil
}

func (c *Collector) ask(ctx context.Context, f template.Field, current string) (string, error) {
	if current == "" {
		current = f.DefaultValue
	}
	msg := f.DisplayLabel()
	if f.Required {
		msg += " *"
	}
	msg += ":"

	switch f.EffectiveType() {
	case template.FieldDropdown:
		labels := make([]string, len(f.Options))
		def := 0
		for i, o := range f.Options {
			labels[i] = o.Label
			if o.Value == current {
				def = i
			}
		}
		i, err := c.driver.Select(ctx, SelectConfig{Message: msg, Options: labels, DefaultIndex: def, Help: f.Placeholder})
		if err != nil {
			return "", err
		}
		if i < 0 || i >= len(f.Options) {
			return "", fmt.Errorf("field %s: no option selected", f.Name)
		}
		return f.Options[i].Value, nil

	case template.FieldTextarea:
		v, err := c.driver.TextArea(ctx, TextAreaConfig{Message: msg, Default: current, Help: f.Placeholder})
		if err != nil {
			return "", err
		}
		if f.Required && strings.TrimSpace(v) == "" {
			return "", fmt.Errorf("field %s: %w", f.Name, ErrRequired)
		}
		return v, nil

	default:
		cfg := InputConfig{Message: msg, Default: current, Help: f.Placeholder}
		if f.Required {
			cfg.Validator = required
		}
		if f.EffectiveType() == template.FieldBlockSelect {
			cfg.Suggest = c.Blocks
		}
		return c.driver.Input(ctx, cfg)
	}
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrRequired
	}
	return nil
}
