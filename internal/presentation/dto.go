package presentation

import (
	"errors"
	"sort"

	"github.com/zjrosen/tasktpl/internal/domain/template"
	"github.com/zjrosen/tasktpl/internal/insert"
	"github.com/zjrosen/tasktpl/internal/workflow"
	"github.com/zjrosen/tasktpl/internal/wrapper"
)

// TemplateDTO represents a template definition for presentation
type TemplateDTO struct {
	ID        string             `json:"id"`
	Namespace string             `json:"namespace"`
	Key       string             `json:"key"`
	Label     string             `json:"label"`
	OrderTag  string             `json:"order_tag,omitempty"`
	Hidden    bool               `json:"hidden,omitempty"`
	Workflows []string           `json:"workflows,omitempty"`
	Rules     []template.Variant `json:"rules"` // always present, empty means anywhere
	Fields    []FieldDTO         `json:"fields,omitempty"`
}

// FieldDTO represents one parameter field
type FieldDTO struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required,omitempty"`
	Default  string   `json:"default,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// FromDefinition converts a definition to a DTO
func FromDefinition(def *template.Definition) TemplateDTO {
	dto := TemplateDTO{
		ID:        def.ID(),
		Namespace: def.Namespace(),
		Key:       def.Key(),
		Label:     def.Label(),
		OrderTag:  def.OrderTag(),
		Hidden:    def.Hidden(),
		Workflows: def.Workflows(),
		Rules:     append([]template.Variant{}, def.Rules()...),
	}
	if schema := def.Schema(); schema != nil {
		for _, f := range schema.Fields {
			fd := FieldDTO{
				Name:     f.Name,
				Label:    f.DisplayLabel(),
				Type:     string(f.EffectiveType()),
				Required: f.Required,
				Default:  f.DefaultValue,
			}
			for _, o := range f.Options {
				fd.Options = append(fd.Options, o.Value)
			}
			dto.Fields = append(dto.Fields, fd)
		}
	}
	return dto
}

// FromDefinitions converts a slice of definitions to DTOs
func FromDefinitions(defs []*template.Definition) []TemplateDTO {
	dtos := make([]TemplateDTO, len(defs))
	for i, def := range defs {
		dtos[i] = FromDefinition(def)
	}
	return dtos
}

// InstanceDTO represents one wrapper instance found in a document
type InstanceDTO struct {
	Line       int               `json:"line"`
	Start      int               `json:"start"`
	End        int               `json:"end"`
	TemplateID string            `json:"template_id"`
	InstanceID string            `json:"instance_id,omitempty"`
	OrderTag   string            `json:"order_tag,omitempty"`
	Params     map[string]string `json:"params"`
}

// FromInstances converts the instances of one line to DTOs
func FromInstances(line int, instances []wrapper.Instance) []InstanceDTO {
	dtos := make([]InstanceDTO, 0, len(instances))
	for _, in := range instances {
		dtos = append(dtos, InstanceDTO{
			Line:       line,
			Start:      in.Range.Start,
			End:        in.Range.End,
			TemplateID: in.Attrs.Key,
			InstanceID: in.Attrs.InstanceID,
			OrderTag:   in.Attrs.OrderTag,
			Params:     wrapper.ExtractParams(in.Raw),
		})
	}
	return dtos
}

// ResultDTO represents an insertion or edit result
type ResultDTO struct {
	TemplateID string         `json:"template_id"`
	InstanceID string         `json:"instance_id"`
	Line       int            `json:"line"`
	Markup     string         `json:"markup"`
	Params     map[string]any `json:"params"`
	Enriched   bool           `json:"enriched"`
}

// FromResult converts an orchestrator result to a DTO
func FromResult(res *insert.Result, enriched bool) ResultDTO {
	params := make(map[string]any, len(res.Params))
	for _, k := range res.Params.WithoutScratch().Keys() {
		params[k] = res.Params[k]
	}
	return ResultDTO{
		TemplateID: res.Definition.ID(),
		InstanceID: res.InstanceID,
		Line:       res.Line,
		Markup:     res.Markup,
		Params:     params,
		Enriched:   enriched,
	}
}

// ErrorDTO represents a failed operation
type ErrorDTO struct {
	Code            string   `json:"code,omitempty"`
	TemplateID      string   `json:"template_id,omitempty"`
	Message         string   `json:"message"`
	Ancestors       []string `json:"ancestors,omitempty"`
	RequiredParents []string `json:"required_parents,omitempty"`
}

// FromError converts err to a DTO, keeping the structure of an InsertError
func FromError(err error) ErrorDTO {
	var ie *template.InsertError
	if errors.As(err, &ie) {
		return ErrorDTO{
			Code:            string(ie.Code),
			TemplateID:      ie.TemplateID,
			Message:         ie.Message,
			Ancestors:       ie.Ancestors,
			RequiredParents: ie.RequiredParents,
		}
	}
	return ErrorDTO{Message: err.Error()}
}

// BlockDTO represents an indexed block
type BlockDTO struct {
	Ref    string `json:"ref"`
	Path   string `json:"path"`
	Line   int    `json:"line"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
	Text   string `json:"text"`
}

// FromRecords converts index records to DTOs, classifying each with classify
func FromRecords(recs []workflow.Record, classify workflow.Classifier) []BlockDTO {
	dtos := make([]BlockDTO, 0, len(recs))
	for i := range recs {
		rec := &recs[i]
		dto := BlockDTO{Ref: rec.Ref, Path: rec.Path, Line: rec.Line, Kind: string(rec.Kind), Text: rec.Text}
		if classify != nil {
			dto.Status = classify.Classify(rec)
		}
		dtos = append(dtos, dto)
	}
	sort.SliceStable(dtos, func(i, j int) bool {
		if dtos[i].Path != dtos[j].Path {
			return dtos[i].Path < dtos[j].Path
		}
		return dtos[i].Line < dtos[j].Line
	})
	return dtos
}
