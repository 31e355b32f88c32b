package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zjrosen/tasktpl/internal/domain/template"
	"github.com/zjrosen/tasktpl/internal/wrapper"
)

var (
	ErrMissingField = errors.New("missing required field")
	ErrInvalidValue = errors.New("invalid field value")
)

// renderFactory binds a catalog entry's presentation data to a render function.
type renderFactory func(e Entry) template.RenderFunc

// renderers is the render function table, keyed by template id.
var renderers = map[string]renderFactory{
	"agile.initiative": artifactRenderer,
	"agile.epic":       artifactRenderer,
	"agile.story":      artifactRenderer,
	"meta.priority":    priorityRenderer,
	"meta.link":        linkRenderer,
	"meta.blockref":    blockRefRenderer,
	"meta.marker":      markerRenderer,
}

// parsers override generic parameter extraction, keyed by template id.
var parsers = map[string]template.ParseFunc{
	"meta.blockref": parseBlockRef,
}

// Renderers lists the ids with a dedicated render function, sorted.
func Renderers() []string {
	ids := make([]string, 0, len(renderers))
	for id := range renderers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func wrapperAttrs(in template.RenderInput, e Entry) wrapper.Attrs {
	a := wrapper.Attrs{
		InstanceID: in.InstanceID,
		Key:        in.Definition.ID(),
		OrderTag:   in.Definition.OrderTag(),
		Class:      e.Class,
	}
	for _, name := range e.Data {
		if v := in.Params.String(name); v != "" {
			if a.Data == nil {
				a.Data = make(map[string]string)
			}
			a.Data[name] = v
		}
	}
	return a
}

func icon(glyph string) string {
	if glyph == "" {
		return ""
	}
	return `<span class="tpl-icon" aria-hidden="true">` + glyph + `</span> `
}

func requiredText(in template.RenderInput, field string) (string, error) {
	v := plainText(in.Params.String(field))
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	return v, nil
}

// artifactRenderer renders a planning artifact: icon, bold title, optional owner.
func artifactRenderer(e Entry) template.RenderFunc {
	return func(in template.RenderInput) (string, error) {
		title, err := requiredText(in, "title")
		if err != nil {
			return "", err
		}
		inner := icon(e.Icon) + wrapper.VarTag("strong", "title", title, "tpl-title")
		if owner := plainText(in.Params.String("owner")); owner != "" {
			inner += " " + wrapper.VarTag("em", "owner", owner, "tpl-owner")
		}
		if points := in.Params.String("points"); points != "" {
			inner += " " + wrapper.VarTag("span", "points", points, "tpl-points")
		}
		return wrapper.Wrap(wrapperAttrs(in, e), inner), nil
	}
}

// priorityRenderer renders a badge whose class follows the chosen level.
func priorityRenderer(e Entry) template.RenderFunc {
	return func(in template.RenderInput) (string, error) {
		level := strings.ToLower(strings.TrimSpace(in.Params.String("level")))
		if level == "" {
			level = "medium"
		}
		if !hasOption(in.Definition.Schema(), "level", level) {
			return "", fmt.Errorf("%w: level %q", ErrInvalidValue, level)
		}
		badge := wrapper.VarTag("span", "level", level, "tpl-badge tpl-badge-"+wrapper.KebabCase(level))
		return wrapper.Wrap(wrapperAttrs(in, e), badge), nil
	}
}

// linkRenderer renders an anchor whose href is recoverable as the url field.
func linkRenderer(e Entry) template.RenderFunc {
	return func(in template.RenderInput) (string, error) {
		url := strings.TrimSpace(in.Params.String("url"))
		if url == "" {
			return "", fmt.Errorf("%w: url", ErrMissingField)
		}
		if !safeURL(url) {
			return "", fmt.Errorf("%w: url %q", ErrInvalidValue, url)
		}
		label := plainText(in.Params.String("label"))
		if label == "" {
			label = url
		}
		anchor := `<a` + wrapper.AttrVar("href", "url", url) + ` class="tpl-link-anchor">` + wrapper.Var("label", label) + `</a>`
		return wrapper.Wrap(wrapperAttrs(in, e), anchor), nil
	}
}

// blockRefRenderer renders a reference and, once enriched, its status.
func blockRefRenderer(e Entry) template.RenderFunc {
	return func(in template.RenderInput) (string, error) {
		ref, err := requiredText(in, "ref")
		if err != nil {
			return "", err
		}
		inner := `↪ ` + wrapper.VarTag("code", "ref", ref, "tpl-ref")
		if status := plainText(in.Params.String("status")); status != "" {
			inner += " " + wrapper.VarTag("span", "status", status, "tpl-status tpl-status-"+wrapper.KebabCase(status))
		}
		return wrapper.Wrap(wrapperAttrs(in, e), inner), nil
	}
}

// parseBlockRef recovers only the reference; the status is recomputed by the
// blockRef workflow on every edit.
func parseBlockRef(markup string) (template.Params, error) {
	params := template.Params{}
	if ref, ok := wrapper.ExtractParams(markup)["ref"]; ok {
		params["ref"] = ref
	}
	return params, nil
}

// markerRenderer renders a bare glyph with no parameters.
func markerRenderer(e Entry) template.RenderFunc {
	return func(in template.RenderInput) (string, error) {
		glyph := e.Icon
		if glyph == "" {
			glyph = "•"
		}
		return wrapper.Wrap(wrapperAttrs(in, e), glyph), nil
	}
}

// genericRenderer renders user-defined templates: the icon followed by one
// value marker per schema field that has a value.
func genericRenderer(e Entry) template.RenderFunc {
	return func(in template.RenderInput) (string, error) {
		schema := in.Definition.Schema()
		if missing := schema.MissingRequired(in.Params); len(missing) > 0 {
			return "", fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
		}

		var parts []string
		if schema != nil {
			for _, f := range schema.Fields {
				v := plainText(in.Params.String(f.Name))
				if v == "" {
					continue
				}
				parts = append(parts, wrapper.VarTag("span", f.Name, v, "tpl-field tpl-field-"+wrapper.KebabCase(f.Name)))
			}
		}
		inner := strings.TrimSuffix(icon(e.Icon), " ")
		if len(parts) > 0 {
			if inner != "" {
				inner += " "
			}
			inner += strings.Join(parts, " ")
		}
		if inner == "" {
			inner = in.Definition.Label()
		}
		return wrapper.Wrap(wrapperAttrs(in, e), inner), nil
	}
}

func hasOption(schema *template.ParamSchema, field, value string) bool {
	if schema == nil {
		return true
	}
	for _, f := range schema.Fields {
		if f.Name != field {
			continue
		}
		if len(f.Options) == 0 {
			return true
		}
		for _, o := range f.Options {
			if o.Value == value {
				return true
			}
		}
		return false
	}
	return true
}
