// Package catalog loads template definitions from YAML catalogs and binds
// each one to a render function from a table keyed by template id.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	stdpath "path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/tasktpl/internal/domain/template"
	"github.com/zjrosen/tasktpl/internal/log"
)

// File is the root structure of one catalog YAML file.
type File struct {
	Namespace string  `yaml:"namespace"`
	Templates []Entry `yaml:"templates"`
}

// Entry defines one template in YAML.
type Entry struct {
	Key       string                `yaml:"key"`
	Label     string                `yaml:"label"`
	Icon      string                `yaml:"icon"`
	Class     string                `yaml:"class"`
	OrderTag  string                `yaml:"orderTag"`
	Params    *template.ParamSchema `yaml:"params"`
	Defaults  map[string]string     `yaml:"defaults"`
	Rules     []template.Variant    `yaml:"rules"`
	Workflows []string              `yaml:"workflows"`
	Hidden    bool                  `yaml:"hidden"`
	// Aliases are extra "group.key" ids the definition is registered under.
	Aliases []string `yaml:"aliases"`
	// Data lists parameters copied onto the wrapper as data-* attributes.
	Data []string `yaml:"data"`
	// Renderer borrows the render function of another template id; empty
	// means the entry's own id, falling back to the generic renderer.
	Renderer string `yaml:"renderer"`
}

var (
	ErrNoNamespace    = errors.New("catalog has no namespace")
	ErrInvalidRule    = errors.New("invalid placement rule")
	ErrInvalidAlias   = errors.New("invalid alias")
	ErrNoCatalogFiles = errors.New("no catalog files found")
)

// Alias is a definition registered under an extra group and key.
type Alias struct {
	Group string
	Key   string
	Def   *template.Definition
}

// Loaded is the result of reading catalog files.
type Loaded struct {
	Definitions []*template.Definition
	Aliases     []Alias
}

// ParseFile converts one catalog file into definitions.
func ParseFile(content []byte) (Loaded, error) {
	var file File
	if err := yaml.Unmarshal(content, &file); err != nil {
		return Loaded{}, fmt.Errorf("parse catalog: %w", err)
	}
	if strings.TrimSpace(file.Namespace) == "" {
		return Loaded{}, ErrNoNamespace
	}

	var out Loaded
	for _, e := range file.Templates {
		def, err := buildDefinition(file.Namespace, e)
		if err != nil {
			return Loaded{}, fmt.Errorf("template %s.%s: %w", file.Namespace, e.Key, err)
		}
		out.Definitions = append(out.Definitions, def)

		for _, alias := range e.Aliases {
			group, key, err := template.ParseID(alias)
			if err != nil {
				return Loaded{}, fmt.Errorf("template %s: %w %q", def.ID(), ErrInvalidAlias, alias)
			}
			out.Aliases = append(out.Aliases, Alias{Group: group, Key: key, Def: def})
		}
	}
	return out, nil
}

// LoadFS reads every *.yaml file directly inside dir of fsys.
func LoadFS(fsys fs.FS, dir string) (Loaded, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return Loaded{}, fmt.Errorf("read catalog dir: %w", err)
	}

	var out Loaded
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		// fs.FS paths always use forward slashes
		path := stdpath.Join(dir, entry.Name())
		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			return Loaded{}, fmt.Errorf("read %s: %w", path, err)
		}
		loaded, err := ParseFile(content)
		if err != nil {
			return Loaded{}, fmt.Errorf("%s: %w", path, err)
		}
		out.Definitions = append(out.Definitions, loaded.Definitions...)
		out.Aliases = append(out.Aliases, loaded.Aliases...)
	}
	if len(out.Definitions) == 0 {
		return Loaded{}, fmt.Errorf("%w in %s", ErrNoCatalogFiles, dir)
	}
	return out, nil
}

// Register adds loaded definitions and aliases to reg.
func Register(reg *template.Registry, loaded Loaded) error {
	for _, def := range loaded.Definitions {
		if err := reg.Add(def); err != nil {
			return fmt.Errorf("register %s: %w", def.ID(), err)
		}
	}
	for _, a := range loaded.Aliases {
		if err := reg.AddUnder(a.Group, a.Key, a.Def); err != nil {
			return fmt.Errorf("register alias %s.%s: %w", a.Group, a.Key, err)
		}
	}
	return nil
}

// Load builds the read-only registry from the embedded catalogs plus any
// catalogs in userDir. A missing userDir is not an error; invalid user
// catalogs are logged and skipped.
func Load(userDir string) (*template.Registry, error) {
	reg := template.NewRegistry()

	loaded, err := LoadFS(BuiltinFS(), BuiltinDir)
	if err != nil {
		return nil, fmt.Errorf("builtin catalog: %w", err)
	}
	if err := Register(reg, loaded); err != nil {
		return nil, err
	}
	log.Debug(log.CatCatalog, "loaded builtin catalog", "templates", len(loaded.Definitions))

	if userDir != "" {
		loadUserDir(reg, userDir)
	}

	reg.Freeze()
	return reg, nil
}

func loadUserDir(reg *template.Registry, dir string) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return
	}

	loaded, err := LoadFS(os.DirFS(dir), ".")
	if err != nil {
		if !errors.Is(err, ErrNoCatalogFiles) {
			log.Warn(log.CatCatalog, "loading user catalogs", "error", err.Error(), "dir", dir)
		}
		return
	}
	for _, def := range loaded.Definitions {
		if err := reg.Add(def); err != nil {
			log.Warn(log.CatCatalog, "skipping user template", "id", def.ID(), "error", err.Error())
		}
	}
	for _, a := range loaded.Aliases {
		if err := reg.AddUnder(a.Group, a.Key, a.Def); err != nil {
			log.Warn(log.CatCatalog, "skipping user alias", "alias", a.Group+"."+a.Key, "error", err.Error())
		}
	}
	log.Debug(log.CatCatalog, "loaded user catalogs", "templates", len(loaded.Definitions), "dir", dir)
}

func buildDefinition(namespace string, e Entry) (*template.Definition, error) {
	if err := validateRules(e.Rules); err != nil {
		return nil, err
	}

	id := template.BuildID(namespace, e.Key)
	renderer := e.Renderer
	if renderer == "" {
		renderer = id
	}
	factory, ok := renderers[renderer]
	if !ok {
		if e.Renderer != "" {
			return nil, fmt.Errorf("unknown renderer %q", e.Renderer)
		}
		factory = genericRenderer
	}

	b := template.NewBuilder(namespace).
		Key(e.Key).
		Label(e.Label).
		Rules(e.Rules...).
		OrderTag(e.OrderTag).
		Workflows(e.Workflows...).
		Hidden(e.Hidden).
		Render(factory(e))
	if e.Params != nil && len(e.Params.Fields) > 0 {
		b = b.Params(e.Params)
	}
	if len(e.Defaults) > 0 {
		defaults := make(template.Params, len(e.Defaults))
		for k, v := range e.Defaults {
			defaults[k] = v
		}
		b = b.Defaults(defaults)
	}
	if parse, ok := parsers[renderer]; ok {
		b = b.Parse(parse)
	}
	return b.Build()
}

func validateRules(rules []template.Variant) error {
	for i, v := range rules {
		for _, k := range v.AllowedOn {
			switch k {
			case template.LineTask, template.LineList, template.LineAny:
			default:
				return fmt.Errorf("%w: variant %d allows unknown line kind %q", ErrInvalidRule, i+1, k)
			}
		}
		for _, p := range v.Parent {
			if _, _, err := template.ParseID(p); err != nil {
				return fmt.Errorf("%w: variant %d parent %q is not a template id", ErrInvalidRule, i+1, p)
			}
		}
	}
	return nil
}

func isYAML(name string) bool {
	ext := stdpath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}
