package template

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// Registry errors
var (
	ErrNotFound       = errors.New("template not found")
	ErrDuplicateKey   = errors.New("duplicate key for template namespace")
	ErrNilDefinition  = errors.New("definition cannot be nil")
	ErrRegistryFrozen = errors.New("registry is read-only")
)

// Registry holds definitions grouped by namespace.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]map[string]*Definition
	order  []string // namespaces in registration order
	frozen bool
}

// NewRegistry creates a new empty registry
func NewRegistry() *Registry {
	return &Registry{
		groups: make(map[string]map[string]*Definition),
	}
}

// Add registers a definition under its namespace and key
func (r *Registry) Add(def *Definition) error {
	if def == nil {
		return ErrNilDefinition
	}
	return r.AddUnder(def.Namespace(), def.Key(), def)
}

// AddUnder registers a definition under an explicit group and key, e.g. an alias.
func (r *Registry) AddUnder(group, key string, def *Definition) error {
	if def == nil {
		return ErrNilDefinition
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}
	g, ok := r.groups[group]
	if !ok {
		g = make(map[string]*Definition)
		r.groups[group] = g
		r.order = append(r.order, group)
	}
	if _, exists := g[key]; exists {
		return ErrDuplicateKey
	}
	g[key] = def
	return nil
}

// Freeze makes the registry read-only. Later Add calls fail with ErrRegistryFrozen.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// FindByID resolves an id to a definition. It tries, in order: the exact
// namespace + remainder key, the id's last segment as a key within the
// namespace, an id match anywhere in the namespace, and an id match in every
// namespace. The boolean is false when nothing matches.
func (r *Registry) FindByID(id string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ns, rest, _ := strings.Cut(id, IDSeparator)
	group := r.groups[ns]

	if group != nil && rest != "" {
		if def, ok := group[rest]; ok {
			return def, true
		}
		if def, ok := group[LastSegment(id)]; ok {
			return def, true
		}
		for _, key := range sortedKeys(group) {
			if group[key].ID() == id {
				return group[key], true
			}
		}
	}

	for _, name := range r.order {
		g := r.groups[name]
		for _, key := range sortedKeys(g) {
			if g[key].ID() == id {
				return g[key], true
			}
		}
	}
	return nil, false
}

// Get is FindByID with an error result.
func (r *Registry) Get(id string) (*Definition, error) {
	if def, ok := r.FindByID(id); ok {
		return def, nil
	}
	return nil, ErrNotFound
}

// Namespaces returns namespaces in registration order
func (r *Registry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// GetByNamespace returns the distinct definitions of a namespace sorted by id
func (r *Registry) GetByNamespace(namespace string) []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uniqueSorted(r.groups[namespace])
}

// List returns every distinct definition sorted by id
func (r *Registry) List() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make(map[string]*Definition)
	for _, g := range r.groups {
		for k, def := range g {
			all[def.ID()+"\x00"+k] = def
		}
	}
	return uniqueSorted(all)
}

// Visible returns every definition not hidden from dynamic commands
func (r *Registry) Visible() []*Definition {
	result := make([]*Definition, 0)
	for _, def := range r.List() {
		if !def.Hidden() {
			result = append(result, def)
		}
	}
	return result
}

func sortedKeys(g map[string]*Definition) []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// uniqueSorted drops alias duplicates and orders by id.
func uniqueSorted(g map[string]*Definition) []*Definition {
	seen := make(map[*Definition]bool)
	result := make([]*Definition, 0, len(g))
	for _, def := range g {
		if seen[def] {
			continue
		}
		seen[def] = true
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}
