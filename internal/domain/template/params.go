package template

import (
	"fmt"
	"sort"
	"strings"
)

// ScratchPrefix marks parameter keys that only live during workflow execution.
const ScratchPrefix = "__"

// Params maps a field name to its value. Values collected from users are
// strings; workflow steps may stash richer values under scratch keys.
type Params map[string]any

// String returns the value for key formatted as a string, or "" when absent.
func (p Params) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Has reports whether key is present with a non-empty value.
func (p Params) Has(key string) bool {
	return strings.TrimSpace(p.String(key)) != ""
}

// Clone returns a shallow copy. A nil receiver yields an empty map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge returns a copy of p with every key of patch applied over it.
func (p Params) Merge(patch Params) Params {
	out := p.Clone()
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// WithoutScratch returns a copy of p with every ScratchPrefix key removed.
func (p Params) WithoutScratch() Params {
	out := make(Params, len(p))
	for k, v := range p {
		if strings.HasPrefix(k, ScratchPrefix) {
			continue
		}
		out[k] = v
	}
	return out
}

// Keys returns the parameter names sorted alphabetically.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
