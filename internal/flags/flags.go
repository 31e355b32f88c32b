// Package flags holds opt-in behaviours toggled from the config file's
// flags section. The registry is read-only after construction.
package flags

import (
	"maps"
	"sort"

	"github.com/zjrosen/tasktpl/internal/log"
)

const (
	// FlagBlockSuggestions completes block reference fields from the index
	// while prompting.
	FlagBlockSuggestions = "block-suggestions"

	// FlagReindexOnSave refreshes a document's index rows after a command
	// rewrites it.
	FlagReindexOnSave = "reindex-on-save"
)

// Known lists every flag with its value when the config leaves it unset.
var Known = map[string]bool{
	FlagBlockSuggestions: true,
	FlagReindexOnSave:    false,
}

// Registry holds feature flag state loaded from configuration.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map. A nil map leaves every flag at
// its default.
func New(flags map[string]bool) *Registry {
	r := &Registry{flags: make(map[string]bool, len(flags))}
	maps.Copy(r.flags, flags)
	if unknown := r.Unknown(); len(unknown) > 0 {
		log.Warn(log.CatConfig, "Ignoring unknown feature flags", "flags", unknown)
	}
	log.Debug(log.CatConfig, "Feature flags initialized", "flags", r.All())
	return r
}

// Enabled reports the configured value of name, falling back to its Known
// default. Unknown flags and a nil registry report false.
func (r *Registry) Enabled(name string) bool {
	if r != nil {
		if v, ok := r.flags[name]; ok {
			return v
		}
	}
	return Known[name]
}

// All returns the effective value of every known flag plus any configured
// unknown ones.
func (r *Registry) All() map[string]bool {
	out := make(map[string]bool, len(Known))
	maps.Copy(out, Known)
	if r != nil {
		maps.Copy(out, r.flags)
	}
	return out
}

// Unknown returns the configured flag names that are not Known, sorted.
func (r *Registry) Unknown() []string {
	if r == nil {
		return nil
	}
	var out []string
	for name := range r.flags {
		if _, ok := Known[name]; !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
