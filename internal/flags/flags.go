// Package flags provides feature flags read from configuration.
// Flags are read-only after initialization and unknown flags are disabled.
package flags

import (
	"maps"

	"github.com/zjrosen/mlagent/internal/log"
)

// Flag name constants for type-safe flag access.
const (
	// FlagInvalidateOnUninstall removes a package's models and resources from
	// the registry when its uninstall starts.
	FlagInvalidateOnUninstall = "invalidate-on-uninstall"

	// FlagResyncOnUpdate re-ingests a package's descriptors when an update completes.
	FlagResyncOnUpdate = "resync-on-update"
)

// Defaults returns the value of every known flag when not configured.
func Defaults() map[string]bool {
	return map[string]bool{
		FlagInvalidateOnUninstall: false,
		FlagResyncOnUpdate:        false,
	}
}

// Registry holds feature flag state loaded from configuration.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map. The map is copied.
func New(flags map[string]bool) *Registry {
	r := &Registry{flags: make(map[string]bool, len(flags))}
	maps.Copy(r.flags, flags)
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(r.flags), "flags", r.All())
	return r
}

// Enabled returns true if the named flag is enabled.
// Unknown flags and a nil registry report false.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name, "result", false)
		return false
	}
	return value
}

// All returns a copy of all configured flags.
func (r *Registry) All() map[string]bool {
	result := make(map[string]bool)
	if r != nil {
		maps.Copy(result, r.flags)
	}
	return result
}
