package astcheck

import (
	"sort"
)

// Properties are the raw configured values of one check instance.
type Properties map[string]any

// Factory builds a configured Check from its properties. Factories validate
// every property and fail rather than fall back to a default.
type Factory func(props Properties) (Check, error)

// Entry describes one registered check.
type Entry struct {
	// Name is the unique identifier (e.g. "nested-if-depth").
	Name string
	// Doc is a markdown description shown by the explain command.
	Doc string
	// Category groups checks in listings ("coding", "design", "metrics"...).
	Category string
	// Languages the check understands. Empty means any language.
	Languages []string
	New       Factory
}

// SupportsLanguage reports whether the check should run on files of lang.
func (e Entry) SupportsLanguage(lang string) bool {
	if len(e.Languages) == 0 {
		return true
	}
	for _, l := range e.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Registry holds the checks a host can configure, keyed by name.
type Registry struct {
	entries map[string]Entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds an entry, replacing any entry with the same name.
func (r *Registry) Register(e Entry) {
	r.entries[e.Name] = e
}

// Get retrieves an entry by name.
func (r *Registry) Get(name string) (Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Names returns all registered check names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns all entries sorted by name.
func (r *Registry) Entries() []Entry {
	names := r.Names()
	out := make([]Entry, len(names))
	for i, name := range names {
		out[i] = r.entries[name]
	}
	return out
}
