// Package propertysource provides named, enumerable, read-only sources of
// configuration properties.
package propertysource

import (
	"maps"
	"slices"
)

// PropertySource is a named, enumerable, read-only source of properties.
type PropertySource interface {
	// Name identifies the source, e.g. "secret-manager" or "env".
	Name() string

	// PropertyNames returns every key the source holds.
	PropertyNames() []string

	// Property returns the value stored under name. ok is false when absent.
	Property(name string) (value string, ok bool)
}

// Map is an immutable PropertySource backed by a map. It is safe for
// concurrent reads.
type Map struct {
	name   string
	values map[string]string
	names  []string
}

// NewMap copies values into a new immutable source. Later changes to values
// are not visible through the returned Map.
func NewMap(name string, values map[string]string) *Map {
	copied := maps.Clone(values)
	if copied == nil {
		copied = map[string]string{}
	}
	names := slices.Sorted(maps.Keys(copied))
	return &Map{name: name, values: copied, names: names}
}

// Name implements PropertySource.
func (m *Map) Name() string { return m.name }

// PropertyNames returns the keys in a stable order. The slice is a copy.
func (m *Map) PropertyNames() []string {
	return slices.Clone(m.names)
}

// Property implements PropertySource.
func (m *Map) Property(name string) (string, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Len returns the number of properties.
func (m *Map) Len() int { return len(m.values) }
