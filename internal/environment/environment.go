// Package environment layers property sources and resolves ${...}
// placeholders across them.
package environment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/Checker-Finance/secretprops/pkg/propertysource"
)

const (
	placeholderPrefix = "${"
	placeholderSuffix = "}"
	valueSeparator    = ":"
)

var (
	// ErrPropertyNotFound is returned by MustLookup and for placeholders without a default.
	ErrPropertyNotFound = errors.New("property not found")

	// ErrCircularPlaceholder is returned when placeholders reference each other.
	ErrCircularPlaceholder = errors.New("circular placeholder reference")
)

// Environment is an ordered, read-only view over property sources. The first
// source holding a key wins.
type Environment struct {
	sources []propertysource.PropertySource
}

// New builds an environment. Nil sources are ignored.
func New(sources ...propertysource.PropertySource) *Environment {
	env := &Environment{}
	for _, s := range sources {
		if s != nil {
			env.sources = append(env.sources, s)
		}
	}
	return env
}

// Sources returns the sources in precedence order.
func (e *Environment) Sources() []propertysource.PropertySource {
	return append([]propertysource.PropertySource(nil), e.sources...)
}

// PropertyNames returns the union of all source keys, first appearance first.
func (e *Environment) PropertyNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, s := range e.sources {
		for _, n := range s.PropertyNames() {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			names = append(names, n)
		}
	}
	return names
}

// Raw returns the unresolved value of key.
func (e *Environment) Raw(key string) (string, bool) {
	for _, s := range e.sources {
		if v, ok := s.Property(key); ok {
			return v, true
		}
	}
	return "", false
}

// Lookup returns the value of key with placeholders resolved. ok is false
// when no source holds key. A placeholder that cannot be resolved is an error.
func (e *Environment) Lookup(key string) (value string, ok bool, err error) {
	raw, ok := e.Raw(key)
	if !ok {
		return "", false, nil
	}
	resolved, err := e.resolve(raw, map[string]bool{key: true})
	if err != nil {
		return "", true, fmt.Errorf("resolve property %q: %w", key, err)
	}
	return resolved, true, nil
}

// MustLookup is Lookup with a missing key reported as ErrPropertyNotFound.
func (e *Environment) MustLookup(key string) (string, error) {
	v, ok, err := e.Lookup(key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrPropertyNotFound, key)
	}
	return v, nil
}

// ResolvePlaceholders replaces ${key} and ${key:default} in text.
func (e *Environment) ResolvePlaceholders(text string) (string, error) {
	return e.resolve(text, map[string]bool{})
}

func (e *Environment) resolve(text string, visiting map[string]bool) (string, error) {
	var b strings.Builder
	for {
		start := strings.Index(text, placeholderPrefix)
		if start < 0 {
			b.WriteString(text)
			return b.String(), nil
		}
		end := matchingSuffix(text, start+len(placeholderPrefix))
		if end < 0 {
			b.WriteString(text)
			return b.String(), nil
		}

		b.WriteString(text[:start])
		inner := text[start+len(placeholderPrefix) : end]

		key, def, hasDefault := strings.Cut(inner, valueSeparator)

		// Nested placeholders in the key itself, e.g. ${${profile}.url}.
		key, err := e.resolve(key, visiting)
		if err != nil {
			return "", err
		}
		if visiting[key] {
			return "", fmt.Errorf("%w: %s", ErrCircularPlaceholder, key)
		}

		value, ok := e.Raw(key)
		switch {
		case ok:
			visiting[key] = true
			value, err = e.resolve(value, visiting)
			delete(visiting, key)
			if err != nil {
				return "", err
			}
		case hasDefault:
			value, err = e.resolve(def, visiting)
			if err != nil {
				return "", err
			}
		default:
			return "", fmt.Errorf("%w: ${%s}", ErrPropertyNotFound, key)
		}

		b.WriteString(value)
		text = text[end+len(placeholderSuffix):]
	}
}

// matchingSuffix finds the '}' closing the placeholder opened before from,
// skipping nested ${...} pairs. Returns -1 if unbalanced.
func matchingSuffix(text string, from int) int {
	depth := 0
	for i := from; i < len(text); i++ {
		switch {
		case strings.HasPrefix(text[i:], placeholderPrefix):
			depth++
			i += len(placeholderPrefix) - 1
		case strings.HasPrefix(text[i:], placeholderSuffix):
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

// Bind decodes every property under prefix into out (a pointer to a struct or
// map) using mapstructure tags, e.g. Bind("myapp", &props) fills
// `mapstructure:"secret"` from myapp.secret. Relaxed sources contribute their
// loose names too, so MYAPP_SECRET binds as myapp.secret. Placeholders are
// resolved first.
func (e *Environment) Bind(prefix string, out any) error {
	v := viper.New()
	for _, name := range e.namesUnder(prefix) {
		value, ok, err := e.Lookup(name)
		if err != nil {
			return fmt.Errorf("bind %q: %w", prefix, err)
		}
		if ok {
			v.Set(name, value)
		}
	}

	if err := v.UnmarshalKey(prefix, out); err != nil {
		return fmt.Errorf("bind %q: %w", prefix, err)
	}
	return nil
}

func (e *Environment) namesUnder(prefix string) []string {
	lead := prefix + "."
	seen := make(map[string]struct{})
	var names []string
	add := func(n string) {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			names = append(names, n)
		}
	}

	for _, s := range e.sources {
		if r, ok := s.(propertysource.Relaxed); ok {
			for _, n := range r.NamesUnder(prefix) {
				add(n)
			}
			continue
		}
		for _, n := range s.PropertyNames() {
			if strings.HasPrefix(n, lead) {
				add(n)
			}
		}
	}
	return names
}
