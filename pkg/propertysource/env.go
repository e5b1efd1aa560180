package propertysource

import (
	"os"
	"strings"
)

var envReplacer = strings.NewReplacer(".", "_", "-", "_")

// Relaxed is implemented by sources that match keys loosely. NamesUnder
// lists the dotted names the source answers to below prefix.
type Relaxed interface {
	NamesUnder(prefix string) []string
}

// Env is a snapshot of the process environment with relaxed key matching:
// "myapp.db-url" also matches MYAPP_DB_URL and myapp_db_url.
type Env struct {
	*Map
}

// NewEnv snapshots os.Environ. Variables set afterwards are not visible.
func NewEnv(name string) *Env {
	values := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		values[k] = v
	}
	return &Env{Map: NewMap(name, values)}
}

// Property tries name as-is, then with '.' and '-' replaced by '_', then
// upper-cased.
func (e *Env) Property(name string) (string, bool) {
	if v, ok := e.Map.Property(name); ok {
		return v, true
	}
	underscored := envReplacer.Replace(name)
	if v, ok := e.Map.Property(underscored); ok {
		return v, true
	}
	return e.Map.Property(strings.ToUpper(underscored))
}

// NamesUnder returns the dotted, lower-case names that variables below prefix
// resolve from. MYAPP_DB_URL under "myapp" yields both myapp.db.url and
// myapp.db-url, since '_' may stand for either separator.
func (e *Env) NamesUnder(prefix string) []string {
	lead := prefix + "."
	relaxed := envReplacer.Replace(prefix) + "_"

	seen := make(map[string]struct{})
	var names []string
	add := func(n string) {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			names = append(names, n)
		}
	}

	for _, k := range e.PropertyNames() {
		switch {
		case strings.HasPrefix(k, lead):
			add(k)
		case len(k) > len(relaxed) && strings.EqualFold(k[:len(relaxed)], relaxed):
			rest := strings.ToLower(k[len(relaxed):])
			add(lead + strings.ReplaceAll(rest, "_", "."))
			add(lead + strings.ReplaceAll(rest, "_", "-"))
		}
	}
	return names
}
