package propertysource

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/magiconair/properties"
	"github.com/spf13/viper"
)

// propertiesFormats are the file extensions read as Java properties.
var propertiesFormats = []string{"properties", "props", "prop"}

// propertiesCodec reads and writes Java properties files for viper. ${...}
// expansion is left off so placeholders reach the Environment untouched.
type propertiesCodec struct{}

func (propertiesCodec) Decode(b []byte, v map[string]any) error {
	loader := properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := loader.LoadBytes(b)
	if err != nil {
		return err
	}
	for _, key := range p.Keys() {
		value, _ := p.Get(key)
		nest(v, strings.Split(key, "."), value)
	}
	return nil
}

func (propertiesCodec) Encode(v map[string]any) ([]byte, error) {
	flat := make(map[string]string)
	flatten("", v, flat)

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := properties.NewProperties()
	p.DisableExpansion = true
	for _, k := range keys {
		if _, _, err := p.Set(k, flat[k]); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := p.Write(&buf, properties.UTF8); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// nest stores value under path, replacing any scalar in the way.
func nest(m map[string]any, path []string, value string) {
	for _, part := range path[:len(path)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[part] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

func flatten(prefix string, m map[string]any, out map[string]string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			flatten(key, child, out)
			continue
		}
		out[key] = fmt.Sprint(v)
	}
}

// newCodecRegistry returns viper's defaults plus the properties codec.
func newCodecRegistry() *viper.DefaultCodecRegistry {
	r := viper.NewCodecRegistry()
	for _, format := range propertiesFormats {
		_ = r.RegisterCodec(format, propertiesCodec{})
	}
	return r
}
