package propertysource

import (
	"fmt"

	"github.com/spf13/viper"
)

// NewFile loads an application config file (YAML, JSON, TOML or Java
// properties, chosen by extension) and flattens nested keys with '.',
// e.g. myapp.secret. Keys are lower-cased.
func NewFile(name, path string) (*Map, error) {
	v := viper.NewWithOptions(viper.WithCodecRegistry(newCodecRegistry()))
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	values := make(map[string]string)
	for _, key := range v.AllKeys() {
		values[key] = v.GetString(key)
	}
	return NewMap(name, values), nil
}
