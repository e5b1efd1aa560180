package propertysource

import (
	"fmt"

	"github.com/joho/godotenv"
)

// NewDotenv reads a .env file into an immutable source without touching the
// process environment.
func NewDotenv(name, path string) (*Map, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read dotenv file %q: %w", path, err)
	}
	return NewMap(name, values), nil
}
