package secrets

import "strings"

// SecretID extracts the short secret identifier from a slash-delimited
// resource name: the last non-empty trailing segment. Trailing separators are
// ignored, so "projects/p/secrets/" yields "secrets". ok is false when the name
// has no segments at all ("", "/", "//").
func SecretID(name string) (id string, ok bool) {
	tokens := strings.Split(name, "/")
	for len(tokens) > 0 && tokens[len(tokens)-1] == "" {
		tokens = tokens[:len(tokens)-1]
	}
	if len(tokens) == 0 {
		return "", false
	}
	return tokens[len(tokens)-1], true
}
