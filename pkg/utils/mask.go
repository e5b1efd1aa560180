package utils

import (
	"strings"
	"unicode/utf8"
)

// MaskSecret keeps the first and last two characters of long values and hides
// the rest. Values of eight characters or fewer are fully hidden.
func MaskSecret(value string) string {
	n := utf8.RuneCountInString(value)
	if n <= 8 {
		return strings.Repeat("*", n)
	}
	runes := []rune(value)
	return string(runes[:2]) + strings.Repeat("*", n-4) + string(runes[n-2:])
}

// redacted replaces every non-empty value in Redact.
const redacted = "********"

// Redact hides value entirely, including its length. Empty stays empty.
func Redact(value string) string {
	if value == "" {
		return ""
	}
	return redacted
}
