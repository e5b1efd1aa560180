package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "******", MaskSecret("s3cr3t"))
	assert.Equal(t, "ab******yz", MaskSecret("abcdefwxyz"))
	assert.Equal(t, "ol*********世界", MaskSecret("olá, mundo 世界"))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "", Redact(""))
	assert.Equal(t, "********", Redact("x"))
	assert.Equal(t, "********", Redact("correct-horse-battery-staple"))
}
