package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKeyStringFormat(t *testing.T) {
	key := GenerateKeyString()

	assert.Len(t, key, 32)
	assert.NotContains(t, key, "-")
	for _, r := range key {
		assert.Contains(t, "0123456789abcdef", string(r))
	}
}

func TestGenerateKeyStringUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key := GenerateKeyString()
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
}
