package tokens

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateKeyString creates a 32-character API key identifier from a random
// UUID with the separators stripped. Uniqueness is still enforced by the
// unique index on the key column; this only supplies the entropy.
func GenerateKeyString() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
