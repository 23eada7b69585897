package schema

import (
	"strings"

	"github.com/google/uuid"
)

// NewKey returns a random 12 character item key.
func NewKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
