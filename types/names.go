package types

import (
	"strings"

	"github.com/google/uuid"
)

// UniqueName returns prefix + 32 lowercase hex characters from a random uuid + ext.
func UniqueName(prefix, ext string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "") + ext
}
