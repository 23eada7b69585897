package libdiff

import (
	"fmt"

	"github.com/signadot/ptsync/patch"
)

// Reverse returns the patches which undo ps when applied to the result of
// applying ps to doc.
func Reverse(doc any, ps ...patch.Patch) ([]patch.Patch, error) {
	after, err := patch.Apply(doc, ps...)
	if err != nil {
		return nil, fmt.Errorf("error reversing patch: %w", err)
	}
	return Diff(after, doc), nil
}
