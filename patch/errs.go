package patch

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownType = errors.New("unknown patch type")
	ErrTarget      = errors.New("invalid patch target")
	ErrDMP         = errors.New("diff-match-patch did not apply")
)

// ApplyError reports which patch of a sequence failed to apply.
type ApplyError struct {
	Index int
	Patch Patch
	Err   error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("patch %d (%s %s): %v", e.Index, e.Patch.Type, e.Patch.Path, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}
