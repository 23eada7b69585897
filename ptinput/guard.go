package ptinput

import (
	"github.com/signadot/ptsync/editor"
	"github.com/signadot/ptsync/ir"
	"github.com/signadot/ptsync/patch"
	"github.com/signadot/ptsync/schema"
)

// InvalidValue is the value the surface could not edit and how to fix it.
type InvalidValue struct {
	Value      any
	Resolution *schema.Resolution
}

// enterGuard records iv. When the guard was suppressed for the same value
// it stays suppressed; any other value re-arms it.
func (in *Input) enterGuard(iv InvalidValue) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.invalid != nil && in.suppressed && ir.Equal(in.invalid.Value, iv.Value) {
		in.invalid.Resolution = iv.Resolution
		return
	}
	in.log.Info("value is invalid", "resolution", iv.Resolution.String())
	in.invalid = &iv
	in.suppressed = false
}

// clearGuardLocked clears the guard when v differs from the captured
// value. in.mu must be held.
func (in *Input) clearGuardLocked(v any) {
	if in.invalid == nil || ir.Equal(in.invalid.Value, v) {
		return
	}
	in.log.Debug("new value clears invalid state")
	in.invalid = nil
	in.suppressed = false
}

// Invalid returns the current invalid value state, or nil.
func (in *Input) Invalid() *InvalidValue {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.invalid == nil {
		return nil
	}
	iv := *in.invalid
	return &iv
}

// IgnoreInvalid shows the surface again without changing the invalid
// value.
func (in *Input) IgnoreInvalid() {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.invalid != nil {
		in.suppressed = true
	}
}

func (in *Input) Suppressed() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.suppressed
}

// Resolve sends the patches of the current resolution as a local mutation.
// It reports false when there is nothing to apply.
func (in *Input) Resolve() bool {
	in.mu.Lock()
	iv := in.invalid
	in.mu.Unlock()
	if iv == nil || !iv.Resolution.Fixable() {
		return false
	}
	in.HandleChange(editor.Mutation{Patches: patch.WithOrigin(patch.Local, iv.Resolution.Patches...)})
	return true
}
