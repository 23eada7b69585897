// Package editor defines the editing surface a synchronizer drives and the
// change events surfaces report.
//
// A surface is created by a [Factory] from [Props]. It reads incoming
// patches from Props.Incoming and reports everything that happens to it,
// local edits, selection moves, focus, undo and redo, problems with the
// value, through Props.OnChange as a [Change].
//
// [Memory] is a complete surface over an in-memory value; it is what the
// tests and the ptsync command use.
package editor

import (
	"fmt"

	"github.com/signadot/ptsync/ir"
	"github.com/signadot/ptsync/patch"
	"github.com/signadot/ptsync/schema"
)

// Change is one event reported by a surface. The concrete types in this
// package are the only implementations.
type Change interface {
	change()
	String() string
}

// Mutation carries patches authored on the surface, in the order they
// were made.
type Mutation struct {
	Patches []patch.Patch
}

// Selection is a cursor range within the value.
type Selection struct {
	Focus  ir.Path `json:"focus" yaml:"focus"`
	Anchor ir.Path `json:"anchor" yaml:"anchor"`
}

// SelectionChange reports a new selection; a nil Selection means nothing is
// selected.
type SelectionChange struct {
	Selection *Selection
}

type Focus struct{}

type Blur struct{}

type Undo struct {
	Patches []patch.Patch
}

type Redo struct {
	Patches []patch.Patch
}

// InvalidValue reports that Value cannot be edited.
type InvalidValue struct {
	Resolution *schema.Resolution
	Value      any
}

type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

type Error struct {
	Level       Level
	Description string
}

// Ready is reported once a surface has taken its initial value.
type Ready struct{}

// ValueChange reports the surface's value after a change was applied.
type ValueChange struct {
	Value any
}

type Loading struct {
	Loading bool
}

func (Mutation) change()        {}
func (SelectionChange) change() {}
func (Focus) change()           {}
func (Blur) change()            {}
func (Undo) change()            {}
func (Redo) change()            {}
func (InvalidValue) change()    {}
func (Error) change()           {}
func (Ready) change()           {}
func (ValueChange) change()     {}
func (Loading) change()         {}

func (c Mutation) String() string { return fmt.Sprintf("mutation(%d)", len(c.Patches)) }

func (c SelectionChange) String() string {
	if c.Selection == nil {
		return "selection(none)"
	}
	return fmt.Sprintf("selection(%s)", c.Selection.Focus)
}

func (Focus) String() string          { return "focus" }
func (Blur) String() string           { return "blur" }
func (c Undo) String() string         { return fmt.Sprintf("undo(%d)", len(c.Patches)) }
func (c Redo) String() string         { return fmt.Sprintf("redo(%d)", len(c.Patches)) }
func (c InvalidValue) String() string { return fmt.Sprintf("invalidValue(%s)", c.Resolution) }
func (c Error) String() string        { return fmt.Sprintf("error(%s: %s)", c.Level, c.Description) }
func (Ready) String() string          { return "ready" }
func (ValueChange) String() string    { return "value" }
func (c Loading) String() string      { return fmt.Sprintf("loading(%t)", c.Loading) }
