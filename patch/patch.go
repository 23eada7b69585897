// Package patch defines document patches and applies them to values.
//
// A Patch describes one mutation of a value at a path: set, setIfMissing,
// unset, insert, diffMatchPatch, inc or dec. Each patch carries the origin
// it was produced at, which consumers use to filter out their own edits when
// patches are echoed back by a transport.
package patch

import (
	"fmt"
	"time"

	"github.com/signadot/ptsync/ir"
)

type Type string

const (
	Set            Type = "set"
	SetIfMissing   Type = "setIfMissing"
	Unset          Type = "unset"
	Insert         Type = "insert"
	DiffMatchPatch Type = "diffMatchPatch"
	Inc            Type = "inc"
	Dec            Type = "dec"
)

type Origin string

const (
	Local    Origin = "local"
	Remote   Origin = "remote"
	Internal Origin = "internal"
)

// Position says where Insert places its items relative to the item at Path.
type Position string

const (
	Before  Position = "before"
	After   Position = "after"
	Replace Position = "replace"
)

type Patch struct {
	Type      Type      `json:"type" yaml:"type"`
	Path      ir.Path   `json:"path" yaml:"path"`
	Value     any       `json:"value,omitempty" yaml:"value,omitempty"`
	Items     []any     `json:"items,omitempty" yaml:"items,omitempty"`
	Position  Position  `json:"position,omitempty" yaml:"position,omitempty"`
	Origin    Origin    `json:"origin,omitempty" yaml:"origin,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero" yaml:"timestamp,omitempty"`
}

func (p Patch) String() string {
	if p.Type == Insert {
		return fmt.Sprintf("%s %s %s (%s)", p.Type, p.Position, p.Path, p.Origin)
	}
	return fmt.Sprintf("%s %s (%s)", p.Type, p.Path, p.Origin)
}

func (p Patch) WithOrigin(o Origin) Patch {
	p.Origin = o
	return p
}

func SetAt(path ir.Path, v any) Patch {
	return Patch{Type: Set, Path: path, Value: v}
}

func SetIfMissingAt(path ir.Path, v any) Patch {
	return Patch{Type: SetIfMissing, Path: path, Value: v}
}

func UnsetAt(path ir.Path) Patch {
	return Patch{Type: Unset, Path: path}
}

func InsertAt(pos Position, path ir.Path, items ...any) Patch {
	return Patch{Type: Insert, Position: pos, Path: path, Items: items}
}

func DiffMatchPatchAt(path ir.Path, text string) Patch {
	return Patch{Type: DiffMatchPatch, Path: path, Value: text}
}

// WithOrigin returns copies of ps with their origin set to o.
func WithOrigin(o Origin, ps ...Patch) []Patch {
	res := make([]Patch, len(ps))
	for i := range ps {
		res[i] = ps[i].WithOrigin(o)
	}
	return res
}

// Stamp sets the origin and timestamp of every patch in ps in place.
func Stamp(o Origin, at time.Time, ps []Patch) {
	for i := range ps {
		ps[i].Origin = o
		ps[i].Timestamp = at
	}
}
