package patch

import (
	"encoding/json"
	"fmt"

	"github.com/signadot/ptsync/debug"
	"github.com/signadot/ptsync/ir"

	jsonpatch "github.com/evanphx/json-patch"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// Apply applies ps in order to a copy of doc and returns the result. On
// failure it returns an *ApplyError identifying the failing patch; doc is
// never modified.
func Apply(doc any, ps ...Patch) (any, error) {
	res := ir.Clone(doc)
	for i := range ps {
		p := &ps[i]
		op := Lookup(p.Type)
		if op == nil {
			return nil, &ApplyError{Index: i, Patch: *p, Err: fmt.Errorf("%w: %q (known: %v)", ErrUnknownType, p.Type, Types())}
		}
		if debug.Patch() {
			debug.Logf("apply %s\n", p)
		}
		next, err := op.Apply(res, p)
		if err != nil {
			return nil, &ApplyError{Index: i, Patch: *p, Err: err}
		}
		res = next
	}
	return res, nil
}

// the document is wrapped under this field so that json-patch never has to
// address the root, which may be null or an array.
const rootField = "v"

type jsonOp map[string]any

func addOp(ptr string, v any) jsonOp {
	return jsonOp{"op": "add", "path": "/" + rootField + ptr, "value": v}
}

func replaceOp(ptr string, v any) jsonOp {
	return jsonOp{"op": "replace", "path": "/" + rootField + ptr, "value": v}
}

func removeOp(ptr string) jsonOp {
	return jsonOp{"op": "remove", "path": "/" + rootField + ptr}
}

func applyJSON(doc any, jops ...jsonOp) (any, error) {
	if len(jops) == 0 {
		return doc, nil
	}
	d, err := json.Marshal(map[string]any{rootField: doc})
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	pd, err := json.Marshal(jops)
	if err != nil {
		return nil, fmt.Errorf("failed to encode json patch: %w", err)
	}
	jp, err := jsonpatch.DecodePatch(pd)
	if err != nil {
		return nil, err
	}
	out, err := jp.Apply(d)
	if err != nil {
		return nil, err
	}
	var wrapped map[string]any
	if err := json.Unmarshal(out, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode patched document: %w", err)
	}
	return wrapped[rootField], nil
}

// pointer resolves keyed segments of p against doc and returns the json
// pointer of the result.
func pointer(doc any, p ir.Path) (ir.Path, string, error) {
	res, err := ir.Resolve(doc, p)
	if err != nil {
		return nil, "", err
	}
	ptr, err := res.Pointer()
	if err != nil {
		return nil, "", err
	}
	return res, ptr, nil
}

// parentOps returns the ops creating missing objects along the field
// segments leading to p.
func parentOps(doc any, p ir.Path) ([]jsonOp, error) {
	var res []jsonOp
	for i := 0; i < len(p)-1; i++ {
		prefix := p[:i+1]
		if _, ok := ir.Get(doc, prefix); ok {
			continue
		}
		if p[i].Field == nil {
			return nil, fmt.Errorf("%w: missing array at %s", ErrTarget, prefix)
		}
		ptr, err := prefix.Pointer()
		if err != nil {
			return nil, err
		}
		res = append(res, addOp(ptr, map[string]any{}))
	}
	return res, nil
}

func set(doc any, path ir.Path, v any) (any, error) {
	if len(path) == 0 {
		return ir.Clone(v), nil
	}
	resolved, ptr, err := pointer(doc, path)
	if err != nil {
		return nil, err
	}
	if doc == nil && resolved[0].Field != nil {
		doc = map[string]any{}
	}
	if _, ok := ir.Get(doc, resolved); ok {
		return applyJSON(doc, replaceOp(ptr, v))
	}
	jops, err := parentOps(doc, resolved)
	if err != nil {
		return nil, err
	}
	return applyJSON(doc, append(jops, addOp(ptr, v))...)
}

type setOp struct{}

func (setOp) Type() Type { return Set }

func (setOp) Apply(doc any, p *Patch) (any, error) {
	return set(doc, p.Path, p.Value)
}

type setIfMissingOp struct{}

func (setIfMissingOp) Type() Type { return SetIfMissing }

func (setIfMissingOp) Apply(doc any, p *Patch) (any, error) {
	if cur, ok := ir.Get(doc, p.Path); ok && cur != nil {
		return doc, nil
	}
	return set(doc, p.Path, p.Value)
}

type unsetOp struct{}

func (unsetOp) Type() Type { return Unset }

func (unsetOp) Apply(doc any, p *Patch) (any, error) {
	if len(p.Path) == 0 {
		return nil, nil
	}
	if _, ok := ir.Get(doc, p.Path); !ok {
		return doc, nil
	}
	_, ptr, err := pointer(doc, p.Path)
	if err != nil {
		return nil, err
	}
	return applyJSON(doc, removeOp(ptr))
}

type insertOp struct{}

func (insertOp) Type() Type { return Insert }

func (insertOp) Apply(doc any, p *Patch) (any, error) {
	last, ok := p.Path.Last()
	if !ok || last.Field != nil {
		return nil, fmt.Errorf("%w: insert needs an array item path, got %q", ErrTarget, p.Path)
	}
	parent := p.Path.Parent()
	cur, ok := ir.Get(doc, parent)
	if !ok || cur == nil {
		// inserting into a missing array creates it
		if len(p.Items) == 0 {
			return doc, nil
		}
		return set(doc, parent, p.Items)
	}
	arr, ok := cur.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: insert into %s at %s", ErrTarget, ir.TypeOf(cur), parent)
	}
	_, parentPtr, err := pointer(doc, parent)
	if err != nil {
		return nil, err
	}
	idx := -1
	switch {
	case last.Index != nil:
		idx = *last.Index
	case last.Key != nil:
		idx = ir.IndexOfKey(arr, *last.Key)
		if idx == -1 {
			return nil, fmt.Errorf("%w: %s", ir.ErrNotFound, p.Path)
		}
	}
	n := len(arr)
	oob := fmt.Errorf("%w: index %d out of bounds (len %d) at %s", ErrTarget, idx, n, p.Path)
	var jops []jsonOp
	at := idx
	switch p.Position {
	case Before, "":
		if idx > n {
			return nil, oob
		}
	case After:
		switch {
		case n == 0:
			at = 0
		case idx >= n:
			return nil, oob
		default:
			at = idx + 1
		}
	case Replace:
		if idx >= n {
			return nil, oob
		}
		jops = append(jops, removeOp(fmt.Sprintf("%s/%d", parentPtr, idx)))
	default:
		return nil, fmt.Errorf("%w: unknown insert position %q", ErrTarget, p.Position)
	}
	for i, item := range p.Items {
		jops = append(jops, addOp(fmt.Sprintf("%s/%d", parentPtr, at+i), item))
	}
	return applyJSON(doc, jops...)
}

type incOp struct {
	sign float64
}

func (o incOp) Type() Type {
	if o.sign < 0 {
		return Dec
	}
	return Inc
}

func (o incOp) Apply(doc any, p *Patch) (any, error) {
	delta := 1.0
	if p.Value != nil {
		d, ok := ir.Number(p.Value)
		if !ok {
			return nil, fmt.Errorf("%w: %s amount must be a number, got %s", ErrTarget, o.Type(), ir.TypeOf(p.Value))
		}
		delta = d
	}
	cur, ok := ir.Get(doc, p.Path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ir.ErrNotFound, p.Path)
	}
	n, ok := ir.Number(cur)
	if !ok {
		return nil, fmt.Errorf("%w: %s applies to numbers, got %s", ErrTarget, o.Type(), ir.TypeOf(cur))
	}
	return set(doc, p.Path, n+o.sign*delta)
}

type dmpOp struct{}

func (dmpOp) Type() Type { return DiffMatchPatch }

func (dmpOp) Apply(doc any, p *Patch) (any, error) {
	text, ok := p.Value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: diffMatchPatch value must be a string, got %s", ErrTarget, ir.TypeOf(p.Value))
	}
	cur, ok := ir.Get(doc, p.Path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ir.ErrNotFound, p.Path)
	}
	str, ok := cur.(string)
	if !ok {
		return nil, fmt.Errorf("%w: diffMatchPatch applies to strings, got %s", ErrTarget, ir.TypeOf(cur))
	}
	dmp := diffpatch.New()
	patches, err := dmp.PatchFromText(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDMP, err)
	}
	res, applied := dmp.PatchApply(patches, str)
	for i, ok := range applied {
		if !ok {
			return nil, fmt.Errorf("%w: hunk %d at %s", ErrDMP, i, p.Path)
		}
	}
	return set(doc, p.Path, res)
}
