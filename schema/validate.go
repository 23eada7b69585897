package schema

import (
	"fmt"
	"slices"

	"github.com/signadot/ptsync/ir"
	"github.com/signadot/ptsync/patch"
)

// Resolution describes why a value cannot be edited and, when possible, the
// patches that make it editable.
type Resolution struct {
	Description string        `json:"description" yaml:"description"`
	Action      string        `json:"action,omitempty" yaml:"action,omitempty"`
	Path        ir.Path       `json:"path,omitempty" yaml:"path,omitempty"`
	Item        any           `json:"item,omitempty" yaml:"item,omitempty"`
	Rule        string        `json:"rule,omitempty" yaml:"rule,omitempty"`
	Patches     []patch.Patch `json:"patches,omitempty" yaml:"patches,omitempty"`
}

// Fixable reports whether applying r.Patches resolves the problem.
func (r *Resolution) Fixable() bool {
	return r != nil && len(r.Patches) > 0
}

func (r *Resolution) String() string {
	if r == nil {
		return "<nil>"
	}
	if r.Action == "" {
		return r.Description
	}
	return fmt.Sprintf("%s (%s)", r.Description, r.Action)
}

// Validate checks v against t. It returns nil if v is editable, otherwise
// the resolution for the first problem found. Structural problems are
// reported before rule violations. The error is non-nil only when a rule
// cannot be evaluated.
func Validate(t *Type, v any) (*Resolution, error) {
	if res := t.checkStructure(v); res != nil {
		return res, nil
	}
	if t.MaxBlocks > 0 {
		if arr, _ := v.([]any); len(arr) > t.MaxBlocks {
			return &Resolution{
				Description: fmt.Sprintf("value has %d blocks, at most %d are allowed", len(arr), t.MaxBlocks),
			}, nil
		}
	}
	return t.checkRules(v)
}

func (t *Type) checkStructure(v any) *Resolution {
	if v == nil {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return &Resolution{
			Description: fmt.Sprintf("value is %s, expected an array of blocks", ir.TypeOf(v)),
			Action:      "Unset value",
			Item:        v,
			Patches:     []patch.Patch{patch.UnsetAt(nil)},
		}
	}
	seen := make(map[string]bool, len(arr))
	for i, item := range arr {
		at := ir.Path{ir.Index(i)}
		obj, ok := item.(map[string]any)
		if !ok {
			return &Resolution{
				Description: fmt.Sprintf("block %d is %s, expected an object", i, ir.TypeOf(item)),
				Action:      "Remove the item",
				Path:        at,
				Item:        item,
				Patches:     []patch.Patch{patch.UnsetAt(at)},
			}
		}
		key, ok := ir.KeyOf(obj)
		if !ok || key == "" {
			return &Resolution{
				Description: fmt.Sprintf("block %d has no _key", i),
				Action:      "Add missing key",
				Path:        at,
				Item:        item,
				Patches:     []patch.Patch{patch.SetAt(at.Append(ir.Field("_key")), NewKey())},
			}
		}
		if seen[key] {
			return &Resolution{
				Description: fmt.Sprintf("block %d has duplicate _key %q", i, key),
				Action:      "Generate a new key",
				Path:        at,
				Item:        item,
				Patches:     []patch.Patch{patch.SetAt(at.Append(ir.Field("_key")), NewKey())},
			}
		}
		seen[key] = true
		if res := t.checkBlock(ir.Path{ir.Key(key)}, obj); res != nil {
			return res
		}
	}
	return nil
}

func (t *Type) checkBlock(at ir.Path, obj map[string]any) *Resolution {
	typ, _ := obj["_type"].(string)
	switch {
	case typ == "":
		if _, ok := obj["children"]; ok {
			return &Resolution{
				Description: "block has no _type",
				Action:      "Use type block",
				Path:        at,
				Item:        obj,
				Patches:     []patch.Patch{patch.SetAt(at.Append(ir.Field("_type")), BlockType)},
			}
		}
		return &Resolution{
			Description: "item has no _type",
			Action:      "Remove the item",
			Path:        at,
			Item:        obj,
			Patches:     []patch.Patch{patch.UnsetAt(at)},
		}
	case typ != BlockType:
		if t.AllowsObject(typ) {
			return nil
		}
		return &Resolution{
			Description: fmt.Sprintf("block type %q is not allowed", typ),
			Action:      "Remove the item",
			Path:        at,
			Item:        obj,
			Patches:     []patch.Patch{patch.UnsetAt(at)},
		}
	}

	var fixes []patch.Patch
	if _, ok := obj["markDefs"].([]any); !ok {
		fixes = append(fixes, patch.SetAt(at.Append(ir.Field("markDefs")), []any{}))
	}
	children, ok := obj["children"].([]any)
	if !ok || len(children) == 0 {
		fixes = append(fixes, patch.SetAt(at.Append(ir.Field("children")), []any{emptySpan()}))
	}
	if len(fixes) != 0 {
		return &Resolution{
			Description: "block is missing children or markDefs",
			Action:      "Add missing fields",
			Path:        at,
			Item:        obj,
			Patches:     fixes,
		}
	}
	if style, ok := obj["style"].(string); ok && !t.AllowsStyle(style) {
		return &Resolution{
			Description: fmt.Sprintf("style %q is not allowed", style),
			Action:      fmt.Sprintf("Use style %s", t.styles()[0]),
			Path:        at,
			Item:        obj,
			Patches:     []patch.Patch{patch.SetAt(at.Append(ir.Field("style")), t.styles()[0])},
		}
	}
	if list, ok := obj["listItem"].(string); ok && !t.AllowsList(list) {
		return &Resolution{
			Description: fmt.Sprintf("list type %q is not allowed", list),
			Action:      "Remove list type",
			Path:        at,
			Item:        obj,
			Patches:     []patch.Patch{patch.UnsetAt(at.Append(ir.Field("listItem")))},
		}
	}
	markDefs := markDefKeys(obj)
	seen := make(map[string]bool, len(children))
	for i, c := range children {
		cat := at.Append(ir.Field("children"), ir.Index(i))
		child, ok := c.(map[string]any)
		if !ok {
			return &Resolution{
				Description: fmt.Sprintf("child %d is %s, expected an object", i, ir.TypeOf(c)),
				Action:      "Remove the child",
				Path:        cat,
				Item:        obj,
				Patches:     []patch.Patch{patch.UnsetAt(cat)},
			}
		}
		key, ok := ir.KeyOf(child)
		if !ok || key == "" || seen[key] {
			return &Resolution{
				Description: fmt.Sprintf("child %d has a missing or duplicate _key", i),
				Action:      "Generate a new key",
				Path:        cat,
				Item:        obj,
				Patches:     []patch.Patch{patch.SetAt(cat.Append(ir.Field("_key")), NewKey())},
			}
		}
		seen[key] = true
		if res := t.checkChild(cat, obj, child, markDefs); res != nil {
			return res
		}
	}
	return nil
}

func (t *Type) checkChild(at ir.Path, block, child map[string]any, markDefs []string) *Resolution {
	typ, _ := child["_type"].(string)
	if typ != SpanType {
		if typ != "" && t.AllowsInline(typ) {
			return nil
		}
		return &Resolution{
			Description: fmt.Sprintf("inline type %q is not allowed", typ),
			Action:      "Remove the child",
			Path:        at,
			Item:        block,
			Patches:     []patch.Patch{patch.UnsetAt(at)},
		}
	}
	if _, ok := child["text"].(string); !ok {
		return &Resolution{
			Description: "span has no text",
			Action:      "Set empty text",
			Path:        at,
			Item:        block,
			Patches:     []patch.Patch{patch.SetAt(at.Append(ir.Field("text")), "")},
		}
	}
	raw, present := child["marks"]
	if !present {
		return nil
	}
	marks, ok := raw.([]any)
	if !ok {
		return &Resolution{
			Description: "span marks is not an array",
			Action:      "Reset marks",
			Path:        at,
			Item:        block,
			Patches:     []patch.Patch{patch.SetAt(at.Append(ir.Field("marks")), []any{})},
		}
	}
	kept := make([]any, 0, len(marks))
	for _, m := range marks {
		s, ok := m.(string)
		if ok && (t.AllowsDecorator(s) || slices.Contains(markDefs, s)) {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(marks) {
		return nil
	}
	return &Resolution{
		Description: "span has marks which are neither allowed decorators nor annotations of the block",
		Action:      "Remove orphaned marks",
		Path:        at,
		Item:        block,
		Patches:     []patch.Patch{patch.SetAt(at.Append(ir.Field("marks")), kept)},
	}
}

func markDefKeys(block map[string]any) []string {
	defs, _ := block["markDefs"].([]any)
	res := make([]string, 0, len(defs))
	for _, d := range defs {
		if k, ok := ir.KeyOf(d); ok {
			res = append(res, k)
		}
	}
	return res
}

func emptySpan() map[string]any {
	return map[string]any{
		"_type": SpanType,
		"_key":  NewKey(),
		"text":  "",
		"marks": []any{},
	}
}
