package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/signadot/ptsync/ir"
	"github.com/signadot/ptsync/patch"
)

func mustJSON(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("decoding %q: %v", s, err)
	}
	return v
}

const bodyYAML = `
name: body
title: Body
styles: [normal, h1]
decorators: [strong, em]
annotations: [link]
inline: [mention]
objects: [image]
maxBlocks: 3
rules:
  - name: no-todo
    expr: 'not (text(value) contains "TODO")'
    message: body contains TODO
`

func bodyType(t *testing.T) *Type {
	t.Helper()
	typ, err := ParseType([]byte(bodyYAML))
	if err != nil {
		t.Fatal(err)
	}
	return typ
}

type validateTest struct {
	Name   string
	Value  string
	Valid  bool
	Action string
	Fixed  bool
}

var validateTests = []validateTest{
	{Name: "null", Value: `null`, Valid: true},
	{Name: "empty", Value: `[]`, Valid: true},
	{
		Name:  "valid block",
		Value: `[{"_type":"block","_key":"a","style":"h1","markDefs":[{"_key":"l1","_type":"link"}],"children":[{"_type":"span","_key":"s","text":"hi","marks":["strong","l1"]}]}]`,
		Valid: true,
	},
	{Name: "allowed object", Value: `[{"_type":"image","_key":"i"}]`, Valid: true},
	{Name: "not an array", Value: `{"a":1}`, Action: "Unset value", Fixed: true},
	{Name: "item not object", Value: `["x"]`, Action: "Remove the item", Fixed: true},
	{
		Name:   "missing key",
		Value:  `[{"_type":"block","markDefs":[],"children":[{"_type":"span","_key":"s","text":""}]}]`,
		Action: "Add missing key",
		Fixed:  true,
	},
	{
		Name:   "duplicate key",
		Value:  `[{"_type":"image","_key":"a"},{"_type":"image","_key":"a"}]`,
		Action: "Generate a new key",
		Fixed:  true,
	},
	{
		Name:   "missing type with children",
		Value:  `[{"_key":"a","markDefs":[],"children":[{"_type":"span","_key":"s","text":""}]}]`,
		Action: "Use type block",
		Fixed:  true,
	},
	{Name: "disallowed object", Value: `[{"_type":"video","_key":"v"}]`, Action: "Remove the item", Fixed: true},
	{Name: "missing children", Value: `[{"_type":"block","_key":"a"}]`, Action: "Add missing fields", Fixed: true},
	{
		Name:   "bad style",
		Value:  `[{"_type":"block","_key":"a","style":"h6","markDefs":[],"children":[{"_type":"span","_key":"s","text":""}]}]`,
		Action: "Use style normal",
		Fixed:  true,
	},
	{
		Name:   "span without text",
		Value:  `[{"_type":"block","_key":"a","markDefs":[],"children":[{"_type":"span","_key":"s"}]}]`,
		Action: "Set empty text",
		Fixed:  true,
	},
	{
		Name:   "orphaned mark",
		Value:  `[{"_type":"block","_key":"a","markDefs":[],"children":[{"_type":"span","_key":"s","text":"x","marks":["strong","gone"]}]}]`,
		Action: "Remove orphaned marks",
		Fixed:  true,
	},
	{
		Name:   "disallowed inline",
		Value:  `[{"_type":"block","_key":"a","markDefs":[],"children":[{"_type":"span","_key":"s","text":""},{"_type":"emoji","_key":"e"}]}]`,
		Action: "Remove the child",
		Fixed:  true,
	},
	{
		Name:  "too many blocks",
		Value: `[{"_type":"image","_key":"a"},{"_type":"image","_key":"b"},{"_type":"image","_key":"c"},{"_type":"image","_key":"d"}]`,
	},
	{
		Name:  "rule violation",
		Value: `[{"_type":"block","_key":"a","markDefs":[],"children":[{"_type":"span","_key":"s","text":"TODO: write"}]}]`,
	},
}

func TestValidate(t *testing.T) {
	typ := bodyType(t)
	for i := range validateTests {
		tc := &validateTests[i]
		t.Run(tc.Name, func(t *testing.T) {
			v := mustJSON(t, tc.Value)
			res, err := Validate(typ, v)
			if err != nil {
				t.Fatal(err)
			}
			if tc.Valid {
				if res != nil {
					t.Fatalf("expected valid, got %s", res)
				}
				return
			}
			if res == nil {
				t.Fatal("expected a resolution")
			}
			if res.Action != tc.Action {
				t.Errorf("action: got %q want %q", res.Action, tc.Action)
			}
			if res.Fixable() != tc.Fixed {
				t.Fatalf("fixable: got %t want %t", res.Fixable(), tc.Fixed)
			}
			if !tc.Fixed {
				return
			}
			fixed, err := patch.Apply(v, res.Patches...)
			if err != nil {
				t.Fatalf("applying resolution: %v", err)
			}
			if next, _ := Validate(typ, fixed); next != nil && next.Action == res.Action && next.Path.Equal(res.Path) {
				t.Errorf("resolution did not fix the problem: %s", next)
			}
		})
	}
}

func TestRuleMessage(t *testing.T) {
	typ := bodyType(t)
	v := mustJSON(t, `[{"_type":"block","_key":"a","markDefs":[],"children":[{"_type":"span","_key":"s","text":"TODO"}]}]`)
	res, err := Validate(typ, v)
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || res.Rule != "no-todo" || res.Description != "body contains TODO" {
		t.Errorf("unexpected resolution %+v", res)
	}
}

func TestRuleErrors(t *testing.T) {
	if _, err := ParseType([]byte("name: x\nrules:\n  - name: bad\n    expr: 'value +'\n")); err == nil {
		t.Error("expected compile error")
	}
	if _, err := ParseType([]byte("title: no name\n")); err == nil {
		t.Error("expected missing name error")
	}
	typ := &Type{Name: "t", Rules: []Rule{{Name: "path", Expr: `getpath(value, "[0].n") > 1`}}}
	res, err := Validate(typ, []any{map[string]any{"_type": "thing", "_key": "k", "n": 2.0}})
	// "thing" is not an allowed object so structure fails first
	if err != nil || res == nil || res.Action != "Remove the item" {
		t.Fatalf("unexpected %v %v", res, err)
	}
	typ = &Type{Name: "t", Objects: []string{"thing"}, Rules: []Rule{{Name: "path", Expr: `getpath(value, "[0].n") > 1`}}}
	res, err = Validate(typ, []any{map[string]any{"_type": "thing", "_key": "k", "n": 2.0}})
	if err != nil || res != nil {
		t.Fatalf("expected valid, got %v %v", res, err)
	}
	res, err = Validate(typ, []any{map[string]any{"_type": "thing", "_key": "k", "n": "x"}})
	var re *RuleError
	if res != nil || !errors.As(err, &re) || re.Rule != "path" {
		t.Errorf("expected rule error, got %v %v", res, err)
	}
}

func TestResolutionPaths(t *testing.T) {
	typ := bodyType(t)
	v := mustJSON(t, `[{"_type":"image","_key":"a"},{"_type":"block","_key":"b","markDefs":[],"children":[{"_type":"span","_key":"s"}]}]`)
	res, err := Validate(typ, v)
	if err != nil {
		t.Fatal(err)
	}
	want := ir.MustParsePath(`[_key=="b"].children[0]`)
	if !res.Path.Equal(want) {
		t.Errorf("got path %s want %s", res.Path, want)
	}
}

func TestRegistry(t *testing.T) {
	typ := &Type{Name: "registry-test"}
	if err := Register(typ); err != nil {
		t.Fatal(err)
	}
	if err := Register(&Type{Name: "registry-test"}); err == nil {
		t.Error("expected duplicate error")
	}
	if err := Register(&Type{}); err == nil {
		t.Error("expected unnamed error")
	}
	if Lookup("registry-test") != typ {
		t.Error("lookup did not return the registered type")
	}
	if Lookup("nope") != nil {
		t.Error("expected nil for unknown type")
	}
}

func TestNewKey(t *testing.T) {
	a, b := NewKey(), NewKey()
	if len(a) != 12 || a == b {
		t.Errorf("unexpected keys %q %q", a, b)
	}
}

func TestPlainText(t *testing.T) {
	v := mustJSON(t, `[{"children":[{"text":"a"},{"text":"b"}]},{"_type":"image"},{"children":[{"text":"c"}]}]`)
	if got := PlainText(v); got != "ab\n\nc" {
		t.Errorf("got %q", got)
	}
}
