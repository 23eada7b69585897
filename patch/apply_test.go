package patch

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/signadot/ptsync/ir"

	"github.com/google/go-cmp/cmp"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

func mustJSON(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("decoding %q: %v", s, err)
	}
	return v
}

type applyTest struct {
	Name    string
	Doc     string
	Patches []Patch
	Res     string
	Err     error
}

var applyTests = []applyTest{
	{
		Name:    "set existing field",
		Doc:     `{"title": "a"}`,
		Patches: []Patch{SetAt(ir.MustParsePath("title"), "b")},
		Res:     `{"title": "b"}`,
	},
	{
		Name:    "set creates parents",
		Doc:     `{}`,
		Patches: []Patch{SetAt(ir.MustParsePath("meta.sha"), "abc")},
		Res:     `{"meta": {"sha": "abc"}}`,
	},
	{
		Name:    "set on null document",
		Doc:     `null`,
		Patches: []Patch{SetAt(ir.MustParsePath("title"), "x")},
		Res:     `{"title": "x"}`,
	},
	{
		Name:    "set root",
		Doc:     `[1]`,
		Patches: []Patch{SetAt(nil, []any{"x"})},
		Res:     `["x"]`,
	},
	{
		Name:    "set keyed item field",
		Doc:     `[{"_key": "a", "style": "normal"}, {"_key": "b", "style": "normal"}]`,
		Patches: []Patch{SetAt(ir.MustParsePath(`[_key=="b"].style`), "h1")},
		Res:     `[{"_key": "a", "style": "normal"}, {"_key": "b", "style": "h1"}]`,
	},
	{
		Name:    "setIfMissing keeps existing",
		Doc:     `{"n": 1}`,
		Patches: []Patch{SetIfMissingAt(ir.MustParsePath("n"), 2.0), SetIfMissingAt(ir.MustParsePath("m"), 3.0)},
		Res:     `{"n": 1, "m": 3}`,
	},
	{
		Name:    "unset missing is a no-op",
		Doc:     `{"a": 1}`,
		Patches: []Patch{UnsetAt(ir.MustParsePath("b")), UnsetAt(ir.MustParsePath("a"))},
		Res:     `{}`,
	},
	{
		Name:    "unset keyed",
		Doc:     `[{"_key": "a"}, {"_key": "b"}]`,
		Patches: []Patch{UnsetAt(ir.MustParsePath(`[_key=="a"]`))},
		Res:     `[{"_key": "b"}]`,
	},
	{
		Name: "insert after keyed",
		Doc:  `[{"_key": "a"}, {"_key": "c"}]`,
		Patches: []Patch{InsertAt(After, ir.MustParsePath(`[_key=="a"]`),
			map[string]any{"_key": "b1"}, map[string]any{"_key": "b2"})},
		Res: `[{"_key": "a"}, {"_key": "b1"}, {"_key": "b2"}, {"_key": "c"}]`,
	},
	{
		Name:    "insert before index",
		Doc:     `{"tags": ["b"]}`,
		Patches: []Patch{InsertAt(Before, ir.MustParsePath("tags[0]"), "a")},
		Res:     `{"tags": ["a", "b"]}`,
	},
	{
		Name:    "insert replace",
		Doc:     `["a", "b", "c"]`,
		Patches: []Patch{InsertAt(Replace, ir.MustParsePath("[1]"), "x", "y")},
		Res:     `["a", "x", "y", "c"]`,
	},
	{
		Name:    "insert into empty array",
		Doc:     `{"body": []}`,
		Patches: []Patch{InsertAt(After, ir.MustParsePath("body[0]"), "x")},
		Res:     `{"body": ["x"]}`,
	},
	{
		Name:    "insert creates missing array",
		Doc:     `{}`,
		Patches: []Patch{InsertAt(After, ir.MustParsePath("body[0]"), "x")},
		Res:     `{"body": ["x"]}`,
	},
	{
		Name:    "inc and dec",
		Doc:     `{"n": 1}`,
		Patches: []Patch{{Type: Inc, Path: ir.MustParsePath("n"), Value: 4.0}, {Type: Dec, Path: ir.MustParsePath("n")}},
		Res:     `{"n": 4}`,
	},
	{
		Name:    "insert out of bounds",
		Doc:     `["a"]`,
		Patches: []Patch{InsertAt(After, ir.MustParsePath("[3]"), "x")},
		Err:     ErrTarget,
	},
	{
		Name:    "unknown type",
		Doc:     `{}`,
		Patches: []Patch{{Type: "explode"}},
		Err:     ErrUnknownType,
	},
	{
		Name:    "missing key",
		Doc:     `[]`,
		Patches: []Patch{SetAt(ir.MustParsePath(`[_key=="a"].x`), 1.0)},
		Err:     ir.ErrNotFound,
	},
	{
		Name:    "inc non number",
		Doc:     `{"n": "one"}`,
		Patches: []Patch{{Type: Inc, Path: ir.MustParsePath("n")}},
		Err:     ErrTarget,
	},
}

func TestApply(t *testing.T) {
	for i := range applyTests {
		tc := &applyTests[i]
		t.Run(tc.Name, func(t *testing.T) {
			doc := mustJSON(t, tc.Doc)
			orig := ir.Clone(doc)
			res, err := Apply(doc, tc.Patches...)
			if !ir.Equal(doc, orig) {
				t.Errorf("Apply modified its input")
			}
			if tc.Err != nil {
				if !errors.Is(err, tc.Err) {
					t.Fatalf("expected %v, got %v", tc.Err, err)
				}
				var ae *ApplyError
				if !errors.As(err, &ae) {
					t.Fatalf("expected *ApplyError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			want := mustJSON(t, tc.Res)
			if !ir.Equal(res, want) {
				t.Errorf("got %v want %v", res, want)
			}
		})
	}
}

func TestApplyDiffMatchPatch(t *testing.T) {
	dmp := diffpatch.New()
	from, to := "The quick fox", "The quick brown fox"
	text := dmp.PatchToText(dmp.PatchMake(from, to))
	doc := map[string]any{"children": []any{map[string]any{"_key": "s1", "text": from}}}
	res, err := Apply(doc, DiffMatchPatchAt(ir.MustParsePath(`children[_key=="s1"].text`), text))
	if err != nil {
		t.Fatal(err)
	}
	got, _ := ir.Get(res, ir.MustParsePath("children[0].text"))
	if diff := cmp.Diff(to, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	_, err = Apply(map[string]any{"t": 1.0}, DiffMatchPatchAt(ir.MustParsePath("t"), text))
	if !errors.Is(err, ErrTarget) {
		t.Errorf("expected ErrTarget, got %v", err)
	}
}

func TestApplyErrorIndex(t *testing.T) {
	_, err := Apply(map[string]any{}, SetAt(ir.MustParsePath("a"), 1.0), Patch{Type: Inc, Path: ir.MustParsePath("b")})
	var ae *ApplyError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *ApplyError, got %v", err)
	}
	if ae.Index != 1 {
		t.Errorf("expected failing index 1, got %d", ae.Index)
	}
}

func TestTypesRegistered(t *testing.T) {
	want := []Type{Dec, DiffMatchPatch, Inc, Insert, Set, SetIfMissing, Unset}
	if diff := cmp.Diff(want, Types()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if err := Register(setOp{}); err == nil {
		t.Error("expected duplicate registration error")
	}
	_, err := Apply(nil, Patch{Type: "explode"})
	if err == nil || !strings.Contains(err.Error(), "diffMatchPatch") {
		t.Errorf("expected the known types in %v", err)
	}
}

func TestPatchJSON(t *testing.T) {
	in := `{"type":"insert","path":"body[_key==\"a\"]","items":[{"_key":"b"}],"position":"after","origin":"remote"}`
	var p Patch
	if err := json.Unmarshal([]byte(in), &p); err != nil {
		t.Fatal(err)
	}
	if p.Type != Insert || p.Position != After || p.Origin != Remote {
		t.Errorf("unexpected decode %+v", p)
	}
	if !p.Path.Equal(ir.Path{ir.Field("body"), ir.Key("a")}) {
		t.Errorf("unexpected path %s", p.Path)
	}
}
