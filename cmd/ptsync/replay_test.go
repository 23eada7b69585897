package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signadot/ptsync/ir"
	"github.com/signadot/ptsync/schema"
	"github.com/signadot/ptsync/transport"

	"github.com/goccy/go-yaml"
)

const session = `
value:
  - _type: block
    _key: a
    markDefs: []
    children:
      - {_type: span, _key: s, text: hello}
steps:
  - comment: remote edit and its echo
    remote:
      - {type: set, path: '[_key=="a"].children[0].text', value: remote}
      - {type: set, path: '[_key=="a"].children[0].text', value: echo, origin: local}
  - edit:
      - {type: set, path: '[_key=="a"].style', value: h1}
  - select: '[_key=="a"].children[0].text'
  - select: '[_key=="a"].children[0].text'
  - focus: true
    blur: true
  - undo: true
  - error: {level: warning, description: slow network}
`

func replayConfig() *ReplayConfig {
	return &ReplayConfig{MainConfig: &MainConfig{File: DefaultConfig(), Log: slog.Default()}}
}

func runSession(t *testing.T, cfg *ReplayConfig, src string) (*replayer, string) {
	t.Helper()
	j, err := yaml.YAMLToJSON([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	sess := &Session{}
	if err := json.Unmarshal(j, sess); err != nil {
		t.Fatal(err)
	}
	buf := &bytes.Buffer{}
	r, err := newReplayer(cfg, buf, sess)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(r.in.Unmount)
	for i := range sess.Steps {
		if err := r.step(i, &sess.Steps[i]); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	return r, buf.String()
}

func TestReplay(t *testing.T) {
	r, out := runSession(t, replayConfig(), session)
	text, _ := ir.Get(r.memory().Value(), ir.MustParsePath(`[_key=="a"].children[0].text`))
	if text != "remote" {
		t.Errorf("remote patch not applied or echo forwarded: %v\n%s", text, out)
	}
	for _, want := range []string{
		"step 0: remote edit and its echo",
		`change [set [_key=="a"].style (local)]`,
		`focus [_key=="a"].children[0].text`,
		"blur",
		"warning slow network",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "  focus "); n != 1 {
		t.Errorf("expected one focus propagation, got %d:\n%s", n, out)
	}
	if style, _ := ir.Get(r.memory().Value(), ir.MustParsePath(`[_key=="a"].style`)); style != nil {
		t.Errorf("undo did not revert the style: %v", style)
	}
}

func TestReplayInvalidValue(t *testing.T) {
	cfg := replayConfig()
	dir := t.TempDir()
	typ := filepath.Join(dir, "body.yaml")
	if err := os.WriteFile(typ, []byte("name: body\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg.Schema = typ
	r, out := runSession(t, cfg, `
value: []
steps:
  - value: [{_type: video, _key: v}]
  - resolve: true
`)
	if !strings.Contains(out, `invalid: block type "video" is not allowed (Remove the item)`) {
		t.Errorf("invalid state not reported:\n%s", out)
	}
	if r.in.Invalid() != nil {
		t.Errorf("resolution did not clear the guard:\n%s", out)
	}
	if !ir.Equal(r.in.Value(), []any{}) {
		t.Errorf("unexpected value %v", r.in.Value())
	}
}

func TestFix(t *testing.T) {
	typ := &schema.Type{Name: "body"}
	v := []any{
		"junk",
		map[string]any{"_type": "block", "_key": "a"},
		map[string]any{"_type": "block", "_key": "a", "markDefs": []any{}, "children": []any{map[string]any{"_type": "span", "_key": "s"}}},
	}
	fixed, res, err := fix(typ, v)
	if err != nil {
		t.Fatal(err)
	}
	if res != nil {
		t.Fatalf("unfixable: %s", res)
	}
	if again, _ := schema.Validate(typ, fixed); again != nil {
		t.Errorf("fixed value is invalid: %s", again)
	}
	if arr := fixed.([]any); len(arr) != 2 {
		t.Errorf("expected 2 blocks, got %v", fixed)
	}

	_, res, err = fix(&schema.Type{Name: "t", MaxBlocks: 1}, []any{
		map[string]any{"_type": "block", "_key": "a", "markDefs": []any{}, "children": []any{map[string]any{"_type": "span", "_key": "s", "text": ""}}},
		map[string]any{"_type": "block", "_key": "b", "markDefs": []any{}, "children": []any{map[string]any{"_type": "span", "_key": "s", "text": ""}}},
	})
	if err != nil || res == nil || res.Fixable() {
		t.Errorf("expected an unfixable resolution, got %v %v", res, err)
	}
}

func TestSnapshotCheck(t *testing.T) {
	check := snapshotCheck(&schema.Type{Name: "body"})
	if n := check(transport.Batch{}); n != nil {
		t.Errorf("batch without snapshot: %v", n)
	}
	if n := check(transport.Batch{Snapshot: []any{}}); n != nil {
		t.Errorf("valid snapshot: %v", n)
	}
	if n := check(transport.Batch{Snapshot: "x"}); n == nil || n.Title != "body" {
		t.Errorf("invalid snapshot: %v", n)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ptsync.yaml")
	if err := os.WriteFile(path, []byte("schema: body\nschemas: types\ncolor: false\nserve:\n  gops: true\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Schema != "body" || cfg.SchemaDir != "types" || cfg.Color == nil || *cfg.Color || !cfg.Serve.Gops {
		t.Errorf("unexpected config %+v", cfg)
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSchemaByName(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "body.yaml"), []byte("name: cmd-body\nmaxBlocks: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := &MainConfig{File: &FileConfig{SchemaDir: dir, Schema: "cmd-body"}, Log: slog.Default()}
	if err := cfg.registerSchemas(); err != nil {
		t.Fatal(err)
	}
	typ, err := cfg.schemaType("")
	if err != nil {
		t.Fatal(err)
	}
	if typ.Name != "cmd-body" || typ.MaxBlocks != 1 {
		t.Errorf("unexpected type %+v", typ)
	}
	if _, err := cfg.schemaType("cmd-missing"); err == nil {
		t.Error("expected error for unknown schema")
	}
}
