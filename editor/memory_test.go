package editor

import (
	"errors"
	"testing"

	"github.com/signadot/ptsync/ir"
	"github.com/signadot/ptsync/loop"
	"github.com/signadot/ptsync/patch"
	"github.com/signadot/ptsync/patchchan"
	"github.com/signadot/ptsync/schema"

	"github.com/google/go-cmp/cmp"
)

type recorder struct {
	changes []Change
}

func (r *recorder) onChange(c Change) {
	r.changes = append(r.changes, c)
}

func (r *recorder) names() []string {
	res := make([]string, len(r.changes))
	for i, c := range r.changes {
		res[i] = c.String()
	}
	return res
}

func block(key, text string) map[string]any {
	return map[string]any{
		"_type":    "block",
		"_key":     key,
		"markDefs": []any{},
		"children": []any{map[string]any{"_type": "span", "_key": key + "s", "text": text}},
	}
}

func textPath(key string) ir.Path {
	return ir.Path{ir.Key(key), ir.Field("children"), ir.Index(0), ir.Field("text")}
}

func TestMemoryEditUndoRedo(t *testing.T) {
	rec := &recorder{}
	m := NewMemoryEditor(Props{
		Value:    []any{block("a", "one")},
		Type:     &schema.Type{Name: "body"},
		OnChange: rec.onChange,
	})
	if err := m.Edit(patch.SetAt(textPath("a"), "two")); err != nil {
		t.Fatal(err)
	}
	if got, _ := ir.Get(m.Value(), textPath("a")); got != "two" {
		t.Fatalf("edit not applied: %v", got)
	}
	if err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	if got, _ := ir.Get(m.Value(), textPath("a")); got != "one" {
		t.Fatalf("undo not applied: %v", got)
	}
	if err := m.Redo(); err != nil {
		t.Fatal(err)
	}
	if got, _ := ir.Get(m.Value(), textPath("a")); got != "two" {
		t.Fatalf("redo not applied: %v", got)
	}
	if err := m.Redo(); !errors.Is(err, ErrNoRedo) {
		t.Errorf("expected ErrNoRedo, got %v", err)
	}
	want := []string{"ready", "mutation(1)", "value", "undo(1)", "value", "redo(1)", "value"}
	if diff := cmp.Diff(want, rec.names()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	mut := rec.changes[1].(Mutation)
	if mut.Patches[0].Origin != patch.Local || mut.Patches[0].Timestamp.IsZero() {
		t.Errorf("mutation not stamped: %+v", mut.Patches[0])
	}
}

func TestMemoryIncoming(t *testing.T) {
	ch := patchchan.New()
	rec := &recorder{}
	m := NewMemoryEditor(Props{
		Value:    []any{block("a", "one")},
		Incoming: ch,
		OnChange: rec.onChange,
	})
	ch.Publish(patch.SetAt(textPath("a"), "remote"), patch.SetAt(textPath("zz"), "x"))
	if got, _ := ir.Get(m.Value(), textPath("a")); got != "remote" {
		t.Errorf("incoming patch not applied: %v", got)
	}
	got := rec.names()
	if len(got) != 3 || got[0] != "ready" || got[1] != "value" {
		t.Errorf("unexpected changes %v", got)
	}
	if _, ok := rec.changes[2].(Error); !ok {
		t.Errorf("expected an error change, got %s", rec.changes[2])
	}
	m.Close()
	m.Close()
	if ch.Len() != 0 {
		t.Error("close did not unsubscribe")
	}
	ch.Publish(patch.SetAt(textPath("a"), "late"))
	if got, _ := ir.Get(m.Value(), textPath("a")); got != "remote" {
		t.Errorf("patch applied after close: %v", got)
	}
}

func TestMemoryInvalid(t *testing.T) {
	sched := loop.NewManual()
	rec := &recorder{}
	m := NewMemoryEditor(Props{
		Value:     map[string]any{"not": "blocks"},
		Type:      &schema.Type{Name: "body"},
		OnChange:  rec.onChange,
		Scheduler: sched,
	})
	if len(rec.changes) != 0 {
		t.Fatal("changes reported before the scheduler ran")
	}
	sched.RunPending()
	if diff := cmp.Diff([]string{"ready", "invalidValue(value is Object, expected an array of blocks (Unset value))"}, rec.names()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	m.SetValue([]any{block("a", "")})
	if err := m.Edit(patch.SetAt(textPath("a"), "ok")); err != nil {
		t.Errorf("edit after valid value: %v", err)
	}
	if n := len(rec.changes); n != 4 {
		t.Errorf("expected mutation and value changes only after the new value, got %v", rec.names())
	}
}

func TestMemoryReadOnly(t *testing.T) {
	m := NewMemoryEditor(Props{Value: []any{}, ReadOnly: true})
	if err := m.Edit(patch.InsertAt(patch.After, ir.Path{ir.Index(0)}, block("a", ""))); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
	if !m.ReadOnly() {
		t.Error("expected read-only")
	}
}

func TestMemoryFocusSelect(t *testing.T) {
	rec := &recorder{}
	m := NewMemoryEditor(Props{Value: []any{block("a", "x")}, OnChange: rec.onChange})
	m.Blur()
	m.Focus()
	m.Select(&Selection{Focus: textPath("a"), Anchor: textPath("a")})
	m.Select(nil)
	m.Blur()
	m.Report(LevelInfo, "hello")
	want := []string{"ready", "focus", `selection([_key=="a"].children[0].text)`, "selection(none)", "blur", "error(info: hello)"}
	if diff := cmp.Diff(want, rec.names()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if m.Focused() || m.Selection() != nil {
		t.Error("unexpected focus or selection state")
	}
}
